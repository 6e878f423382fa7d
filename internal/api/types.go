package api

// AuctionsResponse from GET /auctions?page=N
type AuctionsResponse struct {
	Success     bool         `json:"success"`
	Page        int          `json:"page"`
	TotalPages  int          `json:"totalPages"`
	LastUpdated int64        `json:"lastUpdated"` // epoch ms, advances when the snapshot rebuilds
	Auctions    []APIAuction `json:"auctions"`
}

// APIAuction represents one auction record from the snapshot.
type APIAuction struct {
	UUID        string  `json:"uuid"`
	ItemName    string  `json:"item_name"`
	ItemLore    string  `json:"item_lore"`
	ItemBytes   string  `json:"item_bytes"` // base64 opaque item metadata
	StartingBid float64 `json:"starting_bid"`
	BIN         bool    `json:"bin"`
}
