package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Snapshot Types
// -----------------------------------------------------------------------------

// Listing is one raw auction record from the market snapshot. Listings are
// sourced fresh each ingestion cycle and never persisted.
type Listing struct {
	UUID         uuid.UUID // Auction identifier
	DisplayName  string    // Item display name as listed
	LoreText     string    // Item lore (rarity lives in here)
	ItemBytes    string    // Opaque base64 item metadata blob
	StartingBid  int64     // Listed price in coins
	IsFixedPrice bool      // true for buy-it-now listings
}

// CommandID returns the auction identifier in the undashed hex form the
// in-game /viewauction command expects.
func (l Listing) CommandID() string {
	return strings.ReplaceAll(l.UUID.String(), "-", "")
}

// DecodedListing is a Listing enriched with derived comparison fields.
// Discarded after each detection pass.
type DecodedListing struct {
	Listing

	StackCount    int     // Quantity decoded from the metadata blob (>= 1)
	Rarity        string  // Rarity derived from lore text
	ComparisonKey string  // Canonicalized grouping key
	UnitPrice     float64 // StartingBid / StackCount
}

// TotalPrice returns the full listing price (unit price times stack size).
func (d DecodedListing) TotalPrice() float64 {
	return d.UnitPrice * float64(d.StackCount)
}

// -----------------------------------------------------------------------------
// Decision Types
// -----------------------------------------------------------------------------

// FlipCandidate is an underpriced listing worth buying, produced per detection
// cycle and consumed once by the purchase executor.
type FlipCandidate struct {
	UUID          uuid.UUID // Auction to purchase
	OriginalName  string    // Display name of the cheapest listing
	OriginalPrice int64     // Full purchase price in coins
	StackSize     int       // Stack quantity of the cheapest listing
	PricePerUnit  float64   // Unit price of the cheapest listing
	RawProfit     float64   // Projected profit after the relist undercut
	Margin        float64   // RawProfit / cost
	StockDepth    int       // Listings sharing the comparison key
}

// CommandID returns the auction identifier in undashed hex form.
func (f FlipCandidate) CommandID() string {
	return strings.ReplaceAll(f.UUID.String(), "-", "")
}

// PurchaseRecord is a confirmed purchase. Appended to the in-memory pending
// queue and to the durable ledger; removed from the pending queue once
// re-listing completes.
type PurchaseRecord struct {
	TimePurchased      time.Time `json:"timePurchased"`
	ValuePurchased     int64     `json:"valuePurchased"`
	ProjectedSaleValue float64   `json:"projectedSaleValue"`
	ItemName           string    `json:"itemName"`
}

// ListPrice returns the price a re-listed item is created at.
func (r PurchaseRecord) ListPrice() int64 {
	return int64(r.ProjectedSaleValue)
}

// -----------------------------------------------------------------------------
// Control Types
// -----------------------------------------------------------------------------

// TimingState tracks the observed refresh behaviour of the remote snapshot.
// Mutated by the timing predictor only.
type TimingState struct {
	LastSnapshotMillis int64         // lastUpdated of the most recent snapshot (epoch ms)
	ObservedLatency    time.Duration // Measured lag between refresh and local observation
}

// SessionState drives the top-level control loop. Transitions are strictly
// forward; there is no path back to an earlier state.
type SessionState int

const (
	StateBootstrapping SessionState = iota
	StateEnteringWorld
	StateEnteringMarketArea
	StateSteady
)

// String returns the state name for logging.
func (s SessionState) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateEnteringWorld:
		return "entering_world"
	case StateEnteringMarketArea:
		return "entering_market_area"
	case StateSteady:
		return "steady"
	default:
		return "unknown"
	}
}

// Next returns the state that follows s. Steady is terminal.
func (s SessionState) Next() SessionState {
	if s >= StateSteady {
		return StateSteady
	}
	return s + 1
}
