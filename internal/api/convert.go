package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rickgao/skyflip/internal/model"
)

// ToListing converts a wire auction record to a model Listing. The API serves
// auction IDs as undashed 32-char hex, which uuid.Parse accepts.
func (a APIAuction) ToListing() (model.Listing, error) {
	id, err := uuid.Parse(a.UUID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("parse auction uuid %q: %w", a.UUID, err)
	}

	return model.Listing{
		UUID:         id,
		DisplayName:  a.ItemName,
		LoreText:     a.ItemLore,
		ItemBytes:    a.ItemBytes,
		StartingBid:  int64(a.StartingBid),
		IsFixedPrice: a.BIN,
	}, nil
}
