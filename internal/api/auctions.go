package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetAuctionsPage fetches one page of the auction snapshot.
func (c *Client) GetAuctionsPage(ctx context.Context, page int) (*AuctionsResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	var resp AuctionsResponse
	if err := c.get(ctx, "/auctions", query, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("auctions page %d: api reported failure", page)
	}

	return &resp, nil
}

// GetFreshness returns the lastUpdated timestamp (epoch ms) of the snapshot.
// It fetches page 0, which is also where totalPages lives.
func (c *Client) GetFreshness(ctx context.Context) (int64, error) {
	resp, err := c.GetAuctionsPage(ctx, 0)
	if err != nil {
		return 0, err
	}
	return resp.LastUpdated, nil
}
