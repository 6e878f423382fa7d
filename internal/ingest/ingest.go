package ingest

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/skyflip/internal/api"
	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/normalize"
)

// PageSource fetches snapshot pages.
type PageSource interface {
	GetAuctionsPage(ctx context.Context, page int) (*api.AuctionsResponse, error)
}

// Snapshot is one complete pull of the fixed-price market.
type Snapshot struct {
	LastUpdated int64 // epoch ms freshness stamp from page 0
	Listings    []model.Listing
}

// Ingester fetches and enriches market snapshots.
type Ingester struct {
	source     PageSource
	normalizer *normalize.Normalizer
	apiCfg     config.APIConfig
	flipCfg    config.FlipConfig
	logger     *slog.Logger
}

// New creates an Ingester.
func New(source PageSource, normalizer *normalize.Normalizer, apiCfg config.APIConfig, flipCfg config.FlipConfig, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		source:     source,
		normalizer: normalizer,
		apiCfg:     apiCfg,
		flipCfg:    flipCfg,
		logger:     logger,
	}
}

// FetchSnapshot pulls every page of the current snapshot. Page 0 must
// succeed: it carries the page count and the freshness stamp. Later pages
// that fail are logged and skipped, so one bad page costs its listings, not
// the cycle.
func (in *Ingester) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	first, err := in.source.GetAuctionsPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	pages := make([][]model.Listing, first.TotalPages)
	pages[0] = in.convertPage(0, first.Auctions)

	if first.TotalPages > 1 {
		if in.apiCfg.PageFanout {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(pageFanoutLimit)
			for page := 1; page < first.TotalPages; page++ {
				g.Go(func() error {
					pages[page] = in.fetchPage(gctx, page)
					return nil
				})
			}
			g.Wait()
		} else {
			for page := 1; page < first.TotalPages; page++ {
				pages[page] = in.fetchPage(ctx, page)
			}
		}
	}

	var total int
	for _, p := range pages {
		total += len(p)
	}

	listings := make([]model.Listing, 0, total)
	for _, p := range pages {
		listings = append(listings, p...)
	}

	in.logger.Debug("snapshot fetched",
		"pages", first.TotalPages,
		"bin_listings", len(listings),
		"last_updated", first.LastUpdated,
	)

	return &Snapshot{
		LastUpdated: first.LastUpdated,
		Listings:    listings,
	}, nil
}

func (in *Ingester) fetchPage(ctx context.Context, page int) []model.Listing {
	resp, err := in.source.GetAuctionsPage(ctx, page)
	if err != nil {
		in.logger.Warn("snapshot page failed, skipping", "page", page, "error", err)
		return nil
	}
	return in.convertPage(page, resp.Auctions)
}

// convertPage keeps fixed-price listings and drops records with malformed
// identifiers.
func (in *Ingester) convertPage(page int, auctions []api.APIAuction) []model.Listing {
	out := make([]model.Listing, 0, len(auctions))
	for _, a := range auctions {
		if !a.BIN {
			continue
		}
		l, err := a.ToListing()
		if err != nil {
			in.logger.Warn("dropping malformed listing", "page", page, "error", err)
			continue
		}
		out = append(out, l)
	}
	return out
}

// DecodeAll enriches listings in parallel under a bounded worker ceiling.
// Listings priced outside the plausible flip band are dropped before the
// metadata decode. Output order follows input order.
func (in *Ingester) DecodeAll(ctx context.Context, listings []model.Listing) []model.DecodedListing {
	results := make([]*model.DecodedListing, len(listings))

	sem := make(chan struct{}, decodeLimit(in.apiCfg))
	var wg sync.WaitGroup

	for i, l := range listings {
		if !in.plausible(l) {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return compact(results)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			d := in.decode(l)
			results[i] = &d
		}()
	}

	wg.Wait()
	return compact(results)
}

// plausible filters out listings too cheap to clear the profit floor even if
// resold at double the price, and listings beyond the configured ceiling.
func (in *Ingester) plausible(l model.Listing) bool {
	if float64(l.StartingBid) < in.flipCfg.MinRawProfit/2 {
		return false
	}
	if in.flipCfg.MaxPrice > 0 && l.StartingBid > in.flipCfg.MaxPrice {
		return false
	}
	return true
}

func (in *Ingester) decode(l model.Listing) model.DecodedListing {
	count := DecodeStackCount(l.ItemBytes)
	rarity := normalize.RarityFromLore(l.LoreText)

	return model.DecodedListing{
		Listing:       l,
		StackCount:    count,
		Rarity:        rarity,
		ComparisonKey: in.normalizer.Key(l.DisplayName, rarity),
		UnitPrice:     float64(l.StartingBid) / float64(count),
	}
}

func compact(results []*model.DecodedListing) []model.DecodedListing {
	out := make([]model.DecodedListing, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// pageFanoutLimit caps concurrent page fetches. The upstream API rate limits
// per key, so more parallelism buys nothing past a point.
const pageFanoutLimit = 8

func decodeLimit(cfg config.APIConfig) int {
	if cfg.DecodeLimit > 0 {
		return cfg.DecodeLimit
	}
	return 8
}
