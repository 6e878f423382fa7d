// Package detect finds profitable mispricings in a decoded auction snapshot.
//
// The detector compares only the two cheapest listings in each comparison
// group: buy the cheapest, undercut the second-cheapest on relist. A stock
// depth gate keeps it from acting on illiquid one-off mispricings.
package detect

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
)

// Detector ranks flip candidates by profitability.
type Detector struct {
	cfg    config.FlipConfig
	logger *slog.Logger
}

// New creates a Detector.
func New(cfg config.FlipConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect groups decoded listings by comparison key and emits a candidate for
// every group whose cheapest listing clears the margin, profit and stock
// thresholds. Margin and profit use strict greater-than; stock depth is
// inclusive.
func (d *Detector) Detect(listings []model.DecodedListing) []model.FlipCandidate {
	groups := make(map[string][]model.DecodedListing)
	for _, l := range listings {
		groups[l.ComparisonKey] = append(groups[l.ComparisonKey], l)
	}

	underbid := d.cfg.UnderbidFraction()

	var flips []model.FlipCandidate
	for _, items := range groups {
		if len(items) < 2 {
			continue
		}

		// Stable: ties keep snapshot order, so repeated runs agree.
		slices.SortStableFunc(items, func(a, b model.DecodedListing) int {
			switch ta, tb := a.TotalPrice(), b.TotalPrice(); {
			case ta < tb:
				return -1
			case ta > tb:
				return 1
			default:
				return 0
			}
		})

		first, second := items[0], items[1]
		cost := first.TotalPrice()
		sell := second.TotalPrice()

		rawProfit := (sell - cost) * (1 - underbid)
		margin := rawProfit / cost

		if margin > d.cfg.ProfitMarginThreshold &&
			rawProfit > d.cfg.MinRawProfit &&
			len(items) >= d.cfg.StockMin {
			flips = append(flips, model.FlipCandidate{
				UUID:          first.UUID,
				OriginalName:  first.DisplayName,
				OriginalPrice: first.StartingBid,
				StackSize:     first.StackCount,
				PricePerUnit:  first.UnitPrice,
				RawProfit:     rawProfit,
				Margin:        margin,
				StockDepth:    len(items),
			})
		}
	}

	// Map iteration order is random; rank best-first and break ties by UUID
	// so a cycle's purchase order is deterministic.
	slices.SortFunc(flips, func(a, b model.FlipCandidate) int {
		switch {
		case a.RawProfit > b.RawProfit:
			return -1
		case a.RawProfit < b.RawProfit:
			return 1
		default:
			return strings.Compare(a.UUID.String(), b.UUID.String())
		}
	})

	d.logger.Debug("flip analysis complete",
		"groups", len(groups),
		"flips", len(flips),
	)

	return flips
}
