package detect

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
)

func listing(key string, price int64, stack int) model.DecodedListing {
	return model.DecodedListing{
		Listing: model.Listing{
			UUID:         uuid.New(),
			DisplayName:  key,
			StartingBid:  price,
			IsFixedPrice: true,
		},
		StackCount:    stack,
		ComparisonKey: key,
		UnitPrice:     float64(price) / float64(stack),
	}
}

func baseConfig() config.FlipConfig {
	return config.FlipConfig{
		ListUnderSecondLBin:   15,
		ProfitMarginThreshold: 0.5,
		MinRawProfit:          500_000,
		StockMin:              2,
	}
}

func TestDetect_EmitsProfitableCandidate(t *testing.T) {
	// 90M vs 150M with a 15% undercut: rawProfit 51M, margin ~0.567.
	d := New(baseConfig(), nil)

	cheap := listing("LEGENDARY Hyperion", 90_000_000, 1)
	flips := d.Detect([]model.DecodedListing{
		cheap,
		listing("LEGENDARY Hyperion", 150_000_000, 1),
	})

	if len(flips) != 1 {
		t.Fatalf("got %d candidates, want 1", len(flips))
	}

	f := flips[0]
	if f.UUID != cheap.UUID {
		t.Error("candidate should target the cheapest listing")
	}
	if f.RawProfit != 51_000_000 {
		t.Errorf("RawProfit = %v, want 51000000", f.RawProfit)
	}
	if f.Margin < 0.566 || f.Margin > 0.567 {
		t.Errorf("Margin = %v, want ~0.5667", f.Margin)
	}
	if f.StockDepth != 2 {
		t.Errorf("StockDepth = %d, want 2", f.StockDepth)
	}
}

func TestDetect_StockMinimumGate(t *testing.T) {
	cfg := baseConfig()
	cfg.StockMin = 3
	d := New(cfg, nil)

	flips := d.Detect([]model.DecodedListing{
		listing("LEGENDARY Hyperion", 90_000_000, 1),
		listing("LEGENDARY Hyperion", 150_000_000, 1),
	})
	if len(flips) != 0 {
		t.Fatalf("group of 2 must not pass stock_min 3, got %d candidates", len(flips))
	}

	// Depth exactly at the minimum is inclusive.
	flips = d.Detect([]model.DecodedListing{
		listing("LEGENDARY Hyperion", 90_000_000, 1),
		listing("LEGENDARY Hyperion", 150_000_000, 1),
		listing("LEGENDARY Hyperion", 160_000_000, 1),
	})
	if len(flips) != 1 {
		t.Fatalf("group of 3 should pass stock_min 3, got %d candidates", len(flips))
	}
}

func TestDetect_SingletonGroupsDiscarded(t *testing.T) {
	d := New(baseConfig(), nil)

	flips := d.Detect([]model.DecodedListing{
		listing("LEGENDARY Hyperion", 1, 1),
	})
	if len(flips) != 0 {
		t.Errorf("singleton group produced %d candidates", len(flips))
	}
}

func TestDetect_ThresholdsAreStrict(t *testing.T) {
	// Arrange margin exactly at the threshold: cost 1,000,000 and
	// sell 4,000,000 with 50% undercut gives rawProfit 1,500,000 and margin
	// exactly 1.5.
	cfg := config.FlipConfig{
		ListUnderSecondLBin:   50,
		ProfitMarginThreshold: 1.5,
		MinRawProfit:          1_500_000,
		StockMin:              2,
	}
	d := New(cfg, nil)

	group := []model.DecodedListing{
		listing("EPIC Widget", 1_000_000, 1),
		listing("EPIC Widget", 4_000_000, 1),
	}
	if flips := d.Detect(group); len(flips) != 0 {
		t.Fatalf("margin and profit exactly at threshold must not emit, got %d", len(flips))
	}

	// One coin above the threshold flips both strict comparisons.
	cfg.ProfitMarginThreshold = 1.4999
	cfg.MinRawProfit = 1_499_999
	d = New(cfg, nil)
	if flips := d.Detect(group); len(flips) != 1 {
		t.Fatalf("values above threshold should emit, got %d", len(flips))
	}
}

func TestDetect_OnlyTwoCheapestConsidered(t *testing.T) {
	d := New(baseConfig(), nil)

	base := []model.DecodedListing{
		listing("LEGENDARY Hyperion", 90_000_000, 1),
		listing("LEGENDARY Hyperion", 150_000_000, 1),
	}
	withTail := append(append([]model.DecodedListing(nil), base...),
		listing("LEGENDARY Hyperion", 900_000_000, 1),
		listing("LEGENDARY Hyperion", 1_200_000_000, 1),
	)

	a := d.Detect(base)
	b := d.Detect(withTail)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("got %d and %d candidates, want 1 and 1", len(a), len(b))
	}
	if a[0].RawProfit != b[0].RawProfit || a[0].Margin != b[0].Margin {
		t.Errorf("3rd+ cheapest listings changed the candidate: %+v vs %+v", a[0], b[0])
	}
	if b[0].StockDepth != 4 {
		t.Errorf("StockDepth = %d, want 4 (depth still counts the tail)", b[0].StockDepth)
	}
}

func TestDetect_StackSizeUsesTotalPrice(t *testing.T) {
	d := New(baseConfig(), nil)

	// A 64-stack at 64M total is cheaper per listing than a single at 100M.
	stack := listing("EPIC Enchanted Gold", 64_000_000, 64)
	single := listing("EPIC Enchanted Gold", 160_000_000, 1)

	flips := d.Detect([]model.DecodedListing{single, stack})
	if len(flips) != 1 {
		t.Fatalf("got %d candidates, want 1", len(flips))
	}
	if flips[0].UUID != stack.UUID {
		t.Error("cheapest by total price should be the stack listing")
	}
	if flips[0].StackSize != 64 {
		t.Errorf("StackSize = %d, want 64", flips[0].StackSize)
	}
}

func TestDetect_DeterministicOrdering(t *testing.T) {
	d := New(baseConfig(), nil)

	input := []model.DecodedListing{
		listing("LEGENDARY Hyperion", 90_000_000, 1),
		listing("LEGENDARY Hyperion", 150_000_000, 1),
		listing("MYTHIC Terminator", 50_000_000, 1),
		listing("MYTHIC Terminator", 200_000_000, 1),
	}

	first := d.Detect(input)
	for i := 0; i < 10; i++ {
		again := d.Detect(input)
		if len(again) != len(first) {
			t.Fatalf("candidate count changed between runs")
		}
		for j := range again {
			if again[j].UUID != first[j].UUID {
				t.Fatalf("candidate order changed between runs")
			}
		}
	}

	// Best profit first.
	if first[0].OriginalName != "MYTHIC Terminator" {
		t.Errorf("first candidate = %q, want the higher-profit group", first[0].OriginalName)
	}
}
