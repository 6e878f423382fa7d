package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
)

// PricePoint is one observed market price for a comparison key.
type PricePoint struct {
	Time      time.Time `json:"time"`
	UnitPrice float64   `json:"unitPrice"`
}

// Store is the on-disk persistence layer.
type Store struct {
	cfg    config.StoreConfig
	logger *slog.Logger

	mu      sync.Mutex
	history map[string][]PricePoint
	ledger  []model.PurchaseRecord
}

// Open loads the history and ledger files. Missing files start empty;
// unreadable files are an error so a corrupt ledger is never silently
// truncated.
func Open(cfg config.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		cfg:     cfg,
		logger:  logger,
		history: make(map[string][]PricePoint),
	}

	if err := loadJSON(cfg.HistoryFile, &s.history); err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	if err := loadJSON(cfg.LedgerFile, &s.ledger); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	logger.Info("store opened",
		"history_keys", len(s.history),
		"ledger_entries", len(s.ledger),
	)

	return s, nil
}

// RecordCycle appends the cheapest observed unit price per comparison key for
// one ingestion cycle, then prunes points outside the retention window.
func (s *Store) RecordCycle(at time.Time, listings []model.DecodedListing) {
	cheapest := make(map[string]float64)
	for _, l := range listings {
		if l.ComparisonKey == "" {
			continue
		}
		if cur, ok := cheapest[l.ComparisonKey]; !ok || l.UnitPrice < cur {
			cheapest[l.ComparisonKey] = l.UnitPrice
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, price := range cheapest {
		s.history[key] = append(s.history[key], PricePoint{Time: at, UnitPrice: price})
	}

	s.pruneLocked(at)
}

// History returns the recorded points for a comparison key, oldest first.
func (s *Store) History(key string) []PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PricePoint(nil), s.history[key]...)
}

// AppendPurchase appends a confirmed purchase to the ledger and saves.
func (s *Store) AppendPurchase(rec model.PurchaseRecord) error {
	s.mu.Lock()
	s.ledger = append(s.ledger, rec)
	s.mu.Unlock()

	return s.Save()
}

// Ledger returns the purchase records, most recent first.
func (s *Store) Ledger() []model.PurchaseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]model.PurchaseRecord(nil), s.ledger...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimePurchased.After(out[j].TimePurchased)
	})
	return out
}

// Prune drops history points older than the retention window.
func (s *Store) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
}

func (s *Store) pruneLocked(now time.Time) {
	if s.cfg.Retention <= 0 {
		return
	}
	cutoff := now.Add(-s.cfg.Retention)

	for key, points := range s.history {
		kept := points[:0]
		for _, p := range points {
			if p.Time.After(cutoff) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(s.history, key)
			continue
		}
		s.history[key] = kept
	}
}

// Save writes both files. Writes go through a temp file and rename so a
// crash mid-write never leaves a half-written ledger.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The ledger file is kept sorted most-recent-first.
	sort.SliceStable(s.ledger, func(i, j int) bool {
		return s.ledger[i].TimePurchased.After(s.ledger[j].TimePurchased)
	})

	if err := saveJSON(s.cfg.HistoryFile, s.history); err != nil {
		return fmt.Errorf("save price history: %w", err)
	}
	if err := saveJSON(s.cfg.LedgerFile, s.ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func loadJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func saveJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
