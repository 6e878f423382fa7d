package bot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/skyflip/internal/ingest"
	"github.com/rickgao/skyflip/internal/model"
)

// State is the mutable context of one flipper instance, threaded through the
// control loop. Everything the loop mutates lives here.
type State struct {
	mu           sync.Mutex
	purse        int64
	pending      []model.PurchaseRecord
	sessionState model.SessionState
	stateSince   time.Time
	lastClaim    time.Time
	snapshot     *ingest.Snapshot

	ingesting atomic.Bool
}

// NewState creates a State in the bootstrapping phase.
func NewState(now time.Time) *State {
	return &State{
		sessionState: model.StateBootstrapping,
		stateSince:   now,
	}
}

// Purse returns the last known purse balance.
func (s *State) Purse() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purse
}

// SetPurse replaces the purse balance.
func (s *State) SetPurse(coins int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purse = coins
}

// Spend decrements the purse locally so back-to-back purchases in one cycle
// see the money already gone, without waiting for a scoreboard refresh.
func (s *State) Spend(coins int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purse -= coins
}

// Pending returns a copy of the pending relist queue.
func (s *State) Pending() []model.PurchaseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PurchaseRecord(nil), s.pending...)
}

// PendingCount returns the pending queue length.
func (s *State) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// AppendPending adds a confirmed purchase to the pending queue, keeping it
// ordered by purchase time so queue position maps to inventory slot.
func (s *State) AppendPending(rec model.PurchaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, rec)
}

// SetPending replaces the pending queue, typically with the relist failures.
func (s *State) SetPending(pending []model.PurchaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = pending
}

// SessionState returns the current phase and how long it has been held.
func (s *State) SessionState(now time.Time) (model.SessionState, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionState, now.Sub(s.stateSince)
}

// Advance moves to the next phase. Steady is terminal.
func (s *State) Advance(now time.Time) model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionState = s.sessionState.Next()
	s.stateSince = now
	return s.sessionState
}

// LastClaim returns the time of the last sold-item sweep.
func (s *State) LastClaim() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClaim
}

// MarkClaimed records a completed sold-item sweep.
func (s *State) MarkClaimed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastClaim = now
}

// CacheSnapshot stores a fetched snapshot for the next cycle to consume.
func (s *State) CacheSnapshot(snap *ingest.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// TakeSnapshot returns and clears the cached snapshot.
func (s *State) TakeSnapshot() *ingest.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	s.snapshot = nil
	return snap
}

// IngestBusy reports whether a fetch is in flight or an unconsumed snapshot
// is cached. The early-poll trigger stays quiet while this holds.
func (s *State) IngestBusy() bool {
	if s.ingesting.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot != nil
}
