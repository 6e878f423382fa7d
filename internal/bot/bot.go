// Package bot runs the flipper control loop.
//
// One cooperative loop owns all mutable state. Bootstrap walks the session
// into the market area with fixed dwell times between phase commands; steady
// state then cycles through ingest, detection, purchasing, claiming and
// relisting. No failure inside a cycle is fatal, the loop always reschedules.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/skyflip/internal/claims"
	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/executor"
	"github.com/rickgao/skyflip/internal/ingest"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/session"
	"github.com/rickgao/skyflip/internal/store"
	"github.com/rickgao/skyflip/internal/timing"
)

// Phase commands and pacing of the bootstrap sequence.
const (
	cmdEnterWorld  = "/play skyblock"
	cmdEnterIsland = "/is"

	// Dwell between bootstrap phases; the server needs time to move the
	// player before the next command registers.
	defaultPhaseDwell = 6 * time.Second

	// Loop quantum. Short enough that the early-poll window is never missed
	// by more than this.
	tickInterval = 250 * time.Millisecond
)

// Deps are the wired components a Bot runs against.
type Deps struct {
	Session   session.Session
	Ingester  *ingest.Ingester
	Predictor *timing.Predictor
	Detector  FlipDetector
	Executor  *executor.Executor
	Claims    *claims.Manager
	Store     *store.Store
	Mirror    *store.LedgerMirror // nil when no database is configured
}

// FlipDetector finds candidates in a decoded snapshot.
type FlipDetector interface {
	Detect(listings []model.DecodedListing) []model.FlipCandidate
}

// Bot is one flipper instance.
type Bot struct {
	cfg    config.BotConfig
	deps   Deps
	logger *slog.Logger

	state      *State
	phaseDwell time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Bot.
func New(cfg config.BotConfig, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		cfg:        cfg,
		deps:       deps,
		logger:     logger,
		state:      NewState(time.Now()),
		phaseDwell: defaultPhaseDwell,
	}
}

// Start begins the control loop.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.run()

	b.logger.Info("flipper started", "instance", b.cfg.Instance.ID)
	return nil
}

// Stop shuts the loop down and saves the store.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := b.deps.Store.Save(); err != nil {
		b.logger.Error("final store save failed", "error", err)
	}

	b.logger.Info("flipper stopped")
	return nil
}

func (b *Bot) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.tick(time.Now())
		}
	}
}

// tick runs one iteration: either a bootstrap phase transition or a steady
// cycle.
func (b *Bot) tick(now time.Time) {
	phase, held := b.state.SessionState(now)

	switch phase {
	case model.StateBootstrapping:
		if held >= b.phaseDwell {
			b.sendPhaseCommand(cmdEnterWorld)
			b.state.Advance(now)
		}

	case model.StateEnteringWorld:
		if held >= b.phaseDwell {
			b.sendPhaseCommand(cmdEnterIsland)
			b.state.Advance(now)
		}

	case model.StateEnteringMarketArea:
		// Do not advance until the purse is readable; a running flipper with
		// an unknown balance would refuse every purchase anyway.
		if held < b.phaseDwell {
			return
		}
		if !b.updatePurse() {
			return
		}
		if _, err := b.deps.Claims.ClaimSold(b.ctx); err != nil {
			b.logger.Warn("initial claim sweep failed", "error", err)
		}
		b.state.MarkClaimed(now)
		b.state.Advance(now)
		b.logger.Info("entering steady state", "purse", b.state.Purse())

	case model.StateSteady:
		b.steadyCycle(now)
	}
}

func (b *Bot) sendPhaseCommand(cmd string) {
	if err := b.deps.Session.SendCommand(cmd); err != nil {
		b.logger.Warn("phase command failed", "command", cmd, "error", err)
		return
	}
	b.logger.Info("phase command sent", "command", cmd)
}

// steadyCycle runs the market loop once.
func (b *Bot) steadyCycle(now time.Time) {
	// Ingest runs in the background so window flows are never starved while
	// the tight-poll burst hammers the freshness endpoint.
	go b.deps.Predictor.MaybeTriggerEarlyPoll(b.ctx, b.state.IngestBusy, b.onSnapshotRefresh)

	snap := b.state.TakeSnapshot()
	if snap == nil {
		return
	}

	decoded := b.deps.Ingester.DecodeAll(b.ctx, snap.Listings)
	b.deps.Store.RecordCycle(now, decoded)

	flips := b.deps.Detector.Detect(decoded)
	b.logger.Info("cycle analysis", "listings", len(decoded), "flips", len(flips))

	b.purchaseAll(flips)

	if now.Sub(b.state.LastClaim()) > b.cfg.Claims.ClaimInterval {
		if _, err := b.deps.Claims.ClaimSold(b.ctx); err != nil {
			b.logger.Warn("claim sweep failed", "error", err)
		}
		b.state.MarkClaimed(now)
	}

	if pending := b.state.Pending(); len(pending) > 0 {
		b.deps.Claims.ClaimPurchased(b.ctx, len(pending))
		failed := b.deps.Claims.RelistAll(b.ctx, pending)
		b.state.SetPending(failed)
	}

	b.updatePurse()
	b.deps.Store.Prune(now)
	if err := b.deps.Store.Save(); err != nil {
		b.logger.Error("store save failed", "error", err)
	}
}

// onSnapshotRefresh fetches the rebuilt snapshot and caches it for the next
// cycle.
func (b *Bot) onSnapshotRefresh(stamp int64) {
	b.state.ingesting.Store(true)
	defer b.state.ingesting.Store(false)

	snap, err := b.deps.Ingester.FetchSnapshot(b.ctx)
	if err != nil {
		b.logger.Warn("snapshot fetch failed", "error", err)
		return
	}

	b.deps.Predictor.Observe(snap.LastUpdated)
	b.state.CacheSnapshot(snap)
}

// purchaseAll attempts candidates best-first, sequentially, re-checking the
// gates before each one.
func (b *Bot) purchaseAll(flips []model.FlipCandidate) {
	for _, flip := range flips {
		if b.ctx.Err() != nil {
			return
		}

		err := executor.CheckGates(flip,
			b.cfg.Flips.Purchasing,
			b.state.Purse(),
			b.state.PendingCount(),
			b.cfg.Flips.MaxPurchases,
		)
		if err != nil {
			b.logger.Debug("skipping candidate", "item", flip.OriginalName, "reason", err)
			continue
		}

		rec, err := b.deps.Executor.Execute(b.ctx, flip)
		if err != nil {
			b.logger.Warn("purchase failed", "item", flip.OriginalName, "error", err)
			continue
		}

		b.state.AppendPending(rec)
		b.state.Spend(rec.ValuePurchased)

		if err := b.deps.Store.AppendPurchase(rec); err != nil {
			b.logger.Error("ledger append failed", "error", err)
		}
		if b.deps.Mirror != nil {
			if err := b.deps.Mirror.Record(b.ctx, rec); err != nil {
				b.logger.Warn("ledger mirror write failed", "error", err)
			}
		}
	}
}

// updatePurse reads the balance off the scoreboard.
func (b *Bot) updatePurse() bool {
	coins, ok := ParsePurse(b.deps.Session.ScoreboardLines())
	if !ok {
		b.logger.Debug("purse not readable from scoreboard")
		return false
	}
	b.state.SetPurse(coins)
	return true
}

// Health is a point-in-time view of the instance for the health endpoint.
type Health struct {
	Instance     string `json:"instance"`
	Phase        string `json:"phase"`
	Purse        int64  `json:"purse"`
	Pending      int    `json:"pending"`
	LastSnapshot int64  `json:"lastSnapshotMillis"`
}

// Health reports the current instance state.
func (b *Bot) Health() Health {
	phase, _ := b.state.SessionState(time.Now())
	return Health{
		Instance:     b.cfg.Instance.ID,
		Phase:        phase.String(),
		Purse:        b.state.Purse(),
		Pending:      b.state.PendingCount(),
		LastSnapshot: b.deps.Predictor.State().LastSnapshotMillis,
	}
}
