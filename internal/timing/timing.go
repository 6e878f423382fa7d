// Package timing predicts when the remote market snapshot rebuilds.
//
// The snapshot regenerates on a fixed cycle. Rather than polling blindly, the
// predictor calibrates once against an observed rebuild, then schedules a
// short tight-polling burst just before each predicted rebuild so a fresh
// snapshot is ingested seconds after it exists.
package timing

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
)

// FreshnessSource reports the epoch-ms build stamp of the current snapshot.
type FreshnessSource interface {
	GetFreshness(ctx context.Context) (int64, error)
}

// Predictor tracks the snapshot rebuild cadence.
type Predictor struct {
	source FreshnessSource
	cfg    config.TimingConfig
	logger *slog.Logger

	mu    sync.Mutex
	state model.TimingState

	// Only one tight-poll burst runs at a time.
	polling atomic.Bool
}

// New creates a Predictor.
func New(source FreshnessSource, cfg config.TimingConfig, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{
		source: source,
		cfg:    cfg,
		logger: logger,
	}
}

// State returns a copy of the current timing state.
func (p *Predictor) State() model.TimingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Observe records a snapshot build stamp seen during normal ingestion.
// Older stamps are ignored.
func (p *Predictor) Observe(lastUpdatedMillis int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lastUpdatedMillis > p.state.LastSnapshotMillis {
		p.state.LastSnapshotMillis = lastUpdatedMillis
	}
}

// Calibrate polls the freshness stamp until it observes a rebuild, anchoring
// the prediction to a known rebuild instant. Calibration is best-effort: if
// the attempt budget runs out the predictor falls back to the stamp of
// whatever snapshot is current, which self-corrects within one cycle.
func (p *Predictor) Calibrate(ctx context.Context) error {
	baseline, err := p.source.GetFreshness(ctx)
	if err != nil {
		return err
	}
	p.Observe(baseline)

	p.logger.Info("calibrating refresh prediction",
		"baseline", baseline,
		"attempts", p.cfg.CalibrateAttempts,
		"interval", p.cfg.CalibrateInterval,
	)

	for attempt := 0; attempt < p.cfg.CalibrateAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.CalibrateInterval):
		}

		stamp, err := p.source.GetFreshness(ctx)
		if err != nil {
			p.logger.Debug("calibration poll failed", "attempt", attempt, "error", err)
			continue
		}

		if stamp > baseline {
			latency := time.Since(msToTime(stamp))
			p.mu.Lock()
			p.state.LastSnapshotMillis = stamp
			p.state.ObservedLatency = latency
			p.mu.Unlock()

			p.logger.Info("calibrated",
				"last_snapshot", stamp,
				"observed_latency", latency,
			)
			return nil
		}
	}

	p.logger.Warn("calibration budget exhausted, using baseline stamp", "baseline", baseline)
	return nil
}

// PredictNextRefresh returns the instant the next snapshot rebuild is
// expected to be observable.
func (p *Predictor) PredictNextRefresh() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return msToTime(p.state.LastSnapshotMillis).Add(p.cfg.RefreshCycle + p.state.ObservedLatency)
}

// InEarlyPollWindow reports whether now is close enough to the predicted
// rebuild to start tight polling. A prediction already in the past also
// qualifies; the burst then resynchronizes the anchor.
func (p *Predictor) InEarlyPollWindow(now time.Time) bool {
	return p.PredictNextRefresh().Sub(now) <= p.cfg.EarlyPollWindow
}

// MaybeTriggerEarlyPoll runs one tight-poll burst when the early-poll window
// is open and nothing else is mid-cycle. onRefresh fires with the new build
// stamp once the rebuild lands. At most one burst runs at a time.
func (p *Predictor) MaybeTriggerEarlyPoll(ctx context.Context, busy func() bool, onRefresh func(int64)) {
	if !p.InEarlyPollWindow(time.Now()) {
		return
	}
	if busy != nil && busy() {
		return
	}
	if !p.polling.CompareAndSwap(false, true) {
		return
	}
	defer p.polling.Store(false)

	if stamp, ok := p.tightPoll(ctx); ok {
		onRefresh(stamp)
	}
}

// tightPoll hammers the freshness endpoint until the stamp advances or the
// attempt budget runs out.
func (p *Predictor) tightPoll(ctx context.Context) (int64, bool) {
	p.mu.Lock()
	anchor := p.state.LastSnapshotMillis
	p.mu.Unlock()

	for attempt := 0; attempt < p.cfg.SpamAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}

		stamp, err := p.source.GetFreshness(ctx)
		if err != nil {
			p.logger.Debug("tight poll failed", "attempt", attempt, "error", err)
			continue
		}

		if stamp > anchor {
			latency := time.Since(msToTime(stamp))
			p.mu.Lock()
			p.state.LastSnapshotMillis = stamp
			p.state.ObservedLatency = latency
			p.mu.Unlock()

			p.logger.Debug("snapshot rebuild detected",
				"stamp", stamp,
				"attempts_used", attempt+1,
				"observed_latency", latency,
			)
			return stamp, true
		}
	}

	p.logger.Warn("tight poll budget exhausted without a rebuild", "attempts", p.cfg.SpamAttempts)
	return 0, false
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
