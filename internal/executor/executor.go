// Package executor drives the in-game purchase flow for flip candidates.
//
// Purchases are strictly sequential. Each candidate runs one pass through
// view listing, buy, confirm, and waits for the chat confirmation line
// before the purchase counts. A purchase that navigates every window but
// never sees the confirmation is treated as failed and nothing is recorded.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/session"
)

// Window slots and item names of the purchase flow. The buy affordance
// renders as a gold nugget, or a bed while the listing is still in its
// grace period.
const (
	buySlot     = 31
	confirmSlot = 11

	itemBuyNugget   = "gold_nugget"
	itemBuyBed      = "bed"
	itemConfirmPane = "stained_hardened_clay"

	// Substring of the server chat line that confirms a completed purchase.
	chatConfirmMarker = "Visit the"
)

// Gate errors. These are expected flow control, not failures.
var (
	ErrPurchasingDisabled = errors.New("purchasing disabled")
	ErrInsufficientPurse  = errors.New("insufficient purse")
	ErrQueueFull          = errors.New("pending relist queue full")
	ErrNotConfirmed       = errors.New("purchase not confirmed by chat")
)

// Executor runs purchase flows against a live session.
type Executor struct {
	sess   session.Session
	cfg    config.PurchaseConfig
	logger *slog.Logger
}

// New creates an Executor.
func New(sess session.Session, cfg config.PurchaseConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{sess: sess, cfg: cfg, logger: logger}
}

// CheckGates reports whether a candidate may be purchased right now.
func CheckGates(cand model.FlipCandidate, enabled bool, purse int64, pending, maxPending int) error {
	if !enabled {
		return ErrPurchasingDisabled
	}
	if purse < cand.OriginalPrice {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientPurse, purse, cand.OriginalPrice)
	}
	if pending >= maxPending {
		return fmt.Errorf("%w: %d pending", ErrQueueFull, pending)
	}
	return nil
}

// Execute runs one purchase attempt. On success the returned record carries
// the purchase price and the projected relist value.
func (e *Executor) Execute(ctx context.Context, cand model.FlipCandidate) (model.PurchaseRecord, error) {
	e.logger.Info("attempting purchase",
		"item", cand.OriginalName,
		"price", cand.OriginalPrice,
		"raw_profit", cand.RawProfit,
	)

	// A stale window from a previous flow would swallow the clicks.
	if _, open := e.sess.CurrentWindow(); open {
		e.sess.CloseWindow()
	}

	if err := e.sess.SendCommand("/viewauction " + cand.CommandID()); err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("view auction: %w", err)
	}

	view, err := e.awaitItem(ctx, "BIN", buySlot, e.cfg.ViewTimeout, itemBuyNugget, itemBuyBed)
	if err != nil {
		e.abort()
		return model.PurchaseRecord{}, fmt.Errorf("buy affordance: %w", err)
	}
	if err := e.sess.ClickSlot(view.ID, buySlot); err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("click buy: %w", err)
	}

	confirm, err := e.awaitItem(ctx, "Confirm", confirmSlot, e.cfg.ConfirmTimeout, itemConfirmPane)
	if err != nil {
		e.abort()
		return model.PurchaseRecord{}, fmt.Errorf("confirm dialog: %w", err)
	}
	if err := e.sess.ClickSlot(confirm.ID, confirmSlot); err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("click confirm: %w", err)
	}

	// Only the chat line proves the purchase went through. Clicks can land on
	// an already-sold listing without any window-level failure.
	if _, ok := e.sess.WaitForChatContaining(chatConfirmMarker, e.cfg.ChatTimeout); !ok {
		e.abort()
		return model.PurchaseRecord{}, ErrNotConfirmed
	}

	rec := model.PurchaseRecord{
		TimePurchased:      time.Now(),
		ValuePurchased:     cand.OriginalPrice,
		ProjectedSaleValue: cand.RawProfit + float64(cand.OriginalPrice),
		ItemName:           cand.OriginalName,
	}

	e.logger.Info("purchase confirmed",
		"item", rec.ItemName,
		"price", rec.ValuePurchased,
		"projected_sale", rec.ProjectedSaleValue,
	)

	return rec, nil
}

// awaitItem polls the current window until it matches the title and holds one
// of the wanted items in the slot. Empty slots keep polling (content may not
// have rendered); a populated slot with the wrong item aborts immediately,
// since the window will not change under us.
func (e *Executor) awaitItem(ctx context.Context, titleSub string, slot int, timeout time.Duration, wanted ...string) (session.Window, error) {
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return session.Window{}, err
		}

		if w, open := e.sess.CurrentWindow(); open && w.HasTitle(titleSub) {
			_, err := w.ExpectItem(slot, wanted...)
			if err == nil {
				return w, nil
			}
			if errors.Is(err, session.ErrUnexpectedContent) {
				return session.Window{}, err
			}
		}

		if time.Now().After(deadline) {
			return session.Window{}, fmt.Errorf("window %q slot %d: timed out after %s", titleSub, slot, timeout)
		}

		time.Sleep(e.cfg.PollQuantum)
	}
}

func (e *Executor) abort() {
	if _, open := e.sess.CurrentWindow(); open {
		e.sess.CloseWindow()
	}
}
