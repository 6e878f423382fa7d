// Package claims collects finished auctions and relists purchased items.
//
// Three flows run against the session: sweeping the manage screen for sold
// items, collecting freshly purchased items from the bids screen, and the
// multi-step relist flow that creates a fixed-price listing for each pending
// purchase. Relisting is the only flow with per-item retries; a step failure
// aborts the attempt and restarts from the top.
package claims

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/session"
)

// Slots and items of the auction-management windows.
const (
	slotManageButton = 15 // Auction House -> Manage Auctions
	slotBidsButton   = 13 // Auction House -> Your Bids
	slotBidItem      = 10 // first item on the bids screen
	slotCollect      = 31 // claim button, also the fixed-price mode toggle
	slotConfirmBIN   = 29
	slotCreate       = 11

	itemManageButton = "golden_horse_armor"

	// Lore marker on a sold listing in the manage screen.
	soldLoreMarker = "Sold!"
)

// inventorySlots maps a pending-queue position to the inventory slot the
// purchased item lands in on the create-listing screen.
var inventorySlots = []int{81, 82, 83, 84, 85, 86, 87, 88, 54, 55, 56, 57, 58, 59, 60, 61}

// Manager drives claim and relist flows.
type Manager struct {
	sess   session.Session
	cfg    config.ClaimsConfig
	logger *slog.Logger
}

// New creates a Manager.
func New(sess session.Session, cfg config.ClaimsConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{sess: sess, cfg: cfg, logger: logger}
}

// ClaimSold opens the manage screen and collects every listing whose lore
// carries the sold marker. Returns the number of items claimed.
func (m *Manager) ClaimSold(ctx context.Context) (int, error) {
	m.logger.Debug("checking for sold auctions")

	m.closeAny()

	if err := m.sess.SendCommand("/ah"); err != nil {
		return 0, err
	}
	ah, ok := m.sess.WaitForWindow("Auction House", m.cfg.WindowTimeout)
	if !ok {
		return 0, errWindow("Auction House")
	}
	if err := m.sess.ClickSlot(ah.ID, slotManageButton); err != nil {
		return 0, err
	}

	manage, ok := m.sess.WaitForWindow("Manage Auctions", m.cfg.WindowTimeout)
	if !ok {
		return 0, errWindow("Manage Auctions")
	}

	claimed := 0
	for _, slot := range manage.Slots {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		if !slot.HasLoreContaining(soldLoreMarker) {
			continue
		}

		if err := m.sess.ClickSlot(manage.ID, slot.Index); err != nil {
			return claimed, err
		}
		m.settle()

		view, ok := m.sess.WaitForWindow("BIN", m.cfg.WindowTimeout)
		if !ok {
			continue
		}
		if err := m.sess.ClickSlot(view.ID, slotCollect); err != nil {
			return claimed, err
		}
		claimed++
		m.settle()

		// The claim click drops back to the manage screen; refresh it so the
		// remaining slot indices are current.
		manage, ok = m.sess.WaitForWindow("Manage Auctions", m.cfg.WindowTimeout)
		if !ok {
			break
		}
	}

	m.closeAny()

	if claimed > 0 {
		m.logger.Info("claimed sold items", "count", claimed)
	}
	return claimed, nil
}

// ClaimPurchased collects each pending purchase from the bids screen so it
// lands in the inventory for relisting.
func (m *Manager) ClaimPurchased(ctx context.Context, pending int) {
	for i := 0; i < pending; i++ {
		if ctx.Err() != nil {
			return
		}
		if err := m.claimOnePurchase(); err != nil {
			m.logger.Warn("claim attempt failed", "index", i, "error", err)
		}
	}
}

func (m *Manager) claimOnePurchase() error {
	m.settle()
	if err := m.sess.SendCommand("/ah"); err != nil {
		return err
	}

	ah, ok := m.sess.WaitForWindow("Auction House", m.cfg.WindowTimeout)
	if !ok {
		return errWindow("Auction House")
	}
	if err := m.sess.ClickSlot(ah.ID, slotBidsButton); err != nil {
		return err
	}

	// The bids screen is flaky; retry the wait a few times before giving up.
	bids, ok := m.sess.WaitForWindow("Your Bids", m.cfg.WindowTimeout)
	for retry := 0; retry < m.cfg.NavRetries && !ok; retry++ {
		bids, ok = m.sess.WaitForWindow("Your Bids", m.cfg.WindowTimeout)
	}
	if !ok {
		return errWindow("Your Bids")
	}

	if err := m.sess.ClickSlot(bids.ID, slotBidItem); err != nil {
		return err
	}
	m.settle()

	view, ok := m.sess.WaitForWindow("BIN Auction View", m.cfg.WindowTimeout)
	if !ok {
		return errWindow("BIN Auction View")
	}
	if err := m.sess.ClickSlot(view.ID, slotCollect); err != nil {
		return err
	}
	m.settle()
	return nil
}

// RelistAll creates a fixed-price listing for each pending purchase. Items
// that fail every attempt are returned so they stay pending for a future
// cycle.
func (m *Manager) RelistAll(ctx context.Context, pending []model.PurchaseRecord) []model.PurchaseRecord {
	var failed []model.PurchaseRecord

	for i, rec := range pending {
		if ctx.Err() != nil {
			failed = append(failed, pending[i:]...)
			break
		}

		slot := inventorySlot(i)

		listed := false
		for attempt := 0; attempt < m.cfg.RelistAttempts && !listed; attempt++ {
			if err := m.relistOnce(rec, slot); err != nil {
				m.logger.Warn("relist attempt failed",
					"item", rec.ItemName,
					"attempt", attempt+1,
					"error", err,
				)
				continue
			}
			listed = true
		}

		if listed {
			m.logger.Info("item relisted", "item", rec.ItemName, "price", rec.ListPrice())
		} else {
			m.logger.Error("relist exhausted, keeping item pending", "item", rec.ItemName)
			failed = append(failed, rec)
		}
	}

	return failed
}

// relistOnce runs a single pass of the create-listing flow.
func (m *Manager) relistOnce(rec model.PurchaseRecord, invSlot int) error {
	m.closeAny()

	if err := m.sess.SendCommand("/ah"); err != nil {
		return err
	}
	ah, ok := m.sess.WaitForWindow("Auction House", m.cfg.WindowTimeout)
	if !ok {
		return errWindow("Auction House")
	}
	if err := m.sess.ClickSlot(ah.ID, slotManageButton); err != nil {
		return err
	}
	m.settle()

	// Sometimes the manage screen is skipped and the create screen opens
	// directly (no existing listings).
	create, onCreate := m.sess.WaitForWindow("Create BIN Auction", m.cfg.WindowTimeout)
	if !onCreate {
		manage, ok := m.sess.WaitForWindow("Manage Auctions", m.cfg.WindowTimeout)
		if !ok {
			return errWindow("Manage Auctions")
		}

		idx, found := manage.FindItem(itemManageButton)
		if !found {
			return errWindow("create auction button")
		}
		if err := m.sess.ClickSlot(manage.ID, idx); err != nil {
			return err
		}
		m.settle()

		create, ok = m.sess.WaitForWindow("Create BIN Auction", m.cfg.WindowTimeout)
		if !ok {
			return errWindow("Create BIN Auction")
		}
	}

	// Select the item from the inventory section of the create screen.
	if err := m.sess.ClickSlot(create.ID, invSlot); err != nil {
		return err
	}
	m.settle()

	// Toggle fixed-price mode; this opens the price sign prompt.
	if err := m.sess.ClickSlot(create.ID, slotCollect); err != nil {
		return err
	}

	if err := m.sess.WriteSign(signLines(rec.ListPrice())); err != nil {
		return err
	}
	m.settle()

	if err := m.sess.ClickSlot(create.ID, slotConfirmBIN); err != nil {
		return err
	}
	m.settle()

	if err := m.sess.ClickSlot(create.ID, slotCreate); err != nil {
		return err
	}
	m.settle()

	m.closeAny()
	return nil
}

// signLines fills the price sign prompt. Only the first line is read; the
// rest mirror the prompt's own filler text.
func signLines(price int64) [4]string {
	return [4]string{
		strconv.FormatInt(price, 10),
		"^^^^^^^^^^^^^^^",
		"Your auction",
		"starting bid",
	}
}

// inventorySlot maps a queue position to its inventory slot on the create
// screen, falling back to the first slot past the end of the map.
func inventorySlot(i int) int {
	if i < len(inventorySlots) {
		return inventorySlots[i]
	}
	return inventorySlots[0]
}

func (m *Manager) settle() {
	if m.cfg.SettleDelay > 0 {
		time.Sleep(m.cfg.SettleDelay)
	}
}

func (m *Manager) closeAny() {
	if _, open := m.sess.CurrentWindow(); open {
		m.sess.CloseWindow()
	}
}

type windowError string

func (e windowError) Error() string { return "window did not open: " + string(e) }

func errWindow(name string) error { return windowError(name) }
