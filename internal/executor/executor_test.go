package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/session"
)

// fakeSession scripts the window progression of a purchase flow.
type fakeSession struct {
	mu       sync.Mutex
	current  *session.Window
	commands []string
	clicks   [][2]int // windowID, slot
	closes   int

	buySlotItem    string // item in the view window's buy slot
	noConfirmOpen  bool   // confirm window never opens after the buy click
	chatConfirms   bool   // the confirmation chat line arrives
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		buySlotItem:  itemBuyNugget,
		chatConfirms: true,
	}
}

func (f *fakeSession) SendCommand(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, text)

	if strings.HasPrefix(text, "/viewauction ") {
		f.current = &session.Window{
			ID:    1,
			Title: "BIN Auction View",
			Slots: []session.Slot{{Index: buySlot, Name: f.buySlotItem}},
		}
	}
	return nil
}

func (f *fakeSession) ClickSlot(windowID, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, [2]int{windowID, slot})

	if windowID == 1 && slot == buySlot && !f.noConfirmOpen {
		f.current = &session.Window{
			ID:    2,
			Title: "Confirm Purchase",
			Slots: []session.Slot{{Index: confirmSlot, Name: itemConfirmPane}},
		}
	}
	return nil
}

func (f *fakeSession) CloseWindow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.current = nil
	return nil
}

func (f *fakeSession) WriteSign(lines [4]string) error { return nil }

func (f *fakeSession) CurrentWindow() (session.Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return session.Window{}, false
	}
	return *f.current, true
}

func (f *fakeSession) WaitForWindow(titleSubstring string, timeout time.Duration) (session.Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil && strings.Contains(f.current.Title, titleSubstring) {
		return *f.current, true
	}
	return session.Window{}, false
}

func (f *fakeSession) WaitForChatContaining(substring string, timeout time.Duration) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chatConfirms && substring == chatConfirmMarker {
		return "You claimed it! Visit the Auction House to collect.", true
	}
	return "", false
}

func (f *fakeSession) ScoreboardLines() []string { return nil }

func fastPurchaseConfig() config.PurchaseConfig {
	return config.PurchaseConfig{
		ViewTimeout:    200 * time.Millisecond,
		ConfirmTimeout: 200 * time.Millisecond,
		ChatTimeout:    200 * time.Millisecond,
		PollQuantum:    time.Millisecond,
	}
}

func candidate() model.FlipCandidate {
	return model.FlipCandidate{
		UUID:          uuid.New(),
		OriginalName:  "Hyperion",
		OriginalPrice: 90_000_000,
		RawProfit:     51_000_000,
		Margin:        0.5667,
	}
}

func TestExecute_HappyPath(t *testing.T) {
	sess := newFakeSession()
	e := New(sess, fastPurchaseConfig(), nil)

	cand := candidate()
	rec, err := e.Execute(context.Background(), cand)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if rec.ItemName != "Hyperion" || rec.ValuePurchased != 90_000_000 {
		t.Errorf("record = %+v", rec)
	}
	if rec.ProjectedSaleValue != 141_000_000 {
		t.Errorf("ProjectedSaleValue = %v, want cost + raw profit", rec.ProjectedSaleValue)
	}
	if rec.TimePurchased.IsZero() {
		t.Error("TimePurchased not set")
	}

	if len(sess.commands) != 1 || sess.commands[0] != "/viewauction "+cand.CommandID() {
		t.Errorf("commands = %v", sess.commands)
	}
	want := [][2]int{{1, buySlot}, {2, confirmSlot}}
	if len(sess.clicks) != 2 || sess.clicks[0] != want[0] || sess.clicks[1] != want[1] {
		t.Errorf("clicks = %v, want %v", sess.clicks, want)
	}
}

func TestExecute_WrongBuySlotItem(t *testing.T) {
	sess := newFakeSession()
	sess.buySlotItem = "potato" // listing already sold, placeholder rendered
	e := New(sess, fastPurchaseConfig(), nil)

	_, err := e.Execute(context.Background(), candidate())
	if !errors.Is(err, session.ErrUnexpectedContent) {
		t.Fatalf("err = %v, want ErrUnexpectedContent", err)
	}
	if len(sess.clicks) != 0 {
		t.Errorf("clicked %v on a wrong item", sess.clicks)
	}
	if sess.closes == 0 {
		t.Error("aborted flow should close the window")
	}
}

func TestExecute_ConfirmWindowNeverOpens(t *testing.T) {
	sess := newFakeSession()
	sess.noConfirmOpen = true
	e := New(sess, fastPurchaseConfig(), nil)

	_, err := e.Execute(context.Background(), candidate())
	if err == nil {
		t.Fatal("missing confirm window must fail the purchase")
	}
	// Only the buy click happened.
	if len(sess.clicks) != 1 {
		t.Errorf("clicks = %v, want only the buy click", sess.clicks)
	}
}

func TestExecute_NoChatConfirmationIsFailure(t *testing.T) {
	sess := newFakeSession()
	sess.chatConfirms = false
	e := New(sess, fastPurchaseConfig(), nil)

	_, err := e.Execute(context.Background(), candidate())
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
}

func TestExecute_ClosesStaleWindow(t *testing.T) {
	sess := newFakeSession()
	sess.current = &session.Window{ID: 9, Title: "Auction House"}
	e := New(sess, fastPurchaseConfig(), nil)

	if _, err := e.Execute(context.Background(), candidate()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if sess.closes == 0 {
		t.Error("stale window should have been closed before the flow")
	}
}

func TestExecute_ContextCancellation(t *testing.T) {
	sess := newFakeSession()
	sess.buySlotItem = "" // buy slot never renders, flow would poll forever
	cfg := fastPurchaseConfig()
	cfg.ViewTimeout = time.Minute
	e := New(sess, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := e.Execute(ctx, candidate())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCheckGates(t *testing.T) {
	cand := candidate()

	tests := []struct {
		name    string
		enabled bool
		purse   int64
		pending int
		max     int
		wantErr error
	}{
		{"all clear", true, 100_000_000, 0, 10, nil},
		{"disabled", false, 100_000_000, 0, 10, ErrPurchasingDisabled},
		{"purse short", true, 89_999_999, 0, 10, ErrInsufficientPurse},
		{"purse exact", true, 90_000_000, 0, 10, nil},
		{"queue full", true, 100_000_000, 10, 10, ErrQueueFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckGates(cand, tt.enabled, tt.purse, tt.pending, tt.max)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
