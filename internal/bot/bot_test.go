package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/skyflip/internal/api"
	"github.com/rickgao/skyflip/internal/claims"
	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/executor"
	"github.com/rickgao/skyflip/internal/ingest"
	"github.com/rickgao/skyflip/internal/model"
	"github.com/rickgao/skyflip/internal/normalize"
	"github.com/rickgao/skyflip/internal/session"
	"github.com/rickgao/skyflip/internal/store"
	"github.com/rickgao/skyflip/internal/timing"
)

// fakeSession supports the bootstrap commands and the purchase flow. Claim
// navigation intentionally dead-ends so failure tolerance is exercised.
type fakeSession struct {
	mu         sync.Mutex
	commands   []string
	scoreboard []string
	current    *session.Window
}

func (f *fakeSession) SendCommand(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, text)

	if strings.HasPrefix(text, "/viewauction ") {
		f.current = &session.Window{
			ID:    1,
			Title: "BIN Auction View",
			Slots: []session.Slot{{Index: 31, Name: "gold_nugget"}},
		}
	}
	return nil
}

func (f *fakeSession) ClickSlot(windowID, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if windowID == 1 && slot == 31 {
		f.current = &session.Window{
			ID:    2,
			Title: "Confirm Purchase",
			Slots: []session.Slot{{Index: 11, Name: "stained_hardened_clay"}},
		}
	}
	return nil
}

func (f *fakeSession) CloseWindow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if substring == "Visit the" {
		return "You claimed it! Visit the Auction House.", true
	}
	return "", false
}

func (f *fakeSession) ScoreboardLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scoreboard
}

func (f *fakeSession) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// fixedDetector returns a canned candidate list.
type fixedDetector struct {
	flips []model.FlipCandidate
}

func (d *fixedDetector) Detect([]model.DecodedListing) []model.FlipCandidate {
	return d.flips
}

// stuckFreshness never reports a rebuild, keeping the early-poll trigger
// inert during cycle tests.
type stuckFreshness struct{}

func (stuckFreshness) GetFreshness(ctx context.Context) (int64, error) { return 0, nil }

func testBot(t *testing.T, sess *fakeSession, det FlipDetector) *Bot {
	t.Helper()

	cfg := config.Default()
	cfg.Instance.ID = "test-1"
	cfg.Store.HistoryFile = filepath.Join(t.TempDir(), "prices.json")
	cfg.Store.LedgerFile = filepath.Join(t.TempDir(), "ledger.json")
	cfg.Purchase.PollQuantum = time.Millisecond
	cfg.Purchase.ViewTimeout = 100 * time.Millisecond
	cfg.Purchase.ConfirmTimeout = 100 * time.Millisecond
	cfg.Purchase.ChatTimeout = 100 * time.Millisecond
	cfg.Claims.WindowTimeout = 10 * time.Millisecond
	cfg.Claims.SettleDelay = 0
	cfg.Timing.SpamAttempts = 1

	st, err := store.Open(cfg.Store, nil)
	if err != nil {
		t.Fatal(err)
	}

	norm := normalize.New(cfg.Normalize)
	ing := ingest.New(api.NewClient("http://unused.invalid"), norm, cfg.API, cfg.Flips, nil)

	b := New(cfg, Deps{
		Session:   sess,
		Ingester:  ing,
		Predictor: timing.New(stuckFreshness{}, cfg.Timing, nil),
		Detector:  det,
		Executor:  executor.New(sess, cfg.Purchase, nil),
		Claims:    claims.New(sess, cfg.Claims, nil),
		Store:     st,
	}, nil)
	b.ctx, b.cancel = context.WithCancel(context.Background())
	t.Cleanup(b.cancel)
	return b
}

func TestBootstrapSequence(t *testing.T) {
	sess := &fakeSession{scoreboard: []string{"Purse: 1,000,000"}}
	b := testBot(t, sess, &fixedDetector{})
	b.phaseDwell = 0

	now := time.Now()

	// Tick 1: world command.
	b.tick(now)
	if phase, _ := b.state.SessionState(now); phase != model.StateEnteringWorld {
		t.Fatalf("phase = %v after first tick", phase)
	}

	// Tick 2: island command.
	b.tick(now)
	// Tick 3: purse read, initial claim sweep, steady.
	b.tick(now)

	if phase, _ := b.state.SessionState(now); phase != model.StateSteady {
		t.Fatalf("phase = %v, want steady", phase)
	}
	if b.state.Purse() != 1_000_000 {
		t.Errorf("purse = %d, want 1000000", b.state.Purse())
	}

	cmds := sess.sentCommands()
	if len(cmds) < 2 || cmds[0] != cmdEnterWorld || cmds[1] != cmdEnterIsland {
		t.Errorf("commands = %v, want world then island first", cmds)
	}
}

func TestBootstrapWaitsForPurse(t *testing.T) {
	sess := &fakeSession{} // no scoreboard yet
	b := testBot(t, sess, &fixedDetector{})
	b.phaseDwell = 0

	now := time.Now()
	b.tick(now)
	b.tick(now)

	// Market-area phase must hold until the purse is readable.
	for i := 0; i < 3; i++ {
		b.tick(now)
	}
	if phase, _ := b.state.SessionState(now); phase != model.StateEnteringMarketArea {
		t.Fatalf("phase = %v, want to hold in entering_market_area", phase)
	}

	sess.mu.Lock()
	sess.scoreboard = []string{"Purse: 500"}
	sess.mu.Unlock()

	b.tick(now)
	if phase, _ := b.state.SessionState(now); phase != model.StateSteady {
		t.Fatalf("phase = %v, want steady once purse is readable", phase)
	}
}

func TestSteadyCyclePurchasesAndKeepsFailedRelistsPending(t *testing.T) {
	sess := &fakeSession{scoreboard: []string{"Purse: 200,000,000"}}
	flip := model.FlipCandidate{
		UUID:          uuid.New(),
		OriginalName:  "Hyperion",
		OriginalPrice: 90_000_000,
		RawProfit:     51_000_000,
	}
	b := testBot(t, sess, &fixedDetector{flips: []model.FlipCandidate{flip}})

	// Jump straight to steady with a known purse and a cached snapshot.
	for b.state.sessionState != model.StateSteady {
		b.state.Advance(time.Now())
	}
	b.state.SetPurse(200_000_000)
	b.state.MarkClaimed(time.Now())
	b.state.CacheSnapshot(&ingest.Snapshot{LastUpdated: 1})

	b.tick(time.Now())

	// Purchase went through and was spent locally before the scoreboard
	// refresh put the true balance back.
	ledger := b.deps.Store.Ledger()
	if len(ledger) != 1 || ledger[0].ItemName != "Hyperion" {
		t.Fatalf("ledger = %v, want the Hyperion purchase", ledger)
	}

	// Relisting dead-ends against this fake, so the record stays pending.
	if got := b.state.PendingCount(); got != 1 {
		t.Errorf("pending = %d, want 1 after failed relist", got)
	}
}

func TestSteadyCycleRespectsPurseGate(t *testing.T) {
	sess := &fakeSession{scoreboard: []string{"Purse: 1,000"}}
	flip := model.FlipCandidate{
		UUID:          uuid.New(),
		OriginalName:  "Hyperion",
		OriginalPrice: 90_000_000,
	}
	b := testBot(t, sess, &fixedDetector{flips: []model.FlipCandidate{flip}})

	for b.state.sessionState != model.StateSteady {
		b.state.Advance(time.Now())
	}
	b.state.SetPurse(1_000)
	b.state.MarkClaimed(time.Now())
	b.state.CacheSnapshot(&ingest.Snapshot{LastUpdated: 1})

	b.tick(time.Now())

	if len(b.deps.Store.Ledger()) != 0 {
		t.Error("purchase should have been gated by the purse")
	}
	for _, cmd := range sess.sentCommands() {
		if strings.HasPrefix(cmd, "/viewauction") {
			t.Errorf("view command sent despite gate: %v", cmd)
		}
	}
}

func TestHealthSnapshot(t *testing.T) {
	sess := &fakeSession{}
	b := testBot(t, sess, &fixedDetector{})
	b.state.SetPurse(42)

	h := b.Health()
	if h.Instance != "test-1" || h.Purse != 42 || h.Phase != "bootstrapping" {
		t.Errorf("health = %+v", h)
	}
}
