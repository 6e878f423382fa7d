package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the WebSocket gateway implementation of Session.
type Client struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	connected  bool
	closed     bool
	lastPingAt time.Time
	current    *Window
	scoreboard []string

	// One-shot waiters, keyed for removal
	waitMu   sync.Mutex
	nextWait int64
	waiters  map[int64]*waiter

	errors chan error
	done   chan struct{}
}

// waiter resolves at most once. The result channel is buffered so dispatch
// never blocks on a caller that has already timed out.
type waiter struct {
	match  func(Event) (any, bool)
	result chan any
}

var _ Session = (*Client)(nil)

// NewClient creates a gateway client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		logger:  logger,
		waiters: make(map[int64]*waiter),
		errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastPingAt = time.Now()
	c.mu.Unlock()

	// Server-initiated pings keep the staleness clock fresh.
	conn.SetPingHandler(func(data string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	conn.SetPongHandler(func(data string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()
		return nil
	})

	go c.readLoop()
	go c.heartbeatLoop()

	c.logger.Debug("gateway connected", "url", c.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return c.conn.Close()
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Errors returns a channel of connection errors.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// -----------------------------------------------------------------------------
// Session implementation
// -----------------------------------------------------------------------------

// SendCommand sends a chat command through the gateway.
func (c *Client) SendCommand(text string) error {
	return c.send(Frame{Type: FrameCommand, Text: text})
}

// ClickSlot clicks a slot in the identified window.
func (c *Client) ClickSlot(windowID, slot int) error {
	return c.send(Frame{Type: FrameClick, WindowID: windowID, Slot: slot})
}

// CloseWindow closes the current window. The local snapshot is cleared
// immediately; the gateway confirms with a window_close event.
func (c *Client) CloseWindow() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	return c.send(Frame{Type: FrameCloseWindow})
}

// WriteSign enters the four lines of a sign text prompt.
func (c *Client) WriteSign(lines [4]string) error {
	return c.send(Frame{Type: FrameSignText, Lines: lines[:]})
}

// CurrentWindow returns a snapshot of the currently open window.
func (c *Client) CurrentWindow() (Window, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Window{}, false
	}
	return *c.current, true
}

// ScoreboardLines returns a copy of the latest sidebar lines.
func (c *Client) ScoreboardLines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.scoreboard...)
}

// WaitForWindow blocks until a window whose title contains titleSubstring is
// open, or the timeout elapses. The waiter is registered before the current
// window is checked, so a window opening between the two is never missed.
func (c *Client) WaitForWindow(titleSubstring string, timeout time.Duration) (Window, bool) {
	id, ch := c.addWaiter(func(ev Event) (any, bool) {
		if ev.Type == EventWindowOpen && ev.Window != nil && ev.Window.HasTitle(titleSubstring) {
			return *ev.Window, true
		}
		return nil, false
	})
	defer c.removeWaiter(id)

	if w, ok := c.CurrentWindow(); ok && w.HasTitle(titleSubstring) {
		return w, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v.(Window), true
	case <-timer.C:
		return Window{}, false
	case <-c.done:
		return Window{}, false
	}
}

// WaitForChatContaining blocks until a chat line containing substring
// arrives, or the timeout elapses.
func (c *Client) WaitForChatContaining(substring string, timeout time.Duration) (string, bool) {
	id, ch := c.addWaiter(func(ev Event) (any, bool) {
		if ev.Type == EventChat && strings.Contains(ev.Text, substring) {
			return ev.Text, true
		}
		return nil, false
	})
	defer c.removeWaiter(id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v.(string), true
	case <-timer.C:
		return "", false
	case <-c.done:
		return "", false
	}
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func (c *Client) send(f Frame) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) addWaiter(match func(Event) (any, bool)) (int64, <-chan any) {
	w := &waiter{
		match:  match,
		result: make(chan any, 1),
	}

	c.waitMu.Lock()
	c.nextWait++
	id := c.nextWait
	c.waiters[id] = w
	c.waitMu.Unlock()

	return id, w.result
}

func (c *Client) removeWaiter(id int64) {
	c.waitMu.Lock()
	delete(c.waiters, id)
	c.waitMu.Unlock()
}

// dispatch resolves matching waiters and removes them: one-shot semantics.
func (c *Client) dispatch(ev Event) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()

	for id, w := range c.waiters {
		if v, ok := w.match(ev); ok {
			w.result <- v // buffered, never blocks
			delete(c.waiters, id)
		}
	}
}

// readLoop reads gateway events and maintains the window/scoreboard state.
func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
				select {
				case c.errors <- err:
				default:
				}
				return
			}
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("malformed gateway event", "error", err)
			continue
		}

		switch ev.Type {
		case EventWindowOpen:
			if ev.Window != nil {
				c.mu.Lock()
				w := *ev.Window
				c.current = &w
				c.mu.Unlock()
			}
		case EventWindowClose:
			c.mu.Lock()
			if c.current != nil && (ev.WindowID == 0 || c.current.ID == ev.WindowID) {
				c.current = nil
			}
			c.mu.Unlock()
		case EventScoreboard:
			c.mu.Lock()
			c.scoreboard = append([]string(nil), ev.Lines...)
			c.mu.Unlock()
		}

		c.dispatch(ev)
	}
}

// heartbeatLoop monitors for stale connections.
func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn != nil {
				deadline := time.Now().Add(c.cfg.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
					c.logger.Debug("failed to send ping", "error", err)
				}
			}

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				select {
				case c.errors <- ErrStaleConnection:
				default:
				}
				return
			}
		}
	}
}
