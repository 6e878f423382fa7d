package session

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrStaleConnection   = errors.New("connection stale (no ping)")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrUnexpectedContent = errors.New("unexpected window content")
)

// Session is the capability set the core depends on. All waits are bounded
// and resolve to either the expected value or a not-received result.
type Session interface {
	// SendCommand sends a chat command (e.g. "/viewauction <id>").
	SendCommand(text string) error

	// ClickSlot clicks a slot in the identified window.
	ClickSlot(windowID, slot int) error

	// CloseWindow closes whatever window is currently open.
	CloseWindow() error

	// WriteSign enters the four lines of a sign text prompt.
	WriteSign(lines [4]string) error

	// CurrentWindow returns the currently open window, if any.
	CurrentWindow() (Window, bool)

	// WaitForWindow blocks until a window whose title contains titleSubstring
	// is open, or the timeout elapses.
	WaitForWindow(titleSubstring string, timeout time.Duration) (Window, bool)

	// WaitForChatContaining blocks until a chat line containing substring
	// arrives, or the timeout elapses.
	WaitForChatContaining(substring string, timeout time.Duration) (string, bool)

	// ScoreboardLines returns the latest sidebar scoreboard lines.
	ScoreboardLines() []string
}

// Frame is a client-to-gateway message.
type Frame struct {
	Type     string   `json:"type"` // "command", "click", "close_window", "sign_text"
	Text     string   `json:"text,omitempty"`
	WindowID int      `json:"window_id,omitempty"`
	Slot     int      `json:"slot,omitempty"`
	Lines    []string `json:"lines,omitempty"`
}

// Event is a gateway-to-client message.
type Event struct {
	Type     string   `json:"type"` // "window_open", "window_close", "chat", "scoreboard"
	Window   *Window  `json:"window,omitempty"`
	WindowID int      `json:"window_id,omitempty"`
	Text     string   `json:"text,omitempty"`
	Lines    []string `json:"lines,omitempty"`
}

// Event types.
const (
	EventWindowOpen  = "window_open"
	EventWindowClose = "window_close"
	EventChat        = "chat"
	EventScoreboard  = "scoreboard"
)

// Frame types.
const (
	FrameCommand     = "command"
	FrameClick       = "click"
	FrameCloseWindow = "close_window"
	FrameSignText    = "sign_text"
)

// Config configures a gateway client.
type Config struct {
	URL          string        // Gateway WebSocket URL
	PingTimeout  time.Duration // Max time without ping before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
