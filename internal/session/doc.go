// Package session abstracts the remote world client behind a small capability
// interface: send a chat command, click a slot in the current window, wait for
// a named window or chat line, write sign text.
//
// The concrete implementation speaks JSON frames over a WebSocket gateway.
// The core never depends on the transport, only on the Session interface, so
// tests drive the executor and claim manager with scripted fakes.
//
// Waits are one-shot: a waiter is registered, resolved at most once, and
// deregistered on both the found and the timeout path, so abandoned waits
// never leak listeners.
package session
