package session

import (
	"fmt"
	"strings"
)

// Slot is one item slot in a window. An empty Name means the slot holds
// nothing (or nothing has rendered yet).
type Slot struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"` // item registry name, e.g. "gold_nugget"
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
}

// HasLoreContaining reports whether any lore line contains sub.
func (s Slot) HasLoreContaining(sub string) bool {
	for _, line := range s.Lore {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

// Window is a typed snapshot of a remote UI window.
type Window struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Slots []Slot `json:"slots"`
}

// Kind identifies the known window layouts the bot navigates.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuctionHouse
	KindAuctionView // a viewed BIN listing
	KindConfirm
	KindManageAuctions
	KindBidsList
	KindCreateListing
)

// Kind classifies the window by title. Most specific titles are checked
// first: "Create BIN Auction" and "BIN Auction View" both contain "BIN".
func (w Window) Kind() Kind {
	switch {
	case strings.Contains(w.Title, "Create BIN Auction"):
		return KindCreateListing
	case strings.Contains(w.Title, "Manage Auctions"):
		return KindManageAuctions
	case strings.Contains(w.Title, "Your Bids"):
		return KindBidsList
	case strings.Contains(w.Title, "Confirm"):
		return KindConfirm
	case strings.Contains(w.Title, "BIN"):
		return KindAuctionView
	case strings.Contains(w.Title, "Auction House"):
		return KindAuctionHouse
	default:
		return KindUnknown
	}
}

// HasTitle reports whether the window title contains sub.
func (w Window) HasTitle(sub string) bool {
	return strings.Contains(w.Title, sub)
}

// SlotAt returns the slot with the given index. ok is false when no such slot
// is present or the slot is empty. Lookup goes by the slot's own index, not
// array position, since gateways may omit empty slots.
func (w Window) SlotAt(idx int) (Slot, bool) {
	for _, s := range w.Slots {
		if s.Index == idx {
			if s.Name == "" {
				return Slot{}, false
			}
			return s, true
		}
	}
	return Slot{}, false
}

// ExpectItem returns the slot at idx when it holds one of the wanted items.
// A populated slot holding anything else yields ErrUnexpectedContent with the
// observed item name; an empty or out-of-range slot yields a plain error so
// callers can keep polling for content that has not rendered yet.
func (w Window) ExpectItem(idx int, wanted ...string) (Slot, error) {
	s, ok := w.SlotAt(idx)
	if !ok {
		return Slot{}, fmt.Errorf("window %q slot %d is empty", w.Title, idx)
	}
	for _, name := range wanted {
		if s.Name == name {
			return s, nil
		}
	}
	return Slot{}, fmt.Errorf("window %q slot %d holds %q: %w", w.Title, idx, s.Name, ErrUnexpectedContent)
}

// FindItem returns the index of the first slot holding the named item.
func (w Window) FindItem(name string) (int, bool) {
	for _, s := range w.Slots {
		if s.Name == name {
			return s.Index, true
		}
	}
	return 0, false
}
