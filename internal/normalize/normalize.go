// Package normalize canonicalizes listing display names into comparison keys.
//
// Two listings share a key when they are economically equivalent: cosmetic
// tokens (reforges, star tiers, special glyphs, pet levels) are stripped per
// configuration, and rarity is prefixed so a LEGENDARY item never groups with
// an EPIC one unless rarities are excluded.
package normalize

import (
	"strings"

	"github.com/rickgao/skyflip/internal/config"
)

// UnknownRarity is returned when no rarity vocabulary entry matches the lore.
const UnknownRarity = "UNKNOWN"

// Normalizer builds comparison keys according to the configured exclusions.
type Normalizer struct {
	cfg config.NormalizeConfig
}

// New creates a Normalizer.
func New(cfg config.NormalizeConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Key canonicalizes a display name into a comparison key for the given rarity.
func (n *Normalizer) Key(displayName, rarity string) string {
	if displayName == "" {
		return ""
	}

	parts := strings.Fields(displayName)

	// Pet classification happens before any token removal: a level marker may
	// itself be stripped below.
	isPet := containsLevelMarker(parts)

	if n.cfg.ExcludePetLevel {
		parts = filterTokens(parts, func(p string) bool {
			return !hasLevelMarker(p)
		})
	}
	if n.cfg.ExcludeReforges {
		parts = filterTokens(parts, func(p string) bool {
			_, ok := reforgeSet[p]
			return !ok
		})
	}
	if n.cfg.ExcludeStars {
		parts = filterTokens(parts, func(p string) bool {
			_, ok := starSet[p]
			return !ok
		})
	}
	if n.cfg.ExcludeSpecials {
		parts = filterTokens(parts, func(p string) bool {
			return !hasSpecialGlyph(p)
		})
	}

	normalized := strings.TrimSpace(strings.Join(parts, " "))

	if isPet {
		if !n.cfg.ExcludeRaritiesForPets {
			normalized = rarity + " " + normalized
		}
	} else {
		if !n.cfg.ExcludeRarities {
			normalized = rarity + " " + normalized
		}
	}

	return normalized
}

// IsPet reports whether a display name carries a pet level marker.
func (n *Normalizer) IsPet(displayName string) bool {
	return containsLevelMarker(strings.Fields(displayName))
}

// RarityFromLore derives the rarity from lore text by longest-match-first
// against the rarity vocabulary, so a shorter rarity name never matches inside
// a longer one.
func RarityFromLore(lore string) string {
	if lore == "" {
		return UnknownRarity
	}
	upper := strings.ToUpper(lore)
	for _, rarity := range raritiesByLength {
		if strings.Contains(upper, rarity) {
			return rarity
		}
	}
	return UnknownRarity
}

func containsLevelMarker(parts []string) bool {
	for _, p := range parts {
		if hasLevelMarker(p) {
			return true
		}
	}
	return false
}

func hasLevelMarker(part string) bool {
	for _, lvl := range levelMarkers {
		if strings.Contains(part, lvl) {
			return true
		}
	}
	return false
}

func hasSpecialGlyph(part string) bool {
	for _, g := range specialGlyphs {
		if strings.Contains(part, g) {
			return true
		}
	}
	return false
}

func filterTokens(parts []string, keep func(string) bool) []string {
	out := parts[:0]
	for _, p := range parts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
