package normalize

import "sort"

// Star tier glyphs in upgrade order. Matched as whole tokens.
var starTiers = []string{
	"✪", "✪✪", "✪✪✪", "✪✪✪✪", "✪✪✪✪✪",
	"✪✪✪✪✪➊", "✪✪✪✪✪➋", "✪✪✪✪✪➌", "✪✪✪✪✪➍", "✪✪✪✪✪➎",
}

// Special glyphs that mark cosmetic variants. Matched as substrings.
var specialGlyphs = []string{"✦", "⚚", "✿", "◆"}

// Pet level markers. A token containing any of these classifies the listing as
// a pet. The bracket fragments cover every level from 1 to 100.
var levelMarkers = []string{
	"[Lvl", "1]", "2]", "3]", "4]", "5]", "6]", "7]", "8]", "9]", "0]",
	"21]", "22]", "23]", "24]", "25]", "26]", "27]", "28]", "29]", "20]",
	"31]", "32]", "33]", "34]", "35]", "36]", "37]", "38]", "39]", "30]",
	"41]", "42]", "43]", "44]", "45]", "46]", "47]", "48]", "49]", "40]",
	"51]", "52]", "53]", "54]", "55]", "56]", "57]", "58]", "59]", "50]",
	"61]", "62]", "63]", "64]", "65]", "66]", "67]", "68]", "69]", "60]",
	"71]", "72]", "73]", "74]", "75]", "76]", "77]", "78]", "79]", "70]",
	"81]", "82]", "83]", "84]", "85]", "86]", "87]", "88]", "89]", "80]",
	"91]", "92]", "93]", "94]", "95]", "96]", "97]", "98]", "99]", "90]", "100",
}

// Reforge prefixes. Matched as whole tokens, case sensitive (rarity prefixes
// are upper case, so "Legendary" the reforge never collides with "LEGENDARY"
// the rarity).
var reforgeList = []string{
	"Ancient", "Fabled", "Spiritual", "Suspicious", "Sharp", "Heroic", "Spicy", "Renowned", "Candied", "Submerged", "Gilded",
	"Dimensional", "Withered", "Burning", "Precise", "Shiny", "Snowy", "Thick", "Hot", "Strengthened", "Pitchin'", "Thicc",
	"Wise", "Clean", "Fierce", "Gentle", "Heavy", "Legendary", "Mythic", "Odd", "Pure", "Giant", "Glistening", "Light", "Very",
	"Loving", "Blessed", "Fleet", "Rooted", "Waxed", "Menacing", "Brilliant", "Bountiful", "Auspicious", "Scraped",
	"Smart", "Strong", "Superior", "Unpleasant", "Epic", "Fast", "Godly", "Hurtful", "Reinforced", "Necrotic", "Trashy",
	"Fair", "Royal", "Festive", "Blazing", "Fiery", "Jaded", "Rapid", "Titanic", "Rich", "Salty", "Treacherous", "Magnetic",
	"Lucky", "Deadly",
}

// Item rarities as they appear in lore text.
var rarityList = []string{
	"COMMON", "UNCOMMON", "RARE", "EPIC", "LEGENDARY", "MYTHIC", "DIVINE",
	"SPECIAL", "VERY SPECIAL", "SUPREME",
}

var (
	starSet    map[string]struct{}
	reforgeSet map[string]struct{}

	// raritiesByLength is rarityList sorted longest first, so "VERY SPECIAL"
	// wins over "SPECIAL" and "UNCOMMON" over "COMMON".
	raritiesByLength []string
)

func init() {
	starSet = make(map[string]struct{}, len(starTiers))
	for _, s := range starTiers {
		starSet[s] = struct{}{}
	}

	reforgeSet = make(map[string]struct{}, len(reforgeList))
	for _, r := range reforgeList {
		reforgeSet[r] = struct{}{}
	}

	raritiesByLength = append([]string(nil), rarityList...)
	sort.SliceStable(raritiesByLength, func(i, j int) bool {
		return len(raritiesByLength[i]) > len(raritiesByLength[j])
	})
}
