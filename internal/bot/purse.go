package bot

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Minecraft formatting codes: section sign plus one code character.
	formattingCodes = regexp.MustCompile(`§[0-9a-fklmnor]`)
	// Everything the purse line can legitimately contain after cleaning.
	allowedChars = regexp.MustCompile(`[^a-zA-Z0-9:., ]`)
	purseValue   = regexp.MustCompile(`(?i)Purse:?\s*([\d,]+)`)
)

// ParsePurse extracts the purse balance from scoreboard sidebar lines. The
// value can spill onto the line after the "Purse" label, so both are scanned
// together.
func ParsePurse(lines []string) (int64, bool) {
	cleaned := make([]string, len(lines))
	for i, raw := range lines {
		s := formattingCodes.ReplaceAllString(raw, "")
		s = allowedChars.ReplaceAllString(s, "")
		cleaned[i] = strings.TrimSpace(s)
	}

	for i, line := range cleaned {
		if !strings.Contains(line, "Purse") {
			continue
		}

		combined := line
		if i+1 < len(cleaned) {
			combined += cleaned[i+1]
		}

		m := purseValue.FindStringSubmatch(combined)
		if m == nil {
			continue
		}

		coins, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		return coins, true
	}

	return 0, false
}
