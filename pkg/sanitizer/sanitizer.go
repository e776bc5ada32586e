// Package sanitizer normalizes free-text registry inputs before validation:
// number plates, vessel names and berth labels arrive from manual entry and
// carry stray whitespace and casing.
package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizePlate uppercases a number plate and strips interior whitespace,
// so "trk 1001 " and "TRK1001" compare equal under the unique index.
func NormalizePlate(plate string) string {
	normalized := TrimAndNormalize(plate)
	normalized = strings.ReplaceAll(normalized, " ", "")
	return strings.ToUpper(normalized)
}

func NormalizeVesselName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeBerth(berth string) string {
	return strings.ToUpper(TrimAndNormalize(berth))
}
