package platform

import (
	"strings"
	"unicode"
)

// Meta describes a betting platform known to the bot.
type Meta struct {
	// Key is the canonical lower-case identifier, e.g. "sportybet".
	Key string

	// DisplayName is the operator branding used in replies, e.g. "SportyBet".
	DisplayName string

	// Aliases are spoken/written variants that resolve to Key.
	Aliases []string

	// Convertible reports whether the conversion service accepts this platform.
	Convertible bool
}

// normalizeAlias prepares an alias token for lookup.
func normalizeAlias(alias string) string {
	trimmed := strings.TrimSpace(alias)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "@")
	return strings.ToLower(strings.Join(strings.Fields(trimmed), " "))
}

// NormalizeAliasToken exposes alias normalization for callers.
func NormalizeAliasToken(alias string) string {
	return normalizeAlias(alias)
}

// TitleCase upper-cases the first letter of each word and any letter that
// follows a non-letter, lowering everything else: "sportybet" -> "Sportybet",
// "1xbet" -> "1Xbet", "bet9ja" -> "Bet9Ja". The recognizer emits candidates
// in this casing and the resolver classifies captured groups against it, so
// both sides must share the exact rule.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
