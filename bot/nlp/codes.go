package nlp

import (
	"regexp"
	"strings"

	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// Betting-code shapes, applied to the upper-cased text. All three patterns
// run and their results are unioned in pattern order; a later pattern never
// short-circuits an earlier one.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z0-9]{6,12}\b`),    // alphanumeric codes
	regexp.MustCompile(`\b\d{8,15}\b`),          // purely numeric codes
	regexp.MustCompile(`\b[A-Z]{2,4}\d{4,8}\b`), // letter prefix + digits
}

// Tokenizer extracts betting-code tokens from normalized text.
type Tokenizer struct {
	reg *platform.Registry
}

// NewTokenizer builds a Tokenizer over the given platform registry.
func NewTokenizer(reg *platform.Registry) *Tokenizer {
	return &Tokenizer{reg: reg}
}

// ExtractCodes scans text for betting-code tokens. Every real code shape
// carries at least one digit, so purely alphabetic runs (ordinary words like
// CONVERT) are rejected, and a token spelling a known platform name is never
// a code. Duplicates by upper-cased form are dropped with the first
// occurrence kept, so the order is first match position within each pattern,
// patterns in declaration order. Never fails; no match yields an empty
// result.
func (t *Tokenizer) ExtractCodes(text string) []string {
	upper := strings.ToUpper(text)
	seen := make(map[string]struct{})
	var codes []string
	for _, re := range codePatterns {
		for _, match := range re.FindAllString(upper, -1) {
			if !strings.ContainsAny(match, "0123456789") {
				continue
			}
			if t.reg.Contains(strings.ToLower(match)) {
				continue
			}
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			codes = append(codes, match)
		}
	}
	return codes
}
