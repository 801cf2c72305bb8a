package nlp

import (
	"regexp"
	"strings"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// Conversion phrasings, broadest last. Every pattern captures exactly three
// word groups; all patterns run and all matches are collected, so the same
// code can yield more than one triple. Duplicates are deliberately kept:
// the reply layer mirrors exactly what was resolved.
var instructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`convert\s+(\w+)\s+code\s+(\w+)\s+to\s+(\w+)`),
	regexp.MustCompile(`(\w+)\s+code\s+(\w+)\s+to\s+(\w+)`),
	regexp.MustCompile(`from\s+(\w+)\s+(\w+)\s+to\s+(\w+)`),
	regexp.MustCompile(`(\w+)\s+(\w+)\s+to\s+(\w+)`),
}

// Resolver pairs extracted codes with extracted platforms into conversion
// triples, degrading through three tiers: explicit phrase patterns, then
// positional pairing, then bare codes. A later tier runs only when every
// earlier tier produced nothing.
type Resolver struct {
	reg *platform.Registry
}

// NewResolver builds a Resolver over the given platform registry.
func NewResolver(reg *platform.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve maps codes and platform candidates extracted from text into
// conversion triples. With no codes the result is always empty: a
// platform-only message is not actionable. Deterministic for identical
// input; never fails.
func (r *Resolver) Resolve(text string, codes []string, platforms []bot.PlatformCandidate) []bot.ConversionTriple {
	if len(codes) == 0 {
		return nil
	}
	lower := strings.ToLower(text)

	if triples := r.resolveExplicit(lower, codes, platforms); len(triples) > 0 {
		return triples
	}
	if len(platforms) > 0 {
		return resolvePositional(codes, platforms)
	}
	return resolveBare(codes)
}

// resolveExplicit is tier one: run every instruction pattern over the
// lower-cased text and build one triple per match that contains a code slot.
func (r *Resolver) resolveExplicit(lower string, codes []string, platforms []bot.PlatformCandidate) []bot.ConversionTriple {
	codeSet := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		codeSet[strings.ToUpper(code)] = struct{}{}
	}
	byName := make(map[string]bot.PlatformCandidate, len(platforms))
	for _, p := range platforms {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = p
		}
	}

	var triples []bot.ConversionTriple
	for _, re := range instructionPatterns {
		for _, match := range re.FindAllStringSubmatch(lower, -1) {
			if triple, ok := r.tripleFromGroups(match[1:], codeSet, byName); ok {
				triples = append(triples, triple)
			}
		}
	}
	return triples
}

// tripleFromGroups classifies the three captured groups of one pattern
// match. A group matching an extracted code becomes the code slot (a later
// match overwrites). The final group sits after "to" in every pattern, so a
// platform there is the conversion destination; earlier platform groups fill
// the source slot first, then the target. Groups that are neither are
// ignored. Without a code slot the match contributes nothing.
func (r *Resolver) tripleFromGroups(groups []string, codeSet map[string]struct{}, byName map[string]bot.PlatformCandidate) (bot.ConversionTriple, bool) {
	var (
		code           string
		source, target *bot.PlatformCandidate
	)
	for i, group := range groups {
		upper := strings.ToUpper(group)
		if _, ok := codeSet[upper]; ok {
			code = upper
			continue
		}
		titled := platform.TitleCase(group)
		cand, known := byName[titled]
		if !known {
			key := strings.ToLower(group)
			if !r.reg.Contains(key) {
				continue
			}
			cand = bot.PlatformCandidate{Name: titled, Key: key}
		}
		c := cand
		switch {
		case i == len(groups)-1:
			target = &c
		case source == nil:
			source = &c
		default:
			target = &c
		}
	}
	if code == "" {
		return bot.ConversionTriple{}, false
	}
	return bot.ConversionTriple{Code: code, Source: source, Target: target}, true
}

// resolvePositional is tier two: pair the i-th code with platforms 2i and
// 2i+1, leaving slots absent when the platform list runs out.
func resolvePositional(codes []string, platforms []bot.PlatformCandidate) []bot.ConversionTriple {
	triples := make([]bot.ConversionTriple, 0, len(codes))
	for i, code := range codes {
		var source, target *bot.PlatformCandidate
		if 2*i < len(platforms) {
			c := platforms[2*i]
			source = &c
		}
		if 2*i+1 < len(platforms) {
			c := platforms[2*i+1]
			target = &c
		}
		triples = append(triples, bot.ConversionTriple{Code: code, Source: source, Target: target})
	}
	return triples
}

// resolveBare is tier three: one triple per code with both platforms absent,
// signaling the caller to ask for clarification on every code.
func resolveBare(codes []string) []bot.ConversionTriple {
	triples := make([]bot.ConversionTriple, 0, len(codes))
	for _, code := range codes {
		triples = append(triples, bot.ConversionTriple{Code: code})
	}
	return triples
}
