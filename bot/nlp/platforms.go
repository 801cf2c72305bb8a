package nlp

import (
	"context"
	"strings"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// Recognizer extracts platform-name candidates from message text. It runs a
// keyword pass over the static vocabulary and then a single bounded call to
// the external entity recognizer; the external pass degrades to nothing on
// any failure.
type Recognizer struct {
	reg *platform.Registry
	ner bot.EntityRecognizer
	log bot.Logger
}

// NewRecognizer builds a Recognizer. ner may be nil, which disables the
// external pass entirely.
func NewRecognizer(reg *platform.Registry, ner bot.EntityRecognizer, log bot.Logger) *Recognizer {
	return &Recognizer{
		reg: reg,
		ner: ner,
		log: log,
	}
}

// ExtractPlatforms returns platform candidates in extraction order: keyword
// hits in vocabulary declaration order, then organization entities from the
// external recognizer. Candidates are deduplicated by canonical key, first
// occurrence kept. Never fails.
func (r *Recognizer) ExtractPlatforms(ctx context.Context, text string) []bot.PlatformCandidate {
	seen := make(map[string]struct{})
	var out []bot.PlatformCandidate

	add := func(name string) {
		cand := r.candidate(name)
		if _, ok := seen[cand.Key]; ok {
			return
		}
		seen[cand.Key] = struct{}{}
		out = append(out, cand)
	}

	lower := strings.ToLower(text)
	for _, key := range r.reg.Vocabulary() {
		if strings.Contains(lower, key) {
			add(platform.TitleCase(key))
		}
	}

	for _, word := range r.recognizeOrgs(ctx, text) {
		add(word)
	}

	return out
}

// candidate attaches the canonical key to an extracted name. Names outside
// the registry keep their lower-cased form as the key so deduplication still
// has a stable identity.
func (r *Recognizer) candidate(name string) bot.PlatformCandidate {
	if key, ok := r.reg.Resolve(name); ok {
		return bot.PlatformCandidate{Name: name, Key: key}
	}
	return bot.PlatformCandidate{Name: name, Key: strings.ToLower(name)}
}

// recognizeOrgs submits the text to the external recognizer and keeps
// title-cased words for entities labeled as organizations. Subword
// continuation markers are stripped and short fragments discarded. Any
// client error contributes zero candidates.
func (r *Recognizer) recognizeOrgs(ctx context.Context, text string) []string {
	if r.ner == nil {
		return nil
	}
	entities, err := r.ner.Recognize(ctx, text)
	if err != nil {
		r.log.Warn("entity recognition unavailable", "error", err)
		return nil
	}
	var words []string
	for _, ent := range entities {
		if ent.Group != "ORG" && ent.Label != "B-ORG" && ent.Label != "I-ORG" {
			continue
		}
		word := strings.TrimSpace(strings.ReplaceAll(ent.Word, "##", ""))
		if len(word) <= 2 {
			continue
		}
		words = append(words, platform.TitleCase(word))
	}
	return words
}
