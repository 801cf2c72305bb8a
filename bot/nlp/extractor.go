package nlp

import (
	"context"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// Extractor wires the tokenizer, recognizer and resolver behind the single
// entry point message handlers use. It never fails: collaborator errors
// surface only as reduced information, and malformed input yields an empty
// result.
type Extractor struct {
	tokenizer  *Tokenizer
	recognizer *Recognizer
	resolver   *Resolver
	log        bot.Logger
}

// NewExtractor builds the full extraction pipeline.
func NewExtractor(reg *platform.Registry, ner bot.EntityRecognizer, log bot.Logger) *Extractor {
	return &Extractor{
		tokenizer:  NewTokenizer(reg),
		recognizer: NewRecognizer(reg, ner, log),
		resolver:   NewResolver(reg),
		log:        log,
	}
}

// Extract normalizes raw message text, extracts codes and platform
// candidates, and resolves them into conversion triples. The external
// recognition call is the only suspension point.
func (e *Extractor) Extract(ctx context.Context, raw string) []bot.ConversionTriple {
	text := Normalize(raw)
	if text == "" {
		return nil
	}
	codes := e.tokenizer.ExtractCodes(text)
	platforms := e.recognizer.ExtractPlatforms(ctx, text)
	triples := e.resolver.Resolve(text, codes, platforms)
	e.log.Debug("extraction finished",
		"codes", len(codes),
		"platforms", len(platforms),
		"triples", len(triples))
	return triples
}

// Codes runs normalization and code extraction only.
func (e *Extractor) Codes(raw string) []string {
	return e.tokenizer.ExtractCodes(Normalize(raw))
}

// Platforms runs normalization and platform recognition only.
func (e *Extractor) Platforms(ctx context.Context, raw string) []bot.PlatformCandidate {
	return e.recognizer.ExtractPlatforms(ctx, Normalize(raw))
}
