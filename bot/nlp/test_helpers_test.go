package nlp

import (
	"context"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
)

// nopLogger satisfies botpkg.Logger and discards everything.
type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

func (l nopLogger) With(args ...any) botpkg.Logger { return l }

// stubRecognizer implements botpkg.EntityRecognizer with canned results.
type stubRecognizer struct {
	entities []botpkg.Entity
	err      error
	calls    int
}

func (s *stubRecognizer) Recognize(ctx context.Context, text string) ([]botpkg.Entity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entities, nil
}

func cand(name, key string) botpkg.PlatformCandidate {
	return botpkg.PlatformCandidate{Name: name, Key: key}
}

func pcand(name, key string) *botpkg.PlatformCandidate {
	c := cand(name, key)
	return &c
}
