package nlp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

func TestExtractPlatformsKeywordPass(t *testing.T) {
	rec := NewRecognizer(platform.NewRegistry(), nil, nopLogger{})

	tests := []struct {
		name string
		in   string
		want []botpkg.PlatformCandidate
	}{
		{
			name: "two platforms",
			in:   "Convert Stake code ABC123 to SportyBet",
			want: []botpkg.PlatformCandidate{cand("Stake", "stake"), cand("Sportybet", "sportybet")},
		},
		{
			name: "vocabulary order wins over text order",
			in:   "use 1xbet and stake",
			want: []botpkg.PlatformCandidate{cand("Stake", "stake"), cand("1Xbet", "1xbet")},
		},
		{
			name: "digit-boundary names",
			in:   "bet9ja and betnaija codes",
			want: []botpkg.PlatformCandidate{cand("Bet9Ja", "bet9ja"), cand("Betnaija", "betnaija")},
		},
		{
			name: "case-insensitive match",
			in:   "PARIMATCH is fine",
			want: []botpkg.PlatformCandidate{cand("Parimatch", "parimatch")},
		},
		{
			name: "no platforms",
			in:   "Hello, how are you?",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rec.ExtractPlatforms(context.Background(), tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractPlatforms(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractPlatformsEntityPass(t *testing.T) {
	// Mix of aggregated and raw labels: "##go" is too short once the subword
	// marker is stripped, "Alexander" carries the wrong label, "SportyBet"
	// duplicates the keyword hit and " sporty bet " is an alias of it.
	ner := &stubRecognizer{entities: []botpkg.Entity{
		{Group: "ORG", Word: "Betano"},
		{Label: "B-ORG", Word: "##bwin"},
		{Label: "I-ORG", Word: "##go"},
		{Group: "PER", Word: "Alexander"},
		{Group: "ORG", Word: "SportyBet"},
		{Group: "ORG", Word: " sporty bet "},
	}}
	rec := NewRecognizer(platform.NewRegistry(), ner, nopLogger{})

	got := rec.ExtractPlatforms(context.Background(), "send it to sportybet please")
	want := []botpkg.PlatformCandidate{
		cand("Sportybet", "sportybet"),
		cand("Betano", "betano"),
		cand("Bwin", "bwin"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPlatforms = %v, want %v", got, want)
	}
	if ner.calls != 1 {
		t.Errorf("recognizer called %d times, want 1", ner.calls)
	}
}

func TestExtractPlatformsEntityFailure(t *testing.T) {
	ner := &stubRecognizer{err: errors.New("upstream 503")}
	rec := NewRecognizer(platform.NewRegistry(), ner, nopLogger{})

	got := rec.ExtractPlatforms(context.Background(), "convert my stake code")
	want := []botpkg.PlatformCandidate{cand("Stake", "stake")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPlatforms = %v, want %v (keyword pass must survive)", got, want)
	}
}

func TestExtractPlatformsNilRecognizer(t *testing.T) {
	rec := NewRecognizer(platform.NewRegistry(), nil, nopLogger{})

	if got := rec.ExtractPlatforms(context.Background(), "no platforms here"); got != nil {
		t.Errorf("ExtractPlatforms = %v, want nil", got)
	}
}
