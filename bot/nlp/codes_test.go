package nlp

import (
	"reflect"
	"testing"

	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

func TestExtractCodes(t *testing.T) {
	tok := NewTokenizer(platform.NewRegistry())

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "alphanumeric code",
			in:   "Convert Stake code ABC123 to SportyBet",
			want: []string{"ABC123"},
		},
		{
			name: "numeric code",
			in:   "Convert code 12345678 from Bet9ja to 1xBet",
			want: []string{"12345678"},
		},
		{
			name: "multiple codes keep text order",
			in:   "Convert XYZ789 and ABC123 from Stake to SportyBet",
			want: []string{"XYZ789", "ABC123"},
		},
		{
			name: "prefix code",
			in:   "use booking AB1234 today",
			want: []string{"AB1234"},
		},
		{
			name: "long digit run via second pattern",
			in:   "ticket 1234567890123 plus ABC123",
			want: []string{"ABC123", "1234567890123"},
		},
		{
			name: "case-insensitive dedup",
			in:   "abc123 ABC123 Abc123",
			want: []string{"ABC123"},
		},
		{
			name: "platform names are never codes",
			in:   "BET9JA ABC123",
			want: []string{"ABC123"},
		},
		{
			name: "plain words are not codes",
			in:   "Hello world, how are you doing today?",
			want: nil,
		},
		{
			name: "punctuation boundaries",
			in:   "your code: ABC123!",
			want: []string{"ABC123"},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.ExtractCodes(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCodes(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractCodesNoLongRuns(t *testing.T) {
	tok := NewTokenizer(platform.NewRegistry())

	// Inputs without any 6+ character alphanumeric or digit run.
	inputs := []string{
		"ab 12 x3y4",
		"go on",
		"1 22 333 4444 a5a5a",
		"",
	}
	for _, in := range inputs {
		if got := tok.ExtractCodes(in); len(got) != 0 {
			t.Errorf("ExtractCodes(%q) = %v, want empty", in, got)
		}
	}
}

func TestExtractCodesAfterNormalize(t *testing.T) {
	tok := NewTokenizer(platform.NewRegistry())

	raw := "@FlexCodeBot Convert   Stake code ABC123 to #SportyBet"
	once := tok.ExtractCodes(Normalize(raw))
	twice := tok.ExtractCodes(Normalize(Normalize(raw)))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("code extraction differs after re-normalization: %v != %v", once, twice)
	}
}
