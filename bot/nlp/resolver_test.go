package nlp

import (
	"testing"

	"github.com/stretchr/testify/require"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

func TestResolveExplicit(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	tests := []struct {
		name      string
		text      string
		codes     []string
		platforms []botpkg.PlatformCandidate
		want      []botpkg.ConversionTriple
	}{
		{
			name:      "full instruction",
			text:      "convert stake code abc123 to sportybet",
			codes:     []string{"ABC123"},
			platforms: []botpkg.PlatformCandidate{cand("Stake", "stake"), cand("Sportybet", "sportybet")},
			// The first two patterns both match the same phrase; the broad
			// trailing pattern picks up "code abc123 to sportybet" and yields
			// an extra triple without a source.
			want: []botpkg.ConversionTriple{
				{Code: "ABC123", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "ABC123", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "ABC123", Target: pcand("Sportybet", "sportybet")},
			},
		},
		{
			name:      "target only",
			text:      "convert abc123 to sportybet",
			codes:     []string{"ABC123"},
			platforms: []botpkg.PlatformCandidate{cand("Sportybet", "sportybet")},
			want: []botpkg.ConversionTriple{
				{Code: "ABC123", Target: pcand("Sportybet", "sportybet")},
			},
		},
		{
			name:  "two conversions in one message",
			text:  "convert stake code abc123 to sportybet and bet9ja code xyz789 to 1xbet",
			codes: []string{"ABC123", "XYZ789"},
			platforms: []botpkg.PlatformCandidate{
				cand("Stake", "stake"),
				cand("Sportybet", "sportybet"),
				cand("Bet9Ja", "bet9ja"),
				cand("1Xbet", "1xbet"),
			},
			want: []botpkg.ConversionTriple{
				{Code: "ABC123", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "ABC123", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "XYZ789", Source: pcand("Bet9Ja", "bet9ja"), Target: pcand("1Xbet", "1xbet")},
				{Code: "ABC123", Target: pcand("Sportybet", "sportybet")},
				{Code: "XYZ789", Target: pcand("1Xbet", "1xbet")},
			},
		},
		{
			// Platforms named in the phrase but missed by extraction still
			// resolve through the registry vocabulary.
			name:      "vocabulary fallback",
			text:      "from betway abc123 to betfair",
			codes:     []string{"ABC123"},
			platforms: nil,
			want: []botpkg.ConversionTriple{
				{Code: "ABC123", Source: pcand("Betway", "betway"), Target: pcand("Betfair", "betfair")},
				{Code: "ABC123", Source: pcand("Betway", "betway"), Target: pcand("Betfair", "betfair")},
			},
		},
		{
			// Two codes inside one match: the later group wins the code slot.
			name:      "second code overwrites",
			text:      "convert abc123 code xyz789 to sportybet",
			codes:     []string{"ABC123", "XYZ789"},
			platforms: []botpkg.PlatformCandidate{cand("Sportybet", "sportybet")},
			want: []botpkg.ConversionTriple{
				{Code: "XYZ789", Target: pcand("Sportybet", "sportybet")},
				{Code: "XYZ789", Target: pcand("Sportybet", "sportybet")},
				{Code: "XYZ789", Target: pcand("Sportybet", "sportybet")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.text, tt.codes, tt.platforms)
			require.Equal(t, tt.want, got)
		})
	}
}

// A single explicit match suppresses the positional and bare tiers even for
// codes the match never mentions.
func TestResolveTierOrdering(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	got := r.Resolve(
		"convert stake code abc123 to sportybet",
		[]string{"ABC123", "XYZ789"},
		[]botpkg.PlatformCandidate{cand("Stake", "stake"), cand("Sportybet", "sportybet")},
	)
	require.Len(t, got, 3)
	for _, triple := range got {
		require.Equal(t, "ABC123", triple.Code)
	}
}

func TestResolvePositional(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	tests := []struct {
		name      string
		codes     []string
		platforms []botpkg.PlatformCandidate
		want      []botpkg.ConversionTriple
	}{
		{
			name:  "pairs in order",
			codes: []string{"AAAA1111", "BBBB2222"},
			platforms: []botpkg.PlatformCandidate{
				cand("Stake", "stake"),
				cand("Sportybet", "sportybet"),
				cand("Bet9Ja", "bet9ja"),
				cand("Betway", "betway"),
			},
			want: []botpkg.ConversionTriple{
				{Code: "AAAA1111", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "BBBB2222", Source: pcand("Bet9Ja", "bet9ja"), Target: pcand("Betway", "betway")},
			},
		},
		{
			name:  "platforms run out",
			codes: []string{"AAAA1111", "BBBB2222"},
			platforms: []botpkg.PlatformCandidate{
				cand("Stake", "stake"),
				cand("Sportybet", "sportybet"),
				cand("Bet9Ja", "bet9ja"),
			},
			want: []botpkg.ConversionTriple{
				{Code: "AAAA1111", Source: pcand("Stake", "stake"), Target: pcand("Sportybet", "sportybet")},
				{Code: "BBBB2222", Source: pcand("Bet9Ja", "bet9ja")},
			},
		},
		{
			name:      "single platform",
			codes:     []string{"AAAA1111"},
			platforms: []botpkg.PlatformCandidate{cand("Stake", "stake")},
			want: []botpkg.ConversionTriple{
				{Code: "AAAA1111", Source: pcand("Stake", "stake")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No instruction phrasing in the text, so tier one stays empty.
			got := r.Resolve("codes here for the listed bookmakers", tt.codes, tt.platforms)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBare(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	got := r.Resolve("abc123 12345678", []string{"ABC123", "12345678"}, nil)
	want := []botpkg.ConversionTriple{
		{Code: "ABC123"},
		{Code: "12345678"},
	}
	require.Equal(t, want, got)
}

func TestResolveNoCodes(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	got := r.Resolve(
		"convert stake to sportybet please",
		nil,
		[]botpkg.PlatformCandidate{cand("Stake", "stake"), cand("Sportybet", "sportybet")},
	)
	require.Empty(t, got)
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(platform.NewRegistry())

	text := "convert stake code abc123 to sportybet and bet9ja code xyz789 to 1xbet"
	codes := []string{"ABC123", "XYZ789"}
	platforms := []botpkg.PlatformCandidate{
		cand("Stake", "stake"),
		cand("Sportybet", "sportybet"),
		cand("Bet9Ja", "bet9ja"),
		cand("1Xbet", "1xbet"),
	}

	first := r.Resolve(text, codes, platforms)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, r.Resolve(text, codes, platforms))
	}
}
