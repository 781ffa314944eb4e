package crisis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flexonb/mindhack/internal/lexicon"
)

func TestDetectScenarioGiveUp(t *testing.T) {
	got := Detect("I don't see the point anymore, I want to give up", lexicon.DefaultPersonaCrisisKeywords)

	assert.True(t, got.Detected)
	assert.Equal(t, SeverityHigh, got.Severity)
	assert.ElementsMatch(t, []string{"no point", "give up"}, got.MatchedKeywords)
}

func TestSeverityForCount(t *testing.T) {
	cases := []struct {
		n    int
		want Severity
	}{
		{0, SeverityNone},
		{1, SeverityMedium},
		{2, SeverityHigh},
		{3, SeverityCritical},
		{7, SeverityCritical},
	}
	for _, tc := range cases {
		if got := SeverityForCount(tc.n); got != tc.want {
			t.Fatalf("SeverityForCount(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestDetectIsCaseInsensitive(t *testing.T) {
	inputs := []string{
		"I want to end it all",
		"sometimes I think everyone is better off dead without me, there's no point",
		"nothing to see here",
		"I'll hurt myself, end it all, give up. No point.",
	}
	for _, in := range inputs {
		lower := Detect(in, lexicon.DefaultPersonaCrisisKeywords)
		upper := Detect(strings.ToUpper(in), lexicon.DefaultPersonaCrisisKeywords)
		if len(lower.MatchedKeywords) != len(upper.MatchedKeywords) {
			t.Fatalf("match count differs for %q: %d vs %d", in, len(lower.MatchedKeywords), len(upper.MatchedKeywords))
		}
		if lower.Severity != upper.Severity {
			t.Fatalf("severity differs for %q: %q vs %q", in, lower.Severity, upper.Severity)
		}
	}
}

func TestDetectEmptyInput(t *testing.T) {
	got := Detect("", lexicon.DefaultPersonaCrisisKeywords)
	assert.False(t, got.Detected)
	assert.Equal(t, SeverityNone, got.Severity)
	assert.Empty(t, got.MatchedKeywords)
}

func TestDetectCritical(t *testing.T) {
	got := Detect("I want to hurt myself and end it all, I'm better off dead", lexicon.DefaultPersonaCrisisKeywords)
	assert.Equal(t, SeverityCritical, got.Severity)
	assert.Len(t, got.MatchedKeywords, 3)
}

func TestDetectSkipsBlankAndDuplicateKeywords(t *testing.T) {
	got := Detect("I give up", []string{"", "give up", "GIVE UP", "  "})
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.Equal(t, []string{"give up"}, got.MatchedKeywords)
}
