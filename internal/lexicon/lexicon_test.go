package lexicon

import "testing"

func TestContainsAnyIgnoresCaseAndBlankTerms(t *testing.T) {
	if !ContainsAny("I just want to GIVE UP", []string{"", "give up"}) {
		t.Fatalf("ContainsAny() = false, want true")
	}
	if ContainsAny("hello there", []string{"", "  "}) {
		t.Fatalf("ContainsAny() matched blank terms")
	}
}

func TestPatternListsDoNotOverlapOnScenario(t *testing.T) {
	msg := "I hear you, that sounds really difficult. Can you tell me more?"
	positive := false
	for _, re := range PositiveResponsePatterns {
		if re.MatchString(msg) {
			positive = true
		}
	}
	for _, re := range NegativeResponsePatterns {
		if re.MatchString(msg) {
			t.Fatalf("negative pattern %q matched %q", re.String(), msg)
		}
	}
	if !positive {
		t.Fatalf("no positive pattern matched %q", msg)
	}
}

func TestSuggestionCrisisTermsCoverPersonaDefaults(t *testing.T) {
	for _, kw := range DefaultPersonaCrisisKeywords {
		if !ContainsAny(kw, SuggestionCrisisTerms) {
			t.Fatalf("persona crisis keyword %q is not covered by suggestion crisis terms", kw)
		}
	}
}
