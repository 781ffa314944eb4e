// Package lexicon holds every keyword and phrase list the engine matches
// against. Lists that look alike but are tuned for different callers are kept
// as separate named variants instead of being merged.
package lexicon

import "regexp"

// DefaultPersonaCrisisKeywords is the crisis set a training persona carries
// when its catalog entry does not override it.
var DefaultPersonaCrisisKeywords = []string{
	"hurt myself",
	"end it all",
	"better off dead",
	"no point",
	"give up",
}

// SupportCrisisTerms is the variant used against user messages in support
// mode, where the user speaks about themselves rather than a persona.
var SupportCrisisTerms = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"end it all",
	"hurt myself",
	"self-harm",
	"self harm",
	"want to die",
	"better off dead",
	"no reason to live",
}

// SuggestionCrisisTerms decides whether the crisis suggestion set is
// attached to a turn. It is broader than the persona set because it guards
// what the user is offered next, in either mode.
var SuggestionCrisisTerms = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"end it all",
	"hurt myself",
	"self-harm",
	"self harm",
	"want to die",
	"better off dead",
	"no point",
	"give up",
	"can't go on",
}

// PositiveResponsePatterns match active-listening and validating phrasing.
// Order is significant only for the explanation reported by the heuristic
// evaluator.
var PositiveResponsePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi hear you\b`),
	regexp.MustCompile(`(?i)\bthat sounds (really |very |so )?(difficult|hard|tough|painful|overwhelming|exhausting)\b`),
	regexp.MustCompile(`(?i)\btell me more\b`),
	regexp.MustCompile(`(?i)\bi understand\b`),
	regexp.MustCompile(`(?i)\bthat must (be|feel)\b`),
	regexp.MustCompile(`(?i)\bhow (are|do) you feel(ing)?\b`),
	regexp.MustCompile(`(?i)\bit makes sense (that|you)\b`),
	regexp.MustCompile(`(?i)\bi'?m here (for you|to listen|with you)\b`),
	regexp.MustCompile(`(?i)\bthank you for (sharing|telling me|trusting me)\b`),
	regexp.MustCompile(`(?i)\bwhat('s| is| has) (that|it) been like\b`),
	regexp.MustCompile(`(?i)\byour feelings are valid\b`),
}

// NegativeResponsePatterns match dismissive or advice-first phrasing.
var NegativeResponsePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\byou should\b`),
	regexp.MustCompile(`(?i)\bjust calm down\b`),
	regexp.MustCompile(`(?i)\bnot my problem\b`),
	regexp.MustCompile(`(?i)\bget over it\b`),
	regexp.MustCompile(`(?i)\bstop (being|crying|complaining|whining)\b`),
	regexp.MustCompile(`(?i)\byou'?re overreacting\b`),
	regexp.MustCompile(`(?i)\bit'?s not that bad\b`),
	regexp.MustCompile(`(?i)\bothers have it worse\b`),
	regexp.MustCompile(`(?i)\bman up\b`),
	regexp.MustCompile(`(?i)\bcheer up\b`),
	regexp.MustCompile(`(?i)\bsnap out of it\b`),
}

// CrisisRecognitionTerms mark a user message that names or asks about risk.
var CrisisRecognitionTerms = []string{
	"suicide",
	"suicidal",
	"kill yourself",
	"hurt yourself",
	"harm yourself",
	"are you safe",
	"your safety",
	"crisis",
	"hotline",
	"988",
	"emergency",
	"professional help",
	"therapist",
	"counselor",
	"thinking of ending",
}

// EmpathyTerms mark a user message as validating or listening-oriented.
var EmpathyTerms = []string{
	"understand",
	"hear you",
	"sounds",
	"must be",
	"feel",
	"difficult",
	"sorry",
	"here for you",
	"valid",
	"makes sense",
	"tell me more",
}

// InappropriateTerms mark a user message as dismissive or harmful. This is
// the session-report variant; the per-turn heuristic uses
// NegativeResponsePatterns.
var InappropriateTerms = []string{
	"get over it",
	"calm down",
	"stop crying",
	"not a big deal",
	"overreacting",
	"your fault",
	"shut up",
	"man up",
	"whatever",
	"attention seeking",
	"not my problem",
}

// DeescalationTerms mark an assistant (persona) message that shows the
// persona settling.
var DeescalationTerms = []string{
	"thank you",
	"thanks",
	"feel better",
	"a bit better",
	"calmer",
	"maybe you're right",
	"i'll try",
	"that helps",
	"okay",
	"i guess",
}

// AcknowledgmentTerms mark a later user message that picks the calmer tone up.
var AcknowledgmentTerms = []string{
	"okay",
	"thanks",
	"thank you",
	"better",
	"help",
	"glad",
	"good",
}

// CrisisParaphrases lists common rewordings of crisis keywords. A keyword
// counts as matched when it or one of its paraphrases occurs in the text.
var CrisisParaphrases = map[string][]string{
	"no point": {
		"don't see the point",
		"dont see the point",
		"can't see the point",
		"cant see the point",
		"what's the point",
		"whats the point",
		"there's no point",
	},
	"give up": {
		"giving up",
		"gave up",
	},
	"end it all": {
		"ending it all",
	},
	"hurt myself": {
		"hurting myself",
	},
	"kill myself": {
		"killing myself",
	},
}
