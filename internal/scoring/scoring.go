// Package scoring builds the end-of-session report from a full transcript.
// Score is pure and can be called repeatedly on the same turns.
package scoring

import (
	"fmt"
	"math"
	"regexp"

	"github.com/flexonb/mindhack/internal/lexicon"
	"github.com/flexonb/mindhack/internal/transcript"
)

const (
	WeightCrisisRecognition = 0.30
	WeightEmpathy           = 0.30
	WeightAppropriateness   = 0.25
	WeightDeescalation      = 0.15
)

const (
	firstMessageWeight    = 2.0
	empathyFrameBonus     = 0.5
	empathyNormalizer     = 0.5
	inappropriatePenalty  = 0.25
	deescalationIncrement = 0.3
)

// Report holds the four dimensions and their weighted sum, each in [0,1]
// rounded to two decimals.
type Report struct {
	CrisisRecognition float64 `json:"crisisRecognition"`
	Empathy           float64 `json:"empathy"`
	Appropriateness   float64 `json:"appropriateness"`
	Deescalation      float64 `json:"deescalation"`
	Overall           float64 `json:"overall"`
}

var (
	firstPersonRE = regexp.MustCompile(`(?i)\bi\b`)
	listeningRE   = regexp.MustCompile(`(?i)\b(hear|understand)`)
)

func Score(turns []transcript.Turn) Report {
	user, _ := transcript.Split(turns)

	r := Report{
		CrisisRecognition: round2(crisisRecognition(user)),
		Empathy:           round2(empathy(user)),
		Appropriateness:   round2(appropriateness(user)),
		Deescalation:      round2(deescalation(turns)),
	}
	r.Overall = Overall(r)
	return r
}

// Overall is the weighted sum of the report's four dimensions.
func Overall(r Report) float64 {
	return round2(WeightCrisisRecognition*r.CrisisRecognition +
		WeightEmpathy*r.Empathy +
		WeightAppropriateness*r.Appropriateness +
		WeightDeescalation*r.Deescalation)
}

func crisisRecognition(user []transcript.Turn) float64 {
	if len(user) == 0 {
		return 0
	}
	var hits, total float64
	for i, t := range user {
		w := 1.0
		if i == 0 {
			w = firstMessageWeight
		}
		total += w
		if lexicon.ContainsAny(t.Content, lexicon.CrisisRecognitionTerms) {
			hits += w
		}
	}
	return hits / total
}

func empathy(user []transcript.Turn) float64 {
	if len(user) == 0 {
		return 0
	}
	var score float64
	for _, t := range user {
		if lexicon.ContainsAny(t.Content, lexicon.EmpathyTerms) {
			score++
		}
		if firstPersonRE.MatchString(t.Content) && listeningRE.MatchString(t.Content) {
			score += empathyFrameBonus
		}
	}
	return math.Min(1, score/math.Max(1, float64(len(user))*empathyNormalizer))
}

func appropriateness(user []transcript.Turn) float64 {
	if len(user) == 0 {
		return 1
	}
	var penalty float64
	for _, t := range user {
		if lexicon.ContainsAny(t.Content, lexicon.InappropriateTerms) {
			penalty += inappropriatePenalty
		}
	}
	return 1 - math.Min(1, penalty)
}

// deescalation credits each assistant message that settles down when some
// later user message acknowledges it.
func deescalation(turns []transcript.Turn) float64 {
	var score float64
	for i, t := range turns {
		if t.Role != transcript.RoleAssistant || !lexicon.ContainsAny(t.Content, lexicon.DeescalationTerms) {
			continue
		}
		if acknowledgedAfter(turns[i+1:]) {
			score += deescalationIncrement
		}
	}
	return math.Min(1, score)
}

func acknowledgedAfter(rest []transcript.Turn) bool {
	for _, t := range rest {
		if t.Role == transcript.RoleUser && lexicon.ContainsAny(t.Content, lexicon.AcknowledgmentTerms) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summary renders the report as one human-readable line.
func (r Report) Summary() string {
	return fmt.Sprintf("crisis recognition %.0f%%, empathy %.0f%%, appropriateness %.0f%%, de-escalation %.0f%%, overall %.0f%%",
		r.CrisisRecognition*100, r.Empathy*100, r.Appropriateness*100, r.Deescalation*100, r.Overall*100)
}
