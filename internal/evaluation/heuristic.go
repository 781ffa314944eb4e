package evaluation

import (
	"context"
	"regexp"
	"strings"

	"github.com/flexonb/mindhack/internal/lexicon"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/transcript"
)

const (
	positiveBase       = 10
	positiveEarlyBonus = 5
	positiveEarlyTurns = 3
	negativeBase       = -10
	negativeEarlyExtra = -5
	negativeEarlyTurns = 2
	questionScore      = 2
)

// Heuristic scores messages with the lexicon's regular expressions. It makes
// no network calls.
type Heuristic struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
	metrics  *observability.Metrics
}

func NewHeuristic(metrics *observability.Metrics) *Heuristic {
	return &Heuristic{
		positive: lexicon.PositiveResponsePatterns,
		negative: lexicon.NegativeResponsePatterns,
		metrics:  metrics,
	}
}

func (h *Heuristic) Evaluate(_ context.Context, message string, history []transcript.Turn, _ string) ScoreDelta {
	h.metrics.ObserveEvaluation(ModeHeuristic, "heuristic")
	return h.Score(message, transcript.CountRole(history, transcript.RoleUser)+1)
}

// Score rates message as the userTurn-th (1-based) user turn.
func (h *Heuristic) Score(message string, userTurn int) ScoreDelta {
	pos := firstMatch(h.positive, message)
	neg := firstMatch(h.negative, message)

	switch {
	case pos != "" && neg == "":
		score := positiveBase
		if userTurn <= positiveEarlyTurns {
			score += positiveEarlyBonus
		}
		return ScoreDelta{
			ScoreChange: clamp(score),
			Explanation: "Supportive, validating response (\"" + pos + "\").",
		}
	case neg != "":
		score := negativeBase
		if userTurn <= negativeEarlyTurns {
			score += negativeEarlyExtra
		}
		return ScoreDelta{
			ScoreChange: clamp(score),
			Explanation: "Dismissive or advice-first response (\"" + neg + "\").",
		}
	case strings.Contains(message, "?"):
		return ScoreDelta{ScoreChange: questionScore, Explanation: "Asked a question to keep the conversation going."}
	default:
		return ScoreDelta{ScoreChange: 0, Explanation: "Neutral response."}
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindString(text); m != "" {
			return strings.ToLower(m)
		}
	}
	return ""
}
