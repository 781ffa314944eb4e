// Package evaluation scores a trainee's message during a training session.
// Both strategies are total: they always return a ScoreDelta within
// [MinScore, MaxScore] and never an error.
package evaluation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/transcript"
)

const (
	MinScore = -15
	MaxScore = 15
)

type ScoreDelta struct {
	ScoreChange int    `json:"scoreChange"`
	Explanation string `json:"explanation"`
}

type Evaluator interface {
	Evaluate(ctx context.Context, message string, history []transcript.Turn, identityLabel string) ScoreDelta
}

const (
	ModeHeuristic = "heuristic"
	ModeModel     = "model"
)

// New returns the evaluator selected by mode. The model strategy needs a
// completer; without one it degrades to the heuristic.
func New(mode string, completer Completer, logger *zap.Logger, metrics *observability.Metrics) (Evaluator, error) {
	h := NewHeuristic(metrics)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeHeuristic:
		return h, nil
	case ModeModel, "":
		if completer == nil {
			return h, nil
		}
		return NewModelAssisted(completer, h, logger, metrics), nil
	default:
		return nil, fmt.Errorf("unsupported evaluator mode %q (expected heuristic|model)", mode)
	}
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func clamp64(v int64) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return int(v)
}
