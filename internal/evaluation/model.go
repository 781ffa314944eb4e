package evaluation

import (
	"context"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/llm"
	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/prompt"
	"github.com/flexonb/mindhack/internal/transcript"
)

const (
	evaluationTemperature = 0.1
	evaluationMaxTokens   = 200
)

// Completer is the subset of *llm.Gateway the model evaluator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) llm.Completion
}

// ModelAssisted asks the model to score a message against the rubric and
// falls back to the heuristic when the reply cannot be used.
type ModelAssisted struct {
	completer Completer
	fallback  *Heuristic
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func NewModelAssisted(completer Completer, fallback *Heuristic, logger *zap.Logger, metrics *observability.Metrics) *ModelAssisted {
	if fallback == nil {
		fallback = NewHeuristic(nil)
	}
	return &ModelAssisted{
		completer: completer,
		fallback:  fallback,
		logger:    logging.OrNop(logger),
		metrics:   metrics,
	}
}

func (m *ModelAssisted) Evaluate(ctx context.Context, message string, history []transcript.Turn, identityLabel string) ScoreDelta {
	temperature := evaluationTemperature
	completion := m.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: prompt.EvaluationRubric(),
		UserMessage:  prompt.EvaluationRequest(identityLabel, history, message),
		Temperature:  &temperature,
		MaxTokens:    evaluationMaxTokens,
	})
	if completion.Degraded {
		m.logger.Debug("model evaluation unavailable, using heuristic", zap.String("reason", completion.Reason))
		return m.heuristic(message, history)
	}

	for _, tier := range parseChain {
		delta, err := tier.parse(completion.Content)
		if err != nil {
			continue
		}
		m.metrics.ObserveEvaluation(ModeModel, tier.name)
		delta.ScoreChange = clamp(delta.ScoreChange)
		return delta
	}

	m.logger.Debug("model evaluation unparseable, using heuristic", zap.Int("reply_len", len(completion.Content)))
	return m.heuristic(message, history)
}

func (m *ModelAssisted) heuristic(message string, history []transcript.Turn) ScoreDelta {
	m.metrics.ObserveEvaluation(ModeModel, "heuristic_fallback")
	return m.fallback.Score(message, transcript.CountRole(history, transcript.RoleUser)+1)
}
