// Package chat runs one conversational turn end to end: system prompt,
// model reply, crisis check on the user's own words, reply suggestions and,
// in training mode, a score for the trainee's message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/crisis"
	"github.com/flexonb/mindhack/internal/evaluation"
	"github.com/flexonb/mindhack/internal/lexicon"
	"github.com/flexonb/mindhack/internal/llm"
	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/prompt"
	"github.com/flexonb/mindhack/internal/scoring"
	"github.com/flexonb/mindhack/internal/session"
	"github.com/flexonb/mindhack/internal/suggest"
	"github.com/flexonb/mindhack/internal/transcript"
)

// ErrInvalidRequest marks caller mistakes such as a missing identity.
var ErrInvalidRequest = errors.New("invalid chat request")

const (
	replyTemperature = 0.8
	replyMaxTokens   = 400
)

type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) llm.Completion
}

type Request struct {
	Identity          catalog.Identity
	Mode              catalog.Mode
	History           []transcript.Turn
	UserMessage       string
	IsInitialGreeting bool
}

type Result struct {
	Response           string               `json:"response"`
	SuggestedResponses []suggest.Suggestion `json:"suggestedResponses"`
	ScoreChange        *int                 `json:"scoreChange,omitempty"`
	Explanation        string               `json:"explanation,omitempty"`
	CrisisDetected     bool                 `json:"crisisDetected"`
	CrisisSeverity     crisis.Severity      `json:"crisisSeverity,omitempty"`
	MatchedKeywords    []string             `json:"matchedKeywords,omitempty"`
	RecommendedStatus  session.Status       `json:"recommendedStatus,omitempty"`
	Degraded           bool                 `json:"degraded,omitempty"`

	// Finding is the raw detector output for callers that apply the
	// recommendation themselves.
	Finding crisis.Finding `json:"-"`
}

type Engine struct {
	catalog   *catalog.Catalog
	completer Completer
	evaluator evaluation.Evaluator
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func New(cat *catalog.Catalog, completer Completer, evaluator evaluation.Evaluator, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	if evaluator == nil {
		evaluator = evaluation.NewHeuristic(metrics)
	}
	return &Engine{
		catalog:   cat,
		completer: completer,
		evaluator: evaluator,
		logger:    logging.OrNop(logger),
		metrics:   metrics,
	}
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Resolve looks up the identity for mode: personas in training, companions
// in support. Unknown ids return an error wrapping catalog.ErrNotFound.
func (e *Engine) Resolve(mode catalog.Mode, id string) (catalog.Identity, error) {
	switch mode {
	case catalog.ModeTraining:
		p, err := e.catalog.Persona(id)
		if err != nil {
			return nil, err
		}
		return p, nil
	case catalog.ModeSupport:
		c, err := e.catalog.Companion(id)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unsupported mode %q", ErrInvalidRequest, mode)
	}
}

func (e *Engine) Chat(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}
	started := time.Now()
	defer func() { e.metrics.ObserveStage(observability.StageTurnTotal, time.Since(started)) }()

	if req.IsInitialGreeting {
		return Result{
			Response:           openingMessage(req.Identity),
			SuggestedResponses: suggest.Suggest(req.Identity, "", req.Mode),
			CrisisSeverity:     crisis.SeverityNone,
			RecommendedStatus:  session.StatusPending,
			Finding:            crisis.Finding{Severity: crisis.SeverityNone},
		}, nil
	}

	history := transcript.Clone(req.History)
	temperature := replyTemperature

	gatewayStarted := time.Now()
	completion := e.complete(ctx, llm.CompletionRequest{
		SystemPrompt: prompt.BuildSystemPrompt(req.Identity, req.Mode),
		History:      history,
		UserMessage:  req.UserMessage,
		Temperature:  &temperature,
		MaxTokens:    replyMaxTokens,
	})
	e.metrics.ObserveStage(observability.StageGatewayCall, time.Since(gatewayStarted))

	finding := crisis.Detect(req.UserMessage, crisisKeywords(req.Identity, req.Mode))
	e.metrics.ObserveCrisis(string(req.Mode), string(finding.Severity))
	if finding.Severity == crisis.SeverityCritical {
		e.logger.Warn("critical crisis language detected",
			zap.String("identity", req.Identity.IdentityID()),
			zap.String("mode", string(req.Mode)),
			zap.Strings("keywords", finding.MatchedKeywords))
	}

	res := Result{
		Response:           completion.Content,
		SuggestedResponses: suggest.Suggest(req.Identity, req.UserMessage, req.Mode),
		CrisisDetected:     finding.Detected,
		CrisisSeverity:     finding.Severity,
		MatchedKeywords:    finding.MatchedKeywords,
		RecommendedStatus:  session.Recommend(session.StatusActive, finding),
		Degraded:           completion.Degraded,
		Finding:            finding,
	}

	if req.Mode == catalog.ModeTraining {
		evalStarted := time.Now()
		delta := e.evaluator.Evaluate(ctx, req.UserMessage, history, req.Identity.DisplayName())
		e.metrics.ObserveStage(observability.StageEvaluation, time.Since(evalStarted))
		score := delta.ScoreChange
		res.ScoreChange = &score
		res.Explanation = delta.Explanation
	}
	return res, nil
}

// ScoreSession builds the end-of-session report for a full transcript.
func (e *Engine) ScoreSession(turns []transcript.Turn) scoring.Report {
	return scoring.Score(turns)
}

func (e *Engine) complete(ctx context.Context, req llm.CompletionRequest) llm.Completion {
	if e.completer == nil {
		return llm.Completion{Content: llm.DefaultFallbackMessage, Degraded: true, Reason: llm.ReasonTerminal}
	}
	return e.completer.Complete(ctx, req)
}

func validate(req Request) error {
	if req.Identity == nil {
		return fmt.Errorf("%w: identity is required", ErrInvalidRequest)
	}
	if req.Mode != catalog.ModeTraining && req.Mode != catalog.ModeSupport {
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidRequest, req.Mode)
	}
	if err := transcript.Validate(req.History); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !req.IsInitialGreeting && strings.TrimSpace(req.UserMessage) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	return nil
}

func crisisKeywords(identity catalog.Identity, mode catalog.Mode) []string {
	if mode == catalog.ModeSupport {
		return lexicon.SupportCrisisTerms
	}
	switch id := identity.(type) {
	case catalog.Persona:
		return id.CrisisKeywordsOrDefault()
	case *catalog.Persona:
		return id.CrisisKeywordsOrDefault()
	case catalog.Companion:
		return catalog.AsPersonaLike(id).CrisisKeywordsOrDefault()
	case *catalog.Companion:
		return catalog.AsPersonaLike(*id).CrisisKeywordsOrDefault()
	default:
		return lexicon.DefaultPersonaCrisisKeywords
	}
}

func openingMessage(identity catalog.Identity) string {
	switch id := identity.(type) {
	case catalog.Persona:
		return id.OpeningMessage()
	case *catalog.Persona:
		return id.OpeningMessage()
	case catalog.Companion:
		return catalog.AsPersonaLike(id).OpeningMessage()
	case *catalog.Companion:
		return catalog.AsPersonaLike(*id).OpeningMessage()
	default:
		return "Hi."
	}
}
