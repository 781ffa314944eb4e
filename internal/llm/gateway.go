// Package llm is the boundary to the external language-model provider. The
// Gateway wraps a Provider with a per-attempt timeout, bounded sequential
// retries with exponential backoff, and a neutral fallback reply, so callers
// always get text back.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/reliability"
	"github.com/flexonb/mindhack/internal/transcript"
)

const DefaultFallbackMessage = "I'm having trouble responding right now. Please try sending your message again in a moment."

// Fallback reasons reported in Completion.Reason and metrics.
const (
	ReasonNone        = ""
	ReasonApplication = "application_error"
	ReasonTerminal    = "terminal_status"
	ReasonExhausted   = "retries_exhausted"
	ReasonCancelled   = "cancelled"
	ReasonEmpty       = "empty_reply"
)

type GatewayConfig struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	Timeout         time.Duration
	FallbackMessage string
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		MaxRetries:      2,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		Timeout:         20 * time.Second,
		FallbackMessage: DefaultFallbackMessage,
	}
}

// CompletionRequest is one conversational call: system prompt, prior turns
// in order, then the new user message.
type CompletionRequest struct {
	SystemPrompt string
	History      []transcript.Turn
	UserMessage  string
	Temperature  *float64
	MaxTokens    int
}

// Completion is always usable as a reply. Degraded is set when Content is
// the fallback message rather than provider output.
type Completion struct {
	Content  string
	Degraded bool
	Attempts int
	Reason   string
}

type Gateway struct {
	provider Provider
	cfg      GatewayConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

type GatewayOption func(*Gateway)

func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logging.OrNop(l) }
}

func WithMetrics(m *observability.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

func NewGateway(provider Provider, cfg GatewayConfig, opts ...GatewayOption) *Gateway {
	def := DefaultGatewayConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if strings.TrimSpace(cfg.FallbackMessage) == "" {
		cfg.FallbackMessage = def.FallbackMessage
	}
	g := &Gateway{
		provider: provider,
		cfg:      cfg,
		logger:   zap.NewNop(),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) ProviderName() string {
	if g == nil || g.provider == nil {
		return "none"
	}
	return g.provider.Name()
}

// Complete sends req to the provider, retrying transient failures. It never
// returns an error; failures end in the fallback message.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) Completion {
	if ctx == nil {
		ctx = context.Background()
	}
	started := g.now()
	defer func() { g.metrics.ObserveGatewayLatency(g.now().Sub(started)) }()

	if g.provider == nil {
		return g.fallback(0, ReasonTerminal)
	}

	providerReq := Request{
		Messages:    BuildMessages(req.SystemPrompt, req.History, req.UserMessage),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	name := g.provider.Name()

	for attempt := 1; ; attempt++ {
		resp, err := g.attempt(ctx, providerReq)
		outcome := reliability.Classify(ctx, err)
		g.metrics.ObserveGatewayAttempt(name, outcome.String())

		switch outcome {
		case reliability.OutcomeSuccess:
			if strings.TrimSpace(resp.Text) == "" {
				g.logger.Warn("llm provider returned empty reply", zap.String("provider", name), zap.Int("attempt", attempt))
				return g.fallback(attempt, ReasonEmpty)
			}
			return Completion{Content: resp.Text, Attempts: attempt}
		case reliability.OutcomeFail:
			reason := failReason(ctx, err)
			g.logger.Warn("llm request failed",
				zap.String("provider", name),
				zap.Int("attempt", attempt),
				zap.String("reason", reason),
				zap.Error(err))
			return g.fallback(attempt, reason)
		}

		if attempt > g.cfg.MaxRetries {
			g.logger.Warn("llm retries exhausted",
				zap.String("provider", name),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return g.fallback(attempt, ReasonExhausted)
		}

		delay := reliability.RetryDelay(attempt, g.cfg.BaseDelay, g.cfg.MaxDelay)
		g.logger.Info("llm request failed, retrying",
			zap.String("provider", name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := g.sleep(ctx, delay); err != nil {
			return g.fallback(attempt, ReasonCancelled)
		}
	}
}

func (g *Gateway) attempt(ctx context.Context, req Request) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return g.provider.Complete(attemptCtx, req)
}

func (g *Gateway) fallback(attempts int, reason string) Completion {
	g.metrics.ObserveGatewayFallback(reason)
	return Completion{
		Content:  g.cfg.FallbackMessage,
		Degraded: true,
		Attempts: attempts,
		Reason:   reason,
	}
}

func failReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return ReasonCancelled
	case errors.Is(err, ErrApplication):
		return ReasonApplication
	default:
		return ReasonTerminal
	}
}

// BuildMessages orders the provider sequence: system prompt, history, then
// the new user message. history is not modified.
func BuildMessages(systemPrompt string, history []transcript.Turn, userMessage string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	}
	for _, t := range history {
		role := RoleUser
		if t.Role == transcript.RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: userMessage})
	return msgs
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
