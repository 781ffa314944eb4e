package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flexonb/mindhack/internal/reliability"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the chat sequence sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the normalized request handed to a provider.
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// Response is the provider's reply text.
type Response struct {
	Text string
}

// Provider sends one request to a language-model backend. Implementations
// return *StatusError for non-2xx replies and an error matching
// ErrApplication when a transport-successful reply carries an error.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// StatusError is a non-2xx reply from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Code, e.Body)
}

func (e *StatusError) HTTPStatus() int { return e.Code }

// ErrApplication matches provider replies that succeeded at the transport
// level but report an error in their payload.
var ErrApplication = errors.New("provider application error")

type ApplicationError struct {
	Provider string
	Code     string
	Message  string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s application error %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ApplicationError) Is(target error) bool {
	return target == ErrApplication || target == reliability.ErrPermanent
}

// Config controls provider construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
}

// NewProvider builds the provider selected by cfg.Mode. "auto" picks gemini
// for gemini-* models, the OpenAI-compatible client when an API key is
// present, and the mock otherwise.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}
	hasKey := strings.TrimSpace(cfg.APIKey) != ""

	switch mode {
	case "auto":
		if !hasKey {
			return NewMockProvider(), nil
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Model)), "gemini") {
			return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "openai":
		if !hasKey {
			return nil, errors.New("LLM_API_KEY is required for openai mode")
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "gemini":
		if !hasKey {
			return nil, errors.New("LLM_API_KEY is required for gemini mode")
		}
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider mode %q", cfg.Mode)
	}
}
