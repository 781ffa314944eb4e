package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flexonb/mindhack/internal/reliability"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
// Timeouts are owned by the gateway through ctx.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	// Some compatible gateways report failures as a top-level code with 200.
	Code any    `json:"code"`
	Msg  string `json:"msg"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       p.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %v: %w", err, reliability.ErrPermanent)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %v: %w", err, reliability.ErrPermanent)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, &StatusError{Provider: p.Name(), Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, &ApplicationError{Provider: p.Name(), Code: "invalid_body", Message: err.Error()}
	}
	if out.Error != nil {
		return Response{}, &ApplicationError{Provider: p.Name(), Code: codeString(out.Error.Code, out.Error.Type), Message: out.Error.Message}
	}
	if c := codeString(out.Code, ""); c != "" && c != "0" && c != "200" {
		return Response{}, &ApplicationError{Provider: p.Name(), Code: c, Message: out.Msg}
	}
	if len(out.Choices) == 0 {
		return Response{}, &ApplicationError{Provider: p.Name(), Code: "empty_choices", Message: "no choices in reply"}
	}
	return Response{Text: strings.TrimSpace(out.Choices[0].Message.Content)}, nil
}

func codeString(v any, fallback string) string {
	switch c := v.(type) {
	case nil:
		return fallback
	case string:
		if c == "" {
			return fallback
		}
		return c
	case float64:
		return fmt.Sprintf("%.0f", c)
	default:
		return fmt.Sprint(c)
	}
}
