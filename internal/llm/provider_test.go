package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flexonb/mindhack/internal/reliability"
)

func TestOpenAIProviderSuccess(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  I'm listening.  "}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL+"/", "key-1", "test-model")
	resp, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "I'm listening." {
		t.Fatalf("Text = %q, want %q", resp.Text, "I'm listening.")
	}
	if got.Model != "test-model" || len(got.Messages) != 1 {
		t.Fatalf("request = %+v", got)
	}
}

func TestOpenAIProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "")
	_, err := p.Complete(context.Background(), Request{})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("Complete() error = %v, want 503 StatusError", err)
	}
	if got := reliability.Classify(context.Background(), err); got != reliability.OutcomeRetry {
		t.Fatalf("Classify() = %v, want retry", got)
	}
}

func TestOpenAIProviderApplicationErrors(t *testing.T) {
	bodies := map[string]string{
		"error object": `{"error":{"code":"content_filter","message":"blocked"}}`,
		"top-level":    `{"code":1301,"msg":"sensitive content"}`,
		"no choices":   `{"choices":[]}`,
		"invalid json": `not json`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewOpenAIProvider(srv.URL, "k", "").Complete(context.Background(), Request{})
			if !errors.Is(err, ErrApplication) {
				t.Fatalf("Complete() error = %v, want ErrApplication", err)
			}
			if got := reliability.Classify(context.Background(), err); got != reliability.OutcomeFail {
				t.Fatalf("Classify() = %v, want fail", got)
			}
		})
	}
}

func TestMockProviderReplies(t *testing.T) {
	p := NewMockProvider()
	resp, err := p.Complete(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: "be kind"},
		{Role: RoleUser, Content: "I feel tired"},
	}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(resp.Text, "I feel tired") {
		t.Fatalf("Text = %q, want echo of user message", resp.Text)
	}

	resp, _ = p.Complete(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: `Respond with {"scoreChange": n}`},
		{Role: RoleUser, Content: "evaluate"},
	}})
	if resp.Text != mockRubricReply || strings.Contains(resp.Text, "{") {
		t.Fatalf("Text = %q, want reply without a verdict", resp.Text)
	}
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    string
		wantErr bool
	}{
		{cfg: Config{}, want: "mock"},
		{cfg: Config{Mode: "auto", APIKey: "k"}, want: "openai"},
		{cfg: Config{Mode: "mock", APIKey: "k"}, want: "mock"},
		{cfg: Config{Mode: "openai"}, wantErr: true},
		{cfg: Config{Mode: "gemini"}, wantErr: true},
		{cfg: Config{Mode: "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		p, err := NewProvider(context.Background(), tt.cfg)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("NewProvider(%+v) expected error", tt.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewProvider(%+v) error = %v", tt.cfg, err)
		}
		if p.Name() != tt.want {
			t.Fatalf("NewProvider(%+v).Name() = %q, want %q", tt.cfg, p.Name(), tt.want)
		}
	}
}

func TestToGeminiContentsMapsRoles(t *testing.T) {
	system, contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "hi"},
	})
	if system != "rules" {
		t.Fatalf("system = %q, want %q", system, "rules")
	}
	if len(contents) != 2 || contents[0].Role != "model" || contents[1].Role != "user" {
		t.Fatalf("contents roles unexpected: %+v", contents)
	}
}
