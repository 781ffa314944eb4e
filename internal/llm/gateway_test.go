package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/transcript"
)

// The genai dependency links in opencensus, whose init starts a worker
// goroutine that lives for the whole test binary.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

type scriptedProvider struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) (Response, error)
	calls int
	last  Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = req
	i := p.calls
	p.calls++
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	return p.steps[i](ctx)
}

func reply(text string) func(context.Context) (Response, error) {
	return func(context.Context) (Response, error) { return Response{Text: text}, nil }
}

func status(code int) func(context.Context) (Response, error) {
	return func(context.Context) (Response, error) {
		return Response{}, &StatusError{Provider: "scripted", Code: code}
	}
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestGateway(p Provider, sleeps *recordedSleeps, opts ...GatewayOption) *Gateway {
	cfg := DefaultGatewayConfig()
	opts = append(opts, WithSleeper(sleeps.sleep))
	return NewGateway(p, cfg, opts...)
}

func TestGatewayRetriesServerErrorsThenSucceeds(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	p := &scriptedProvider{steps: []func(context.Context) (Response, error){status(500), status(500), reply("Hello there")}}
	sleeps := &recordedSleeps{}
	g := newTestGateway(p, sleeps)

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if got.Degraded {
		t.Fatalf("Complete() degraded, reason = %q", got.Reason)
	}
	if got.Content != "Hello there" {
		t.Fatalf("Content = %q, want %q", got.Content, "Hello there")
	}
	if got.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", got.Attempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(sleeps.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleeps.delays, want)
	}
	for i := range want {
		if sleeps.delays[i] != want[i] {
			t.Fatalf("delays[%d] = %v, want %v", i, sleeps.delays[i], want[i])
		}
	}
}

func TestGatewayDoesNotRetryClientErrors(t *testing.T) {
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){status(400)}}
	sleeps := &recordedSleeps{}
	g := newTestGateway(p, sleeps)

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Content != DefaultFallbackMessage {
		t.Fatalf("Complete() = %+v, want fallback", got)
	}
	if got.Reason != ReasonTerminal {
		t.Fatalf("Reason = %q, want %q", got.Reason, ReasonTerminal)
	}
	if p.calls != 1 || len(sleeps.delays) != 0 {
		t.Fatalf("calls = %d, sleeps = %d, want 1 and 0", p.calls, len(sleeps.delays))
	}
}

func TestGatewayRetriesRateLimitUntilExhausted(t *testing.T) {
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){status(429)}}
	sleeps := &recordedSleeps{}
	g := newTestGateway(p, sleeps)

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Reason != ReasonExhausted {
		t.Fatalf("Complete() = %+v, want exhausted fallback", got)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3", p.calls)
	}
}

func TestGatewayRetriesNetworkErrors(t *testing.T) {
	netErr := func(context.Context) (Response, error) { return Response{}, errors.New("connection reset") }
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){netErr, reply("ok now")}}
	sleeps := &recordedSleeps{}
	g := newTestGateway(p, sleeps)

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if got.Degraded || got.Content != "ok now" {
		t.Fatalf("Complete() = %+v, want success after retry", got)
	}
}

func TestGatewayApplicationErrorFallsBackWithoutRetry(t *testing.T) {
	appErr := func(context.Context) (Response, error) {
		return Response{}, &ApplicationError{Provider: "scripted", Code: "1301", Message: "content filtered"}
	}
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){appErr}}
	sleeps := &recordedSleeps{}
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)
	g := newTestGateway(p, sleeps, WithMetrics(m))

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Reason != ReasonApplication {
		t.Fatalf("Complete() = %+v, want application fallback", got)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}
	if v := testutil.ToFloat64(m.GatewayFallbacks.WithLabelValues(ReasonApplication)); v != 1 {
		t.Fatalf("fallback counter = %v, want 1", v)
	}
}

func TestGatewayEmptyReplyFallsBack(t *testing.T) {
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){reply("   ")}}
	g := newTestGateway(p, &recordedSleeps{})

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Reason != ReasonEmpty {
		t.Fatalf("Complete() = %+v, want empty fallback", got)
	}
}

func TestGatewayHonorsCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	p := &scriptedProvider{steps: []func(context.Context) (Response, error){
		func(ctx context.Context) (Response, error) { return Response{}, ctx.Err() },
	}}
	sleeps := &recordedSleeps{}
	g := newTestGateway(p, sleeps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := g.Complete(ctx, CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Reason != ReasonCancelled {
		t.Fatalf("Complete() = %+v, want cancelled fallback", got)
	}
	if len(sleeps.delays) != 0 {
		t.Fatalf("slept %v after cancellation", sleeps.delays)
	}
}

func TestGatewayAttemptTimeoutIsRetried(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	slow := func(ctx context.Context) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}
	p := &scriptedProvider{steps: []func(context.Context) (Response, error){slow, reply("made it")}}
	sleeps := &recordedSleeps{}
	cfg := DefaultGatewayConfig()
	cfg.Timeout = 10 * time.Millisecond
	g := NewGateway(p, cfg, WithSleeper(sleeps.sleep))

	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if got.Degraded || got.Content != "made it" {
		t.Fatalf("Complete() = %+v, want success after timeout retry", got)
	}
	if got.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", got.Attempts)
	}
}

func TestGatewayNilProviderFallsBack(t *testing.T) {
	g := NewGateway(nil, GatewayConfig{FallbackMessage: "try later"})
	got := g.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !got.Degraded || got.Content != "try later" {
		t.Fatalf("Complete() = %+v, want configured fallback", got)
	}
}

func TestBuildMessagesOrder(t *testing.T) {
	history := []transcript.Turn{
		{Role: transcript.RoleAssistant, Content: "Hi, I'm Alex."},
		{Role: transcript.RoleUser, Content: "Hello Alex"},
	}
	msgs := BuildMessages("system text", history, "How are you?")
	want := []Message{
		{Role: RoleSystem, Content: "system text"},
		{Role: RoleAssistant, Content: "Hi, I'm Alex."},
		{Role: RoleUser, Content: "Hello Alex"},
		{Role: RoleUser, Content: "How are you?"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("len(msgs) = %d, want %d", len(msgs), len(want))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("msgs[%d] = %+v, want %+v", i, msgs[i], want[i])
		}
	}
	if history[0].Content != "Hi, I'm Alex." {
		t.Fatalf("history modified")
	}
}
