package evaluation

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexonb/mindhack/internal/llm"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/transcript"
)

type fakeCompleter struct {
	completion llm.Completion
	last       llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) llm.Completion {
	f.last = req
	return f.completion
}

func TestHeuristicScenarioFirstTurn(t *testing.T) {
	h := NewHeuristic(nil)
	got := h.Evaluate(context.Background(), "I hear you, that sounds really difficult. Can you tell me more?", nil, "Alex")
	if got.ScoreChange != 15 {
		t.Fatalf("ScoreChange = %d, want 15", got.ScoreChange)
	}
}

func TestHeuristicScores(t *testing.T) {
	h := NewHeuristic(nil)
	tests := []struct {
		name    string
		message string
		turn    int
		want    int
	}{
		{name: "positive late", message: "I understand, that must be hard.", turn: 4, want: 10},
		{name: "positive early", message: "I understand.", turn: 3, want: 15},
		{name: "negative early", message: "You should just go for a run.", turn: 1, want: -15},
		{name: "negative turn two", message: "Just calm down.", turn: 2, want: -15},
		{name: "negative late", message: "Just calm down.", turn: 3, want: -10},
		{name: "mixed counts as negative", message: "I hear you, but you should get over it.", turn: 5, want: -10},
		{name: "question", message: "What happened today?", turn: 6, want: 2},
		{name: "neutral", message: "Okay.", turn: 1, want: 0},
		{name: "empty", message: "", turn: 1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Score(tt.message, tt.turn)
			if got.ScoreChange != tt.want {
				t.Fatalf("Score(%q, %d) = %d, want %d", tt.message, tt.turn, got.ScoreChange, tt.want)
			}
			if got.Explanation == "" {
				t.Fatalf("Score(%q, %d) explanation empty", tt.message, tt.turn)
			}
		})
	}
}

func TestHeuristicTurnFromHistory(t *testing.T) {
	h := NewHeuristic(nil)
	history := []transcript.Turn{
		{Role: transcript.RoleAssistant, Content: "hi"},
		{Role: transcript.RoleUser, Content: "hello"},
		{Role: transcript.RoleAssistant, Content: "..."},
		{Role: transcript.RoleUser, Content: "how are you?"},
		{Role: transcript.RoleUser, Content: "still there?"},
	}
	// Fourth user turn: no early bonus.
	got := h.Evaluate(context.Background(), "I hear you.", history, "Alex")
	assert.Equal(t, 10, got.ScoreChange)
}

func TestHeuristicBoundedAndDeterministic(t *testing.T) {
	h := NewHeuristic(nil)
	messages := []string{
		"I hear you. Tell me more. I understand.",
		"Get over it, you should stop crying, man up.",
		"???",
		strings.Repeat("that sounds hard ", 50),
	}
	for _, msg := range messages {
		for turn := 1; turn <= 6; turn++ {
			a := h.Score(msg, turn)
			b := h.Score(msg, turn)
			require.Equal(t, a, b)
			require.GreaterOrEqual(t, a.ScoreChange, MinScore)
			require.LessOrEqual(t, a.ScoreChange, MaxScore)
		}
	}
}

func TestModelAssistedParseTiers(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{name: "json", reply: `{"scoreChange": 12, "explanation": "Warm and curious."}`, want: 12},
		{name: "json in prose", reply: "Sure! Here you go:\n```json\n{\"scoreChange\": -7, \"explanation\": \"Rushed.\"}\n```", want: -7},
		{name: "snake case json", reply: `{"score_change": 4}`, want: 4},
		{name: "json clamped", reply: `{"scoreChange": 40}`, want: 15},
		{name: "token", reply: `scoreChange: -12 because it minimizes`, want: -12},
		{name: "token clamped", reply: `scoreChange = -99`, want: -15},
		{name: "phrase specific", reply: "This was somewhat empathetic overall.", want: 5},
		{name: "phrase highly", reply: "Highly empathetic response.", want: 15},
		{name: "phrase dismissive", reply: "Rather dismissive.", want: -10},
		{name: "phrase neutral", reply: "Neutral.", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{completion: llm.Completion{Content: tt.reply, Attempts: 1}}
			m := NewModelAssisted(c, nil, nil, nil)
			got := m.Evaluate(context.Background(), "whatever you say", nil, "Alex")
			if got.ScoreChange != tt.want {
				t.Fatalf("Evaluate() with reply %q = %d, want %d", tt.reply, got.ScoreChange, tt.want)
			}
		})
	}
}

func TestModelAssistedSendsRubric(t *testing.T) {
	c := &fakeCompleter{completion: llm.Completion{Content: `{"scoreChange": 1}`}}
	m := NewModelAssisted(c, nil, nil, nil)
	history := []transcript.Turn{{Role: transcript.RoleAssistant, Content: "I can't sleep."}}
	m.Evaluate(context.Background(), "That sounds hard.", history, "Alex")

	require.NotNil(t, c.last.Temperature)
	assert.InDelta(t, 0.1, *c.last.Temperature, 1e-9)
	assert.Contains(t, c.last.SystemPrompt, `"scoreChange"`)
	assert.Contains(t, c.last.UserMessage, "Alex: I can't sleep.")
	assert.Contains(t, c.last.UserMessage, "That sounds hard.")
	assert.Empty(t, c.last.History)
}

func TestModelAssistedFailureMatchesHeuristic(t *testing.T) {
	h := NewHeuristic(nil)
	history := []transcript.Turn{{Role: transcript.RoleUser, Content: "hi"}}
	messages := []string{
		"I hear you, that sounds really difficult. Can you tell me more?",
		"You should just relax.",
		"Why?",
		"ok",
	}
	completions := []llm.Completion{
		{Content: llm.DefaultFallbackMessage, Degraded: true, Reason: llm.ReasonExhausted},
		{Content: "I cannot help with that request."},
	}
	for _, completion := range completions {
		for _, msg := range messages {
			m := NewModelAssisted(&fakeCompleter{completion: completion}, h, nil, nil)
			got := m.Evaluate(context.Background(), msg, history, "Alex")
			want := h.Evaluate(context.Background(), msg, history, "Alex")
			if got != want {
				t.Fatalf("Evaluate(%q) with %+v = %+v, want heuristic %+v", msg, completion, got, want)
			}
		}
	}
}

func TestModelAssistedCountsTiers(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	m := NewModelAssisted(&fakeCompleter{completion: llm.Completion{Degraded: true}}, nil, nil, metrics)
	m.Evaluate(context.Background(), "hello", nil, "Alex")

	v := testutil.ToFloat64(metrics.Evaluations.WithLabelValues(ModeModel, "heuristic_fallback"))
	assert.Equal(t, float64(1), v)
}

func TestNewSelectsStrategy(t *testing.T) {
	e, err := New("heuristic", &fakeCompleter{}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Heuristic{}, e)

	e, err = New("model", &fakeCompleter{}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &ModelAssisted{}, e)

	e, err = New("", nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Heuristic{}, e)

	_, err = New("oracle", nil, nil, nil)
	assert.Error(t, err)
}

func TestModelModeWithOfflineProviderUsesHeuristic(t *testing.T) {
	gateway := llm.NewGateway(llm.NewMockProvider(), llm.DefaultGatewayConfig())
	e, err := New(ModeModel, gateway, nil, nil)
	require.NoError(t, err)

	msg := "I hear you, that sounds really difficult. Can you tell me more?"
	got := e.Evaluate(context.Background(), msg, nil, "Alex")
	want := NewHeuristic(nil).Score(msg, 1)
	if got != want {
		t.Fatalf("Evaluate() = %+v, want heuristic %+v", got, want)
	}
	assert.Equal(t, 15, got.ScoreChange)
}

func TestParseOutOfRangeScoresSaturate(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (ScoreDelta, error)
		reply string
		want  int
	}{
		{name: "huge json", parse: parseJSONObject, reply: `{"scoreChange": 1e300}`, want: 15},
		{name: "huge negative json", parse: parseJSONObject, reply: `{"scoreChange": -1e300}`, want: -15},
		{name: "overflowing token", parse: parseScoreToken, reply: "scoreChange: 99999999999999999999", want: 15},
		{name: "overflowing negative token", parse: parseScoreToken, reply: "scoreChange: -99999999999999999999", want: -15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.reply)
			if err != nil {
				t.Fatalf("parse(%q) error = %v", tt.reply, err)
			}
			if got.ScoreChange != tt.want {
				t.Fatalf("parse(%q) = %d, want %d", tt.reply, got.ScoreChange, tt.want)
			}
		})
	}
}

func TestParsePhraseSkipsNegatedPhrases(t *testing.T) {
	tests := []struct {
		reply   string
		want    int
		wantErr bool
	}{
		{reply: "The reply was not dismissive at all.", wantErr: true},
		{reply: "It isn't very dismissive.", wantErr: true},
		{reply: "Not dismissive; it is somewhat empathetic.", want: 5},
		{reply: "Never empathetic, quite dismissive.", want: -10},
		{reply: "Dismissive.", want: -10},
	}
	for _, tt := range tests {
		got, err := parsePhrase(tt.reply)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parsePhrase(%q) = %+v, want no match", tt.reply, got)
			}
			continue
		}
		if err != nil || got.ScoreChange != tt.want {
			t.Fatalf("parsePhrase(%q) = %+v, %v, want %d", tt.reply, got, err, tt.want)
		}
	}
}
