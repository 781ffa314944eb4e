// Package prompt composes system instructions for the language model. Output
// is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/transcript"
)

// BuildSystemPrompt returns the system instruction for identity in mode.
// Companions in support mode use their pre-authored prompt verbatim; every
// other combination is rendered as a persona training simulation.
func BuildSystemPrompt(identity catalog.Identity, mode catalog.Mode) string {
	switch id := identity.(type) {
	case catalog.Companion:
		if mode == catalog.ModeSupport {
			return id.SystemPrompt
		}
		return personaPrompt(catalog.AsPersonaLike(id))
	case *catalog.Companion:
		if id == nil {
			return ""
		}
		return BuildSystemPrompt(*id, mode)
	case catalog.Persona:
		return personaPrompt(id)
	case *catalog.Persona:
		if id == nil {
			return ""
		}
		return personaPrompt(*id)
	default:
		return ""
	}
}

func personaPrompt(p catalog.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a person living with %s. ", p.Name, orUnspecified(p.Condition))
	fmt.Fprintf(&b, "This is a %s-difficulty training simulation for someone practicing supportive listening.\n\n", orUnspecified(p.Difficulty))

	b.WriteString("Character profile:\n")
	fmt.Fprintf(&b, "- Traits: %s\n", joinOrNone(p.Traits))
	fmt.Fprintf(&b, "- Topics that upset you: %s\n", joinOrNone(p.TriggerTopics))
	fmt.Fprintf(&b, "- Phrases you may use when struggling most: %s\n\n", joinOrNone(p.CrisisKeywordsOrDefault()))

	b.WriteString("How to respond:\n")
	b.WriteString("1. Stay in character as ")
	b.WriteString(p.Name)
	b.WriteString(" and reply the way this person realistically would, in one to four sentences.\n")
	b.WriteString("2. Keep the conversation safe. Never describe methods of self-harm and never encourage self-harm or suicide.\n")
	b.WriteString("3. When the user shows genuine concern, listens, or validates your feelings, gradually soften and open up a little more.\n")
	b.WriteString("4. When the user dismisses you or rushes to advice, become more guarded.\n")
	b.WriteString("5. Express the reluctance people often feel when professional help is suggested, without refusing it outright.\n")
	b.WriteString("6. Do not break character to coach the user or comment on their technique.\n\n")

	b.WriteString("[TRAINING SIMULATION] Everything in this conversation is a labeled role-play exercise. ")
	b.WriteString("If the user appears to be in real distress themselves, step out of character and point them to a crisis line such as 988.")
	return b.String()
}

// EvaluationRubric is the system prompt used when the model scores a
// trainee's message.
func EvaluationRubric() string {
	return strings.Join([]string{
		"You evaluate messages written by someone practicing empathetic support in a training simulation.",
		"Score only the trainee's latest message, using the conversation for context.",
		"Scoring bands:",
		"+15: highly empathetic, validates feelings, invites the person to share more",
		"+10: empathetic and supportive",
		"+5: somewhat empathetic, kind but generic",
		"0: neutral, neither helpful nor harmful",
		"-5: somewhat dismissive or rushes to advice",
		"-10: dismissive, minimizes feelings",
		"-15: very dismissive, blaming or harmful",
		`Reply with a single JSON object and nothing else: {"scoreChange": <integer from -15 to 15>, "explanation": "<one sentence>"}`,
	}, "\n")
}

// EvaluationRequest renders the conversation and the candidate message for
// the rubric.
func EvaluationRequest(identityLabel string, history []transcript.Turn, message string) string {
	var b strings.Builder
	label := strings.TrimSpace(identityLabel)
	if label == "" {
		label = "the persona"
	}
	fmt.Fprintf(&b, "Conversation with %s so far:\n", label)
	if len(history) == 0 {
		b.WriteString("(no earlier messages)\n")
	}
	for _, t := range history {
		speaker := "Trainee"
		if t.Role == transcript.RoleAssistant {
			speaker = label
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, strings.TrimSpace(t.Content))
	}
	fmt.Fprintf(&b, "\nTrainee's message to evaluate:\n%s\n", strings.TrimSpace(message))
	return b.String()
}

func joinOrNone(items []string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return "none listed"
	}
	return strings.Join(out, ", ")
}

func orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unspecified"
	}
	return strings.TrimSpace(v)
}
