// Package suggest picks the canned reply options shown under each assistant
// turn. Output is a fixed set chosen by tier, so identical input always
// yields identical suggestions.
package suggest

import (
	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/lexicon"
)

type Category string

const (
	CategoryConcern       Category = "concern"
	CategoryResource      Category = "resource"
	CategoryCrisisLine    Category = "crisis_line"
	CategoryEncouragement Category = "encouragement"
	CategoryExplore       Category = "explore"
	CategoryValidate      Category = "validate"
	CategoryReflect       Category = "reflect"
	CategoryCoping        Category = "coping"
	CategoryEmpathy       Category = "empathy"
	CategoryQuestion      Category = "open_question"
	CategoryListening     Category = "active_listening"
	CategorySafety        Category = "safety_check"
)

type Suggestion struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

var crisisSet = [4]Suggestion{
	{ID: "crisis-concern", Content: "I'm really concerned about what you just shared. Are you safe right now?", Category: CategoryConcern},
	{ID: "crisis-resource", Content: "Would it help if we looked at some support resources together?", Category: CategoryResource},
	{ID: "crisis-line", Content: "If you're thinking about hurting yourself, please call or text 988 to reach the Suicide & Crisis Lifeline right now.", Category: CategoryCrisisLine},
	{ID: "crisis-encourage", Content: "Thank you for telling me. You don't have to go through this alone.", Category: CategoryEncouragement},
}

var supportSet = [4]Suggestion{
	{ID: "support-explore", Content: "Can you tell me more about what's been on your mind?", Category: CategoryExplore},
	{ID: "support-validate", Content: "That sounds like a lot to carry. It makes sense you feel this way.", Category: CategoryValidate},
	{ID: "support-reflect", Content: "What do you think would help you feel a little better today?", Category: CategoryReflect},
	{ID: "support-coping", Content: "Would you like to try a short breathing exercise together?", Category: CategoryCoping},
}

var trainingSet = [4]Suggestion{
	{ID: "training-empathy", Content: "That sounds really difficult. I hear you.", Category: CategoryEmpathy},
	{ID: "training-question", Content: "How long have you been feeling this way?", Category: CategoryQuestion},
	{ID: "training-listening", Content: "It sounds like you're feeling overwhelmed. Is that right?", Category: CategoryListening},
	{ID: "training-safety", Content: "I want to make sure you're okay. Have you had any thoughts of hurting yourself?", Category: CategorySafety},
}

// Suggest returns four reply options for the last user message. Crisis
// language wins over mode. identity is accepted so callers can pass the
// bound identity through; the current sets do not vary by identity.
func Suggest(identity catalog.Identity, lastUserMessage string, mode catalog.Mode) []Suggestion {
	var set [4]Suggestion
	switch {
	case IsCrisis(lastUserMessage):
		set = crisisSet
	case mode == catalog.ModeSupport:
		set = supportSet
	default:
		set = trainingSet
	}
	out := make([]Suggestion, len(set))
	copy(out, set[:])
	return out
}

// IsCrisis reports whether text contains any suggestion-tier crisis term.
func IsCrisis(text string) bool {
	return lexicon.ContainsAny(text, lexicon.SuggestionCrisisTerms)
}
