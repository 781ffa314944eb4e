package catalog

import (
	"strings"

	"github.com/flexonb/mindhack/internal/lexicon"
)

// Kind distinguishes the two identity variants.
type Kind string

const (
	KindPersona   Kind = "persona"
	KindCompanion Kind = "companion"
)

// Identity is whichever persona or companion is bound to a conversation.
type Identity interface {
	IdentityID() string
	DisplayName() string
	Kind() Kind
}

// Persona is a fictional individual used in training mode.
type Persona struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Condition       string   `json:"condition" yaml:"condition"`
	Difficulty      string   `json:"difficulty" yaml:"difficulty"`
	Traits          []string `json:"traits" yaml:"traits"`
	TriggerTopics   []string `json:"trigger_topics" yaml:"trigger_topics"`
	CrisisKeywords  []string `json:"crisis_keywords" yaml:"crisis_keywords"`
	OpeningMessages []string `json:"opening_messages" yaml:"opening_messages"`
}

func (p Persona) IdentityID() string  { return p.ID }
func (p Persona) DisplayName() string { return p.Name }
func (p Persona) Kind() Kind          { return KindPersona }

// OpeningMessage returns the persona's first scripted line.
func (p Persona) OpeningMessage() string {
	for _, m := range p.OpeningMessages {
		if strings.TrimSpace(m) != "" {
			return m
		}
	}
	return "Hi."
}

// Companion is a fixed supportive character used in support mode.
// SystemPrompt is only read by the prompt builder and is never serialized.
type Companion struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Specialties  []string `json:"specialties" yaml:"specialties"`
	Personality  string   `json:"personality" yaml:"personality"`
	Greeting     string   `json:"greeting" yaml:"greeting"`
	SystemPrompt string   `json:"-" yaml:"system_prompt"`
}

func (c Companion) IdentityID() string  { return c.ID }
func (c Companion) DisplayName() string { return c.Name }
func (c Companion) Kind() Kind          { return KindCompanion }

// Listing returns the public view of the companion.
func (c Companion) Listing() CompanionListing {
	return CompanionListing{
		ID:          c.ID,
		Name:        c.Name,
		Title:       c.Title,
		Description: c.Description,
		Specialties: append([]string(nil), c.Specialties...),
		Personality: c.Personality,
		Greeting:    c.Greeting,
	}
}

// CompanionListing is a Companion without its system prompt.
type CompanionListing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Specialties []string `json:"specialties"`
	Personality string   `json:"personality"`
	Greeting    string   `json:"greeting"`
}

// AsPersonaLike adapts a companion to the persona shape so that training
// prompts and evaluator labels can treat both identities the same way.
func AsPersonaLike(c Companion) Persona {
	traits := []string{}
	if p := strings.TrimSpace(c.Personality); p != "" {
		traits = append(traits, p)
	}
	opening := []string{}
	if g := strings.TrimSpace(c.Greeting); g != "" {
		opening = append(opening, g)
	}
	return Persona{
		ID:              c.ID,
		Name:            c.Name,
		Condition:       "general emotional support",
		Difficulty:      "beginner",
		Traits:          traits,
		TriggerTopics:   append([]string(nil), c.Specialties...),
		CrisisKeywords:  nil,
		OpeningMessages: opening,
	}
}

// CrisisKeywordsOrDefault returns the persona's crisis keywords, falling back
// to the shared default set when none are configured.
func (p Persona) CrisisKeywordsOrDefault() []string {
	if len(p.CrisisKeywords) == 0 {
		return lexicon.DefaultPersonaCrisisKeywords
	}
	return p.CrisisKeywords
}
