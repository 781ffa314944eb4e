// Package catalog is the read-only registry of training personas and support
// companions. A Catalog is built once at startup and shared between requests
// without locking; lookups hand out copies.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("identity not found")

type Catalog struct {
	personas   map[string]Persona
	companions map[string]Companion
	personaIDs []string
	companyIDs []string
}

// File is the on-disk YAML shape accepted by LoadFile.
type File struct {
	Personas   []Persona   `yaml:"personas"`
	Companions []Companion `yaml:"companions"`
}

func New(personas []Persona, companions []Companion) (*Catalog, error) {
	c := &Catalog{
		personas:   make(map[string]Persona, len(personas)),
		companions: make(map[string]Companion, len(companions)),
	}
	for _, p := range personas {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("persona %q has empty id", p.Name)
		}
		if _, dup := c.personas[id]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", id)
		}
		p.ID = id
		c.personas[id] = clonePersona(p)
		c.personaIDs = append(c.personaIDs, id)
	}
	for _, cp := range companions {
		id := strings.TrimSpace(cp.ID)
		if id == "" {
			return nil, fmt.Errorf("companion %q has empty id", cp.Name)
		}
		if _, dup := c.companions[id]; dup {
			return nil, fmt.Errorf("duplicate companion id %q", id)
		}
		if strings.TrimSpace(cp.SystemPrompt) == "" {
			return nil, fmt.Errorf("companion %q has empty system prompt", id)
		}
		cp.ID = id
		c.companions[id] = cloneCompanion(cp)
		c.companyIDs = append(c.companyIDs, id)
	}
	sort.Strings(c.personaIDs)
	sort.Strings(c.companyIDs)
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultPersonas(), DefaultCompanions())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// LoadFile builds a catalog from a YAML file. Sections left empty in the
// file fall back to the built-in entries.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Personas) == 0 {
		f.Personas = DefaultPersonas()
	}
	if len(f.Companions) == 0 {
		f.Companions = DefaultCompanions()
	}
	return New(f.Personas, f.Companions)
}

func (c *Catalog) Persona(id string) (Persona, error) {
	p, ok := c.personas[strings.TrimSpace(id)]
	if !ok {
		return Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	return clonePersona(p), nil
}

func (c *Catalog) Companion(id string) (Companion, error) {
	cp, ok := c.companions[strings.TrimSpace(id)]
	if !ok {
		return Companion{}, fmt.Errorf("companion %q: %w", id, ErrNotFound)
	}
	return cloneCompanion(cp), nil
}

// Personas lists every persona ordered by id.
func (c *Catalog) Personas() []Persona {
	out := make([]Persona, 0, len(c.personaIDs))
	for _, id := range c.personaIDs {
		out = append(out, clonePersona(c.personas[id]))
	}
	return out
}

// CompanionListings lists every companion ordered by id, without system prompts.
func (c *Catalog) CompanionListings() []CompanionListing {
	out := make([]CompanionListing, 0, len(c.companyIDs))
	for _, id := range c.companyIDs {
		out = append(out, c.companions[id].Listing())
	}
	return out
}

func clonePersona(p Persona) Persona {
	p.Traits = append([]string(nil), p.Traits...)
	p.TriggerTopics = append([]string(nil), p.TriggerTopics...)
	p.CrisisKeywords = append([]string(nil), p.CrisisKeywords...)
	p.OpeningMessages = append([]string(nil), p.OpeningMessages...)
	return p
}

func cloneCompanion(c Companion) Companion {
	c.Specialties = append([]string(nil), c.Specialties...)
	return c
}
