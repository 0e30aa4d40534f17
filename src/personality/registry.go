package personality

import (
	"fmt"
	"sort"
	"strings"

	perrors "parlor/src/errors"
)

// Registry is the fixed, ordered roster of personas. It is never mutated
// after NewRegistry returns, so it is safe to share between goroutines.
//
// Iteration order is ascending metadata.order, ties broken by key. That
// order decides which persona wins when free text mentions more than one.
type Registry struct {
	personas []*Persona
	byKey    map[string]*Persona
}

// NewRegistry validates configs and builds a registry from them
func NewRegistry(configs []*PersonalityConfig) (*Registry, error) {
	if len(configs) == 0 {
		return nil, perrors.ErrNoPersonalities
	}

	r := &Registry{
		personas: make([]*Persona, 0, len(configs)),
		byKey:    make(map[string]*Persona, len(configs)),
	}

	for _, pc := range configs {
		p := newPersona(pc)
		if p.key == "" {
			return nil, &perrors.ValidationError{Field: "metadata.key", Message: "must not be empty"}
		}
		if p.prompt == "" {
			return nil, &perrors.ValidationError{Field: "prompt.content", Value: p.key, Message: "must not be empty"}
		}
		if _, dup := r.byKey[p.key]; dup {
			return nil, &perrors.ValidationError{Field: "metadata.key", Value: p.key, Message: "duplicate persona key"}
		}
		r.byKey[p.key] = p
		r.personas = append(r.personas, p)
	}

	sort.SliceStable(r.personas, func(i, j int) bool {
		if r.personas[i].order != r.personas[j].order {
			return r.personas[i].order < r.personas[j].order
		}
		return r.personas[i].key < r.personas[j].key
	})

	return r, nil
}

// Lookup returns the persona registered under key, matched case-insensitively
func (r *Registry) Lookup(key string) (*Persona, bool) {
	p, ok := r.byKey[NormalizeKey(key)]
	return p, ok
}

// Get is like Lookup but returns an error wrapping ErrUnknownPersona
func (r *Registry) Get(key string) (*Persona, error) {
	p, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", perrors.ErrUnknownPersona, key)
	}
	return p, nil
}

// Personas returns the roster in registry order
func (r *Registry) Personas() []*Persona {
	out := make([]*Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Keys returns the persona keys in registry order
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.personas))
	for i, p := range r.personas {
		keys[i] = p.key
	}
	return keys
}

// Len returns the number of registered personas
func (r *Registry) Len() int {
	return len(r.personas)
}

// Match scans text for the first persona key, in registry order, that
// appears as a substring of the lowercased text.
func (r *Registry) Match(text string) (*Persona, bool) {
	lowered := strings.ToLower(text)
	for _, p := range r.personas {
		if strings.Contains(lowered, p.key) {
			return p, true
		}
	}
	return nil, false
}

// DisplayList renders the roster for humans, e.g. "Yoda, Groot, or Pikachu"
func (r *Registry) DisplayList() string {
	names := make([]string, len(r.personas))
	for i, p := range r.personas {
		names[i] = p.name
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	}
}
