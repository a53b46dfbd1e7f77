package provider

import (
	"errors"
	"fmt"

	"ai-router/internal/catalogue"
)

// ErrMissingAdapter indicates a catalogued provider has no adapter wired.
var ErrMissingAdapter = errors.New("no adapter for catalogued provider")

// Adapters is the closed set of live adapters, one per provider family.
type Adapters struct {
	Ollama    Adapter
	Gemini    Adapter
	OpenAI    Adapter
	Anthropic Adapter
}

// Registry binds catalogued providers to their adapters. It is read-only
// after construction.
type Registry struct {
	catalogue *catalogue.Catalogue
	adapters  Adapters
}

// NewRegistry checks that every catalogued provider has an adapter.
func NewRegistry(cat *catalogue.Catalogue, adapters Adapters) (*Registry, error) {
	if cat == nil {
		return nil, errors.New("catalogue must not be nil")
	}

	r := &Registry{
		catalogue: cat,
		adapters:  adapters,
	}

	for _, id := range cat.Providers() {
		if _, ok := r.Lookup(id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingAdapter, id)
		}
	}
	return r, nil
}

// Catalogue returns the catalogue the registry was built from.
func (r *Registry) Catalogue() *catalogue.Catalogue {
	return r.catalogue
}

// Lookup returns the adapter for a catalogued provider. Unknown or
// uncatalogued providers report false.
func (r *Registry) Lookup(id catalogue.ProviderID) (Adapter, bool) {
	if _, ok := r.catalogue.Resolve(id); !ok {
		return nil, false
	}

	var a Adapter
	switch id {
	case catalogue.Ollama:
		a = r.adapters.Ollama
	case catalogue.Gemini:
		a = r.adapters.Gemini
	case catalogue.OpenAI:
		a = r.adapters.OpenAI
	case catalogue.Anthropic:
		a = r.adapters.Anthropic
	}
	return a, a != nil
}
