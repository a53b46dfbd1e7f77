// Package catalogue holds the static set of providers the router knows about.
package catalogue

import "strings"

// ProviderID names a catalogued provider.
type ProviderID string

const (
	Ollama    ProviderID = "ollama"
	Gemini    ProviderID = "gemini"
	OpenAI    ProviderID = "openai"
	Anthropic ProviderID = "anthropic"
)

// DefaultProvider is used when a request does not name one.
const DefaultProvider = Ollama

// Class separates on-host providers from hosted APIs.
type Class string

const (
	ClassLocal Class = "local"
	ClassCloud Class = "cloud"
)

// Descriptor describes a catalogued provider.
type Descriptor struct {
	ID              ProviderID
	DefaultModel    string
	AvailableModels []string
	Class           Class
}

// Listing is one row of the flattened model listing.
type Listing struct {
	Model     string
	Provider  ProviderID
	Class     Class
	IsDefault bool
}

// Catalogue is an immutable provider registry.
type Catalogue struct {
	order       []ProviderID
	descriptors map[ProviderID]Descriptor
}

// Default returns the built-in catalogue.
func Default() *Catalogue {
	return New(
		Descriptor{
			ID:              Ollama,
			DefaultModel:    "mistral",
			AvailableModels: []string{"mistral", "llama2", "codellama", "phi"},
			Class:           ClassLocal,
		},
		Descriptor{
			ID:              Gemini,
			DefaultModel:    "gemini-2.0-flash",
			AvailableModels: []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
			Class:           ClassCloud,
		},
		Descriptor{
			ID:              OpenAI,
			DefaultModel:    "gpt-4",
			AvailableModels: []string{"gpt-4", "gpt-3.5-turbo"},
			Class:           ClassCloud,
		},
		Descriptor{
			ID:              Anthropic,
			DefaultModel:    "claude-3-opus",
			AvailableModels: []string{"claude-3-opus", "claude-3-sonnet"},
			Class:           ClassCloud,
		},
	)
}

// New builds a catalogue from descriptors, keeping their order. A later
// descriptor with the same ID replaces an earlier one.
func New(descriptors ...Descriptor) *Catalogue {
	c := &Catalogue{
		descriptors: make(map[ProviderID]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, exists := c.descriptors[d.ID]; !exists {
			c.order = append(c.order, d.ID)
		}
		c.descriptors[d.ID] = cloneDescriptor(d)
	}
	return c
}

// Normalize lower-cases and trims a provider name; blank names map to DefaultProvider.
func Normalize(name string) ProviderID {
	id := strings.ToLower(strings.TrimSpace(name))
	if id == "" {
		return DefaultProvider
	}
	return ProviderID(id)
}

// Resolve returns the descriptor for id.
func (c *Catalogue) Resolve(id ProviderID) (Descriptor, bool) {
	d, ok := c.descriptors[id]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(d), true
}

// DefaultModelFor returns the default model for id.
func (c *Catalogue) DefaultModelFor(id ProviderID) (string, bool) {
	d, ok := c.descriptors[id]
	if !ok {
		return "", false
	}
	return d.DefaultModel, true
}

// Providers returns the catalogued provider IDs in registration order.
func (c *Catalogue) Providers() []ProviderID {
	out := make([]ProviderID, len(c.order))
	copy(out, c.order)
	return out
}

// ListAll flattens every provider's models into listing rows.
func (c *Catalogue) ListAll() []Listing {
	var out []Listing
	for _, id := range c.order {
		d := c.descriptors[id]
		for _, model := range d.AvailableModels {
			out = append(out, Listing{
				Model:     model,
				Provider:  d.ID,
				Class:     d.Class,
				IsDefault: model == d.DefaultModel,
			})
		}
	}
	return out
}

func cloneDescriptor(d Descriptor) Descriptor {
	out := d
	out.AvailableModels = append([]string(nil), d.AvailableModels...)
	return out
}
