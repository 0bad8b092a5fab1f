package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of conversation history handed to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the envelope every provider returns. Providers must fail
// explicitly rather than return an empty or fabricated message.
type Completion struct {
	ID           string  `json:"id"`
	Model        string  `json:"model"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Provider generates one assistant reply from an ordered conversation
// history.
type Provider interface {
	Name() string
	Complete(ctx context.Context, history []Message) (Completion, error)
}

// Registry holds the configured providers and resolves requests by name,
// falling back to the default for unknown or empty names.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

func NewRegistry(defaultName string, providers ...Provider) *Registry {
	registry := &Registry{
		providers:   make(map[string]Provider, len(providers)),
		defaultName: defaultName,
	}
	for _, provider := range providers {
		registry.providers[provider.Name()] = provider
	}
	if _, ok := registry.providers[defaultName]; !ok && len(providers) > 0 {
		registry.defaultName = providers[0].Name()
	}
	return registry
}

// For returns the provider registered under name, or the default provider
// when the name is empty or unrecognized.
func (r *Registry) For(name string) Provider {
	if provider, ok := r.providers[name]; ok {
		return provider
	}
	return r.providers[r.defaultName]
}

func (r *Registry) Default() string {
	return r.defaultName
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
