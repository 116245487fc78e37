// Package domain contains the core value types shared across the gateway.
package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message. Lists of messages are always ordered
// oldest-to-newest before they reach a wire adapter.
type Message struct {
	Role    Role
	Content string
}

// ProviderKind selects the wire format used to talk to a provider.
// This is a closed set; adding a kind means adding a wire adapter.
type ProviderKind string

const (
	ProviderOpenAICompatible    ProviderKind = "openai"
	ProviderAnthropicCompatible ProviderKind = "anthropic"
	ProviderCustom              ProviderKind = "custom"
)

// Provider is the immutable configuration for a single upstream endpoint.
// The API key is opaque: it is never logged unredacted and never persisted
// outside the secret store.
type Provider struct {
	Name    string
	Kind    ProviderKind
	APIKey  string
	BaseURL string
	Model   string
	Enabled bool
}

// Valid reports whether the provider has enough configuration to issue a
// request. The API key is deliberately not checked here; some compatible
// endpoints (local servers) accept unauthenticated requests.
func (p Provider) Valid() bool {
	return p.BaseURL != "" && p.Model != ""
}

// ModelInfo describes one model advertised by a provider's listing endpoint.
type ModelInfo struct {
	ID          string
	DisplayName string
}
