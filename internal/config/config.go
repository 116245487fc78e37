package config

// Config represents the full application configuration.
type Config struct {
	Providers      map[string]ProviderConfig `yaml:"providers"`
	HTTP           HTTPConfig                `yaml:"http"`
	ContextWindows []WindowConfig            `yaml:"contextWindows"`
	Estimator      string                    `yaml:"estimator"`
	Chat           ChatConfig                `yaml:"chat"`
	TokenData      TokenDataConfig           `yaml:"tokenData"`
	Secrets        SecretsConfig             `yaml:"secrets"`
	Observability  ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single upstream provider.
type ProviderConfig struct {
	// Kind selects the wire format: "openai", "anthropic", or "custom".
	Kind    string `yaml:"kind"`
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`

	// Timeout overrides the global HTTP timeout for this provider.
	Timeout *string `yaml:"timeout,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// WindowConfig is one entry of the context-window table. The table is
// ordered; the first pattern contained in the lower-cased model
// identifier wins, so specific variants must be listed before generic
// ones. An empty table selects the built-in defaults.
type WindowConfig struct {
	Pattern string `yaml:"pattern"`
	Tokens  int    `yaml:"tokens"`
}

// ChatConfig configures conversation assembly.
type ChatConfig struct {
	// SystemPrompt is prepended to every conversation when non-empty.
	SystemPrompt string `yaml:"systemPrompt"`

	// HistoryLimit is the number of recent messages requested from the
	// history source before budgeting trims them further.
	HistoryLimit int `yaml:"historyLimit"`

	// AssistantName is the author name under which assistant replies are
	// stored in history.
	AssistantName string `yaml:"assistantName"`
}

// TokenDataConfig configures the market-data lookup.
type TokenDataConfig struct {
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"`
}

// SecretsConfig configures the credential store.
type SecretsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// Merge combines multiple configuration instances, prioritising the
// latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Chat = chooseChat(base.Chat, overlay.Chat)
	result.TokenData = chooseTokenData(base.TokenData, overlay.TokenData)
	result.Secrets = chooseSecrets(base.Secrets, overlay.Secrets)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)
	if len(overlay.ContextWindows) > 0 {
		result.ContextWindows = overlay.ContextWindows
	}
	if overlay.Estimator != "" {
		result.Estimator = overlay.Estimator
	}

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseChat(base, overlay ChatConfig) ChatConfig {
	if overlay.SystemPrompt != "" || overlay.HistoryLimit != 0 || overlay.AssistantName != "" {
		return overlay
	}
	return base
}

func chooseTokenData(base, overlay TokenDataConfig) TokenDataConfig {
	if overlay.BaseURL != "" || overlay.Timeout != "" {
		return overlay
	}
	return base
}

func chooseSecrets(base, overlay SecretsConfig) SecretsConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
