package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/chatgate/internal/adapter/cli"
	"github.com/bkyoung/chatgate/internal/adapter/llm"
	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
	"github.com/bkyoung/chatgate/internal/adapter/secrets"
	"github.com/bkyoung/chatgate/internal/config"
	"github.com/bkyoung/chatgate/internal/domain"
	"github.com/bkyoung/chatgate/internal/usecase/budget"
	"github.com/bkyoung/chatgate/internal/usecase/chat"
	"github.com/bkyoung/chatgate/internal/usecase/tokeninfo"
	"github.com/bkyoung/chatgate/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "cg",
		EnvPrefix:   "CG",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability)

	secretStore := openSecretStore(cfg.Secrets)
	if secretStore != nil {
		defer secretStore.Close()
	}

	providers := buildProviders(ctx, cfg, logger, secretStore)

	calculator := budget.NewCalculator(contextWindows(cfg.ContextWindows), buildEstimator(cfg.Estimator))

	chatService := chat.NewService(chat.Deps{
		Providers:     providers,
		Budget:        calculator,
		AssistantName: cfg.Chat.AssistantName,
	})

	tokenClient := tokeninfo.NewClient(cfg.TokenData.BaseURL)
	tokenCache := tokeninfo.NewCache(tokenClient)

	deps := cli.Dependencies{
		Chat:                chatService,
		Tokens:              tokenCache,
		DefaultProvider:     defaultProviderName(cfg.Providers),
		DefaultSystemPrompt: cfg.Chat.SystemPrompt,
		DefaultHistoryLimit: cfg.Chat.HistoryLimit,
		Version:             version.Value(),
	}
	if secretStore != nil {
		deps.Secrets = secretStore
	}

	root := cli.NewRootCommand(deps)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cg"))
	}
	return paths
}

// buildLogger creates the API call logger based on configuration. A nil
// logger disables request/response logging entirely.
func buildLogger(cfg config.ObservabilityConfig) llmhttp.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	logLevel := llmhttp.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = llmhttp.LogLevelDebug
	case "error":
		logLevel = llmhttp.LogLevelError
	}

	logFormat := llmhttp.LogFormatHuman
	if cfg.Logging.Format == "json" {
		logFormat = llmhttp.LogFormatJSON
	}

	return llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
}

func openSecretStore(cfg config.SecretsConfig) *secrets.Store {
	if !cfg.Enabled || cfg.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		log.Printf("warning: failed to create secret store directory: %v", err)
		return nil
	}
	store, err := secrets.NewStore(cfg.Path)
	if err != nil {
		log.Printf("warning: failed to open secret store: %v", err)
		return nil
	}
	return store
}

func buildProviders(ctx context.Context, cfg config.Config, logger llmhttp.Logger, store *secrets.Store) map[string]chat.Provider {
	providers := make(map[string]chat.Provider)

	retry := retryConfig(cfg.HTTP)

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		apiKey := pc.APIKey
		if apiKey == "" && store != nil {
			// Fall back to the credential store under "provider.<name>.apiKey".
			if stored, ok, err := store.Get(ctx, "provider."+name+".apiKey"); err == nil && ok {
				apiKey = stored
			}
		}

		provider := domain.Provider{
			Name:    name,
			Kind:    providerKind(pc.Kind),
			APIKey:  apiKey,
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			Enabled: true,
		}

		opts := []llm.Option{llm.WithRetryConfig(retry)}
		if logger != nil {
			opts = append(opts, llm.WithLogger(logger))
		}
		if timeout := providerTimeout(pc, cfg.HTTP); timeout > 0 {
			opts = append(opts, llm.WithTimeout(timeout))
		}

		providers[name] = chat.Provider{
			Client: llm.NewClient(provider, opts...),
			Model:  pc.Model,
		}
	}

	return providers
}

func providerKind(kind string) domain.ProviderKind {
	switch kind {
	case "anthropic":
		return domain.ProviderAnthropicCompatible
	case "custom":
		return domain.ProviderCustom
	default:
		return domain.ProviderOpenAICompatible
	}
}

func providerTimeout(pc config.ProviderConfig, httpCfg config.HTTPConfig) time.Duration {
	raw := httpCfg.Timeout
	if pc.Timeout != nil && *pc.Timeout != "" {
		raw = *pc.Timeout
	}
	if raw == "" {
		return 0
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("warning: invalid timeout %q, using default", raw)
		return 0
	}
	return parsed
}

func retryConfig(cfg config.HTTPConfig) llmhttp.RetryConfig {
	retry := llmhttp.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if parsed, err := time.ParseDuration(cfg.InitialBackoff); err == nil && parsed > 0 {
		retry.InitialBackoff = parsed
	}
	if parsed, err := time.ParseDuration(cfg.MaxBackoff); err == nil && parsed > 0 {
		retry.MaxBackoff = parsed
	}
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}
	return retry
}

func contextWindows(cfg []config.WindowConfig) []budget.Window {
	if len(cfg) == 0 {
		return nil
	}
	windows := make([]budget.Window, 0, len(cfg))
	for _, w := range cfg {
		windows = append(windows, budget.Window{Pattern: w.Pattern, Tokens: w.Tokens})
	}
	return windows
}

func buildEstimator(name string) budget.Estimator {
	if name == "tiktoken" {
		return budget.TiktokenEstimator{}
	}
	return budget.HeuristicEstimator{}
}

// defaultProviderName picks the provider used when --provider is omitted.
// A single enabled provider wins; otherwise "openai" if enabled.
func defaultProviderName(providers map[string]config.ProviderConfig) string {
	var enabled []string
	for name, pc := range providers {
		if pc.Enabled {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) == 1 {
		return enabled[0]
	}
	if pc, ok := providers["openai"]; ok && pc.Enabled {
		return "openai"
	}
	if len(enabled) > 0 {
		return enabled[0]
	}
	return "openai"
}
