package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storyharvest/internal/config"
	"storyharvest/internal/ports"
)

const (
	openAIKeyEnv    = "OPENAI_API_KEY"
	anthropicKeyEnv = "ANTHROPIC_API_KEY"

	defaultOpenAIModel    = "gpt-4o"
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"

	maxRetries = 3
)

// New builds the TextGenerator for the configured provider. The credential is
// taken from configuration or, when absent, from the provider-specific
// environment variable; a missing credential or an unknown provider fails
// here, before any network call.
func New(cfg config.AIConfig, logger *slog.Logger) (ports.TextGenerator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		key, err := resolveKey(cfg.APIKey, openAIKeyEnv)
		if err != nil {
			return nil, err
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		logger.Info("llm client ready", "provider", cfg.Provider, "model", model)
		return NewOpenAIClient(cfg.Endpoint, model, key, logger), nil

	case config.ProviderAnthropic:
		key, err := resolveKey(cfg.APIKey, anthropicKeyEnv)
		if err != nil {
			return nil, err
		}
		model := cfg.Model
		if model == "" {
			model = defaultAnthropicModel
		}
		logger.Info("llm client ready", "provider", cfg.Provider, "model", model)
		return NewAnthropicClient(key, model, logger), nil

	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func resolveKey(configured, envVar string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("missing api key: set %s", envVar)
}

// retrier repeats a provider call with 2^attempt second backoff. The final
// error is propagated; fallbacks are the pipeline's job, not the client's.
type retrier struct {
	logger *slog.Logger
	sleep  func(time.Duration)
}

func newRetrier(logger *slog.Logger) retrier {
	return retrier{logger: logger, sleep: time.Sleep}
}

func (r retrier) generate(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err
		r.logger.Error("llm call failed", "attempt", attempt+1, "retries", maxRetries, "error", err)
		if attempt < maxRetries-1 {
			r.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	return "", lastErr
}
