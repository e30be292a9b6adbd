// Package llm holds the remote chat-completion providers behind the chat
// assistants.
package llm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"

	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 500
)

// APIError is a non-2xx answer from a provider. Message is the provider's
// own error text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// New builds the provider selected by cfg.Provider.
func New(cfg config.LLMConfig, logger *zap.Logger) (chat.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg, logger), nil
	case ProviderHTTP:
		return NewHTTPClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func withDefaults(cfg config.LLMConfig) config.LLMConfig {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return cfg
}
