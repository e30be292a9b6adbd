package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"tribe-fitness/internal/config"
)

// OpenAIClient talks to OpenAI (or any base URL it accepts) through the
// official SDK.
type OpenAIClient struct {
	client openaigo.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = withDefaults(cfg)
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// Failed calls surface in the transcript; no retries.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL+"/"))
	}
	return &OpenAIClient{
		client: openaigo.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("API key not configured")
	}
	start := time.Now()

	params := openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.cfg.Model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(systemPrompt),
			openaigo.UserMessage(prompt),
		},
		Temperature: openaigo.Float(c.cfg.Temperature),
		MaxTokens:   openaigo.Int(int64(c.cfg.MaxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openaigo.Error
		if errors.As(err, &apiErr) {
			c.logger.Warn("openai request rejected", zap.Int("status", apiErr.StatusCode), zap.String("message", apiErr.Message))
			msg := apiErr.Message
			if msg == "" {
				msg = fmt.Sprintf("request failed with status %d", apiErr.StatusCode)
			}
			return "", &APIError{StatusCode: apiErr.StatusCode, Message: msg}
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("openai completion",
		zap.String("model", c.cfg.Model),
		zap.Duration("took", time.Since(start)),
		zap.Int("response_len", len(content)))
	return content, nil
}
