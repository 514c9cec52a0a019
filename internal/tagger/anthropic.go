package tagger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens bounds the size of one batch response.
const DefaultMaxTokens = 4096

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.anthropic.com/"

// ErrNoAPIKey is returned when the service is built without a credential.
var ErrNoAPIKey = errors.New("no tagging API key configured")

// AnthropicConfig configures an AnthropicService.
type AnthropicConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int64
	Timeout    time.Duration
	HTTPClient *http.Client
}

// AnthropicService implements Service over the Messages API.
// The credential is sent as a bearer token.
type AnthropicService struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicService creates a service client. Retries are disabled: a
// failed batch is dropped rather than resent.
func NewAnthropicService(cfg AnthropicConfig) (*AnthropicService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	// The SDK also reads ANTHROPIC_API_KEY, ANTHROPIC_AUTH_TOKEN and
	// ANTHROPIC_BASE_URL from the environment. The resolved key and base URL
	// override the last two, and the x-api-key header is dropped so only the
	// configured credential is ever sent.
	opts := []option.RequestOption{
		option.WithAuthToken(cfg.APIKey),
		option.WithHeaderDel("X-Api-Key"),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &AnthropicService{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete sends one system/user exchange and returns the concatenated text
// of the reply.
func (s *AnthropicService) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
