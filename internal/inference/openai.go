package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultModel is used when a request names no model
const DefaultModel = "gpt-4o-mini"

// OpenAIConfig holds configuration for the OpenAI client
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string        // Optional (tests, compatible gateways)
	DefaultModel string        // Used when a request names no model
	Attempts     uint          // Total tries per request
	RetryDelay   time.Duration // Base delay between tries
	Timeout      time.Duration // HTTP timeout
	HTTPClient   *http.Client  // Optional (tests)
}

// OpenAIClient implements Client on the OpenAI chat completions API
type OpenAIClient struct {
	client       openai.Client
	defaultModel string
	attempts     uint
	retryDelay   time.Duration
}

// NewOpenAIClient creates a client. It fails with ErrNotConfigured when no
// API key is set.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Retries are driven by retry-go so the policy lives in one place.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		attempts:     cfg.Attempts,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

// DefaultModel returns the model used when a request names none
func (c *OpenAIClient) DefaultModel() string { return c.defaultModel }

// Complete sends one chat completion, retrying rate limits, server errors
// and transport failures
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := c.params(req)

	var content string
	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, params)
			if err != nil {
				return mapOpenAIError(err)
			}
			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(fmt.Errorf("%w: no choices returned", ErrMalformedResponse))
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *OpenAIClient) params(req Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, ex := range req.Examples {
		messages = append(messages, openai.UserMessage(ex.User), openai.AssistantMessage(ex.Assistant))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(0),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

// StatusError is a non-success reply from the service
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openai error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openai error (status %d)", e.StatusCode)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}

// retryable reports whether a failed call is worth repeating: rate limits,
// server errors and transport failures are, other client errors are not
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

var _ Client = (*OpenAIClient)(nil)
