// Package genai provides reply generation for the chat assistant using hosted language models.
//
// Two providers are supported: OpenAI chat completions and Google Gemini. Both satisfy
// Generator, and Resilient adds per-attempt timeouts and bounded retries on top of either.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation settings
const (
	// DefaultOpenAIModel is used when no model is configured for the OpenAI provider.
	DefaultOpenAIModel = openai.ChatModelGPT4oMini
	// DefaultTemperature is the sampling temperature for replies.
	DefaultTemperature = 0.7
	// DefaultMaxTokens bounds the length of a single reply.
	DefaultMaxTokens = 512
)

// Error variables for better error handling and testability
var (
	ErrMissingAPIKey     = errors.New("API key not set")
	ErrNoChoicesReturned = errors.New("no choices returned")
	ErrEmptyOutput       = errors.New("model returned empty output")
)

// Generator produces an assistant reply for message given the system instruction and prior turns.
type Generator interface {
	GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error)
}

// GenerationError describes why no reply could be generated.
type GenerationError struct {
	Kind     models.FailureKind
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Opts holds provider configuration shared by all clients.
type Opts struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Option configures a client.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) {
		o.Temperature = t
	}
}

// WithMaxTokens overrides the reply token limit.
func WithMaxTokens(n int) Option {
	return func(o *Opts) {
		o.MaxTokens = n
	}
}

func applyOpts(defaultModel string, opts []Option) Opts {
	cfg := Opts{Model: defaultModel, Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return cfg
}

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsAdapter adapts the SDK's completions service to chatService.
type completionsAdapter struct {
	client openai.Client
}

func (a *completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Client wraps the OpenAI ChatCompletion service for generating replies.
type Client struct {
	chat        chatService
	model       string
	temperature float64
	maxTokens   int
}

// NewClient initializes a new OpenAI-backed client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := applyOpts(string(DefaultOpenAIModel), opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI: %w", ErrMissingAPIKey)
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: OpenAI client created", "model", cfg.Model, "temperature", cfg.Temperature, "maxTokens", cfg.MaxTokens)
	return &Client{
		chat:        &completionsAdapter{client: cli},
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GenerateReply sends the system instruction, history and message as a chat completion.
func (c *Client) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            buildOpenAIMessages(system, history, message),
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}

	slog.Debug("genai.Client.GenerateReply: sending request", "model", c.model, "messages", len(params.Messages))
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			slog.Warn("genai.Client.GenerateReply: API error", "status", apiErr.StatusCode, "error", err)
		}
		return "", &GenerationError{Kind: classifyError(err), Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Kind: models.FailureInvalidOutput, Provider: "openai", Err: ErrNoChoicesReturned}
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", &GenerationError{Kind: models.FailureInvalidOutput, Provider: "openai", Err: ErrEmptyOutput}
	}
	return reply, nil
}

func buildOpenAIMessages(system string, history []models.Turn, message string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, turn := range history {
		switch turn.Speaker {
		case models.SpeakerAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Text))
		default:
			msgs = append(msgs, openai.UserMessage(turn.Text))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))
	return msgs
}

// classifyError maps a provider error onto a FailureKind.
func classifyError(err error) models.FailureKind {
	var ge *GenerationError
	switch {
	case errors.As(err, &ge):
		return ge.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return models.FailureTimeout
	case errors.Is(err, ErrEmptyOutput), errors.Is(err, ErrNoChoicesReturned):
		return models.FailureInvalidOutput
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, context.Canceled):
		return models.FailureUnavailable
	default:
		return models.FailureUpstream
	}
}
