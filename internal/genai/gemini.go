package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
	gemini "google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured for the Gemini provider.
const DefaultGeminiModel = "gemini-2.0-flash"

// contentGenerator defines minimal interface for Gemini content generation.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error)
}

// GeminiClient generates replies with the Gemini API.
type GeminiClient struct {
	models      contentGenerator
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiClient initializes a Gemini-backed client. An API key is required.
func NewGeminiClient(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	cfg := applyOpts(DefaultGeminiModel, opts)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini: %w", ErrMissingAPIKey)
	}

	client, err := gemini.NewClient(ctx, &gemini.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: gemini.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	slog.Debug("genai.NewGeminiClient: Gemini client created", "model", cfg.Model, "temperature", cfg.Temperature, "maxTokens", cfg.MaxTokens)

	return &GeminiClient{
		models:      client.Models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GenerateReply sends history and message as Gemini contents with system as the system instruction.
func (g *GeminiClient) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	contents := make([]*gemini.Content, 0, len(history)+1)
	for _, turn := range history {
		var role gemini.Role = gemini.RoleUser
		if turn.Speaker == models.SpeakerAssistant {
			role = gemini.RoleModel
		}
		contents = append(contents, gemini.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, gemini.NewContentFromText(message, gemini.RoleUser))

	temp := float32(g.temperature)
	cfg := &gemini.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(g.maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = gemini.NewContentFromText(system, gemini.RoleUser)
	}

	slog.Debug("genai.GeminiClient.GenerateReply: sending request", "model", g.model, "contents", len(contents))
	res, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", &GenerationError{Kind: classifyError(err), Provider: "gemini", Err: err}
	}
	if res == nil {
		return "", &GenerationError{Kind: models.FailureInvalidOutput, Provider: "gemini", Err: ErrEmptyOutput}
	}

	reply := strings.TrimSpace(res.Text())
	if reply == "" {
		return "", &GenerationError{Kind: models.FailureInvalidOutput, Provider: "gemini", Err: ErrEmptyOutput}
	}
	return reply, nil
}
