package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/WellnessGate/internal/crisis"
	"github.com/BTreeMap/WellnessGate/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingAPIKey is returned when the moderation scorer has no credentials.
var ErrMissingAPIKey = errors.New("OpenAI API key not set")

// moderationService defines minimal interface for moderation requests.
type moderationService interface {
	Create(ctx context.Context, params openai.ModerationNewParams) (openai.ModerationNewResponse, error)
}

type moderationAdapter struct {
	client openai.Client
}

func (a *moderationAdapter) Create(ctx context.Context, params openai.ModerationNewParams) (openai.ModerationNewResponse, error) {
	resp, err := a.client.Moderations.New(ctx, params)
	if err != nil {
		return openai.ModerationNewResponse{}, err
	}
	return *resp, nil
}

// ModerationScorer scores text with the OpenAI moderation endpoint, using the highest of
// the self-harm category scores as the crisis probability.
type ModerationScorer struct {
	svc moderationService
}

// NewModerationScorer creates a scorer using apiKey.
func NewModerationScorer(apiKey string) (*ModerationScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, ErrMissingAPIKey)
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	slog.Debug("classifier.NewModerationScorer: moderation scorer created")
	return &ModerationScorer{svc: &moderationAdapter{client: cli}}, nil
}

// Score returns max(self-harm, self-harm intent, self-harm instructions).
func (s *ModerationScorer) Score(ctx context.Context, text string) (float64, error) {
	resp, err := s.svc.Create(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModelOmniModerationLatest,
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, &crisis.ScoreError{Kind: models.FailureInvalidOutput, Err: errors.New("moderation returned no results")}
	}

	scores := resp.Results[0].CategoryScores
	score := max(scores.SelfHarm, scores.SelfHarmIntent, scores.SelfHarmInstructions)
	slog.Debug("ModerationScorer.Score: scored", "selfHarm", scores.SelfHarm, "selfHarmIntent", scores.SelfHarmIntent, "score", score)
	return score, nil
}
