// Package crisis decides whether a user message, or the profile behind it, signals crisis risk.
//
// The gate combines a fixed keyword list and the profile severity indicators with an optional
// probabilistic Scorer. Keyword matches always win and never consult the scorer. A scorer that
// fails or times out gives "no signal" and detection degrades to keywords only.
package crisis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// Gate defaults
const (
	// DefaultThreshold is the classifier probability at or above which a message is flagged.
	DefaultThreshold = 0.6
	// DefaultScoreTimeout bounds a single classifier call.
	DefaultScoreTimeout = 5 * time.Second
)

// DefaultKeywords are the phrases that flag a message without consulting the classifier.
var DefaultKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"end it all",
	"can't go on",
	"cant go on",
	"hurt myself",
	"harm myself",
	"self harm",
	"self-harm",
	"no reason to live",
	"want to die",
	"better off dead",
}

// Scorer returns the probability in [0,1] that text indicates crisis risk.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, text string) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// ErrNoScorer is reported when no classifier is configured.
var ErrNoScorer = errors.New("crisis classifier not configured")

// ScoreError describes why the classifier produced no usable score.
type ScoreError struct {
	Kind models.FailureKind
	Err  error
}

func (e *ScoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("crisis scoring %s", e.Kind)
	}
	return fmt.Sprintf("crisis scoring %s: %v", e.Kind, e.Err)
}

func (e *ScoreError) Unwrap() error {
	return e.Err
}

// SeverityPolicy controls whether a severe profile flags every message or only the opening banner.
type SeverityPolicy string

const (
	// SeverityBannerOnly uses profile severity for the session banner only.
	SeverityBannerOnly SeverityPolicy = "banner"
	// SeverityEveryTurn flags every message from a severe profile.
	SeverityEveryTurn SeverityPolicy = "every_turn"
)

// ParseSeverityPolicy parses a policy name. An empty string yields SeverityBannerOnly.
func ParseSeverityPolicy(s string) (SeverityPolicy, error) {
	switch SeverityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeverityBannerOnly:
		return SeverityBannerOnly, nil
	case SeverityEveryTurn:
		return SeverityEveryTurn, nil
	default:
		return "", fmt.Errorf("unknown severity policy %q", s)
	}
}

// Gate is the hybrid crisis detector. A Gate holds no per-session state.
type Gate struct {
	keywords     []string
	scorer       Scorer
	threshold    float64
	policy       SeverityPolicy
	scoreTimeout time.Duration
}

// Option configures a Gate.
type Option func(*Gate)

// WithScorer attaches a probabilistic classifier. A nil scorer leaves the gate keyword-only.
func WithScorer(s Scorer) Option {
	return func(g *Gate) {
		g.scorer = s
	}
}

// WithThreshold sets the classifier trigger threshold. Values outside (0,1] are ignored.
func WithThreshold(th float64) Option {
	return func(g *Gate) {
		if th > 0 && th <= 1 {
			g.threshold = th
		}
	}
}

// WithSeverityPolicy sets how profile severity participates in per-message decisions.
func WithSeverityPolicy(p SeverityPolicy) Option {
	return func(g *Gate) {
		g.policy = p
	}
}

// WithScoreTimeout bounds each classifier call. Zero or negative disables the bound.
func WithScoreTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.scoreTimeout = d
	}
}

// WithKeywords replaces the default keyword list.
func WithKeywords(keywords []string) Option {
	return func(g *Gate) {
		g.keywords = normaliseKeywords(keywords)
	}
}

// NewGate creates a Gate with the default keywords and threshold.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		keywords:     normaliseKeywords(DefaultKeywords),
		threshold:    DefaultThreshold,
		policy:       SeverityBannerOnly,
		scoreTimeout: DefaultScoreTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	slog.Debug("crisis.NewGate: gate configured", "keywords", len(g.keywords), "hasScorer", g.scorer != nil, "threshold", g.threshold, "policy", g.policy)
	return g
}

// HasScorer reports whether a classifier is attached.
func (g *Gate) HasScorer() bool {
	return g.scorer != nil
}

// Policy returns the configured severity policy.
func (g *Gate) Policy() SeverityPolicy {
	return g.policy
}

// ProfileSevere reports whether the profile alone warrants the crisis banner.
func (g *Gate) ProfileSevere(profile models.Profile) bool {
	return profile.IsSevere()
}

// MatchKeyword returns the first crisis keyword contained in text.
func (g *Gate) MatchKeyword(text string) (string, bool) {
	normalised := normaliseText(text)
	for _, k := range g.keywords {
		if strings.Contains(normalised, k) {
			return k, true
		}
	}
	return "", false
}

// Evaluate runs the gate in priority order: keywords, profile severity (per policy), classifier.
func (g *Gate) Evaluate(ctx context.Context, profile models.Profile, text string) models.CrisisDecision {
	if k, ok := g.MatchKeyword(text); ok {
		slog.Info("crisis.Gate.Evaluate: keyword match", "profileID", profile.ID, "keyword", k)
		return models.CrisisDecision{Triggered: true, Reason: models.CrisisReasonKeyword}
	}

	if g.policy == SeverityEveryTurn && profile.IsSevere() {
		slog.Info("crisis.Gate.Evaluate: severe profile", "profileID", profile.ID, "moodScore", profile.MoodScore, "phq9", profile.PHQ9)
		return models.CrisisDecision{Triggered: true, Reason: models.CrisisReasonProfileSeverity}
	}

	if g.scorer == nil {
		return models.CrisisDecision{Reason: models.CrisisReasonNone}
	}

	score, err := g.Score(ctx, text)
	if err != nil {
		var se *ScoreError
		kind := models.FailureUpstream
		if errors.As(err, &se) {
			kind = se.Kind
		}
		slog.Warn("crisis.Gate.Evaluate: classifier gave no signal, falling back to keywords", "profileID", profile.ID, "kind", kind, "error", err)
		return models.CrisisDecision{Reason: models.CrisisReasonNone}
	}

	if score >= g.threshold {
		slog.Info("crisis.Gate.Evaluate: classifier score above threshold", "profileID", profile.ID, "score", score, "threshold", g.threshold)
		return models.CrisisDecision{Triggered: true, Reason: models.CrisisReasonMLScore, Score: &score}
	}
	slog.Debug("crisis.Gate.Evaluate: no crisis signal", "profileID", profile.ID, "score", score)
	return models.CrisisDecision{Reason: models.CrisisReasonNone, Score: &score}
}

// IsCrisis reports whether Evaluate triggers.
func (g *Gate) IsCrisis(ctx context.Context, profile models.Profile, text string) bool {
	return g.Evaluate(ctx, profile, text).Triggered
}

// Score calls the classifier under the configured timeout. Every failure is returned
// as a *ScoreError; a panicking scorer is reported as FailureUpstream.
func (g *Gate) Score(ctx context.Context, text string) (score float64, err error) {
	if g.scorer == nil {
		return 0, &ScoreError{Kind: models.FailureUnavailable, Err: ErrNoScorer}
	}

	if g.scoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.scoreTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			score, err = 0, &ScoreError{Kind: models.FailureUpstream, Err: fmt.Errorf("scorer panic: %v", r)}
		}
	}()

	score, err = g.scorer.Score(ctx, text)
	if err != nil {
		return 0, classifyScoreError(err)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, &ScoreError{Kind: models.FailureInvalidOutput, Err: fmt.Errorf("score %v outside [0,1]", score)}
	}
	return score, nil
}

func classifyScoreError(err error) error {
	var se *ScoreError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return &ScoreError{Kind: models.FailureTimeout, Err: err}
	case errors.Is(err, ErrNoScorer):
		return &ScoreError{Kind: models.FailureUnavailable, Err: err}
	default:
		return &ScoreError{Kind: models.FailureUpstream, Err: err}
	}
}

func normaliseKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = normaliseText(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// normaliseText case-folds text and maps typographic apostrophes to ASCII.
func normaliseText(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
