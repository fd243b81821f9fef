// Package classifier provides probabilistic crisis scorers for the crisis gate.
//
// LogisticModel is an offline bag-of-words logistic regression loaded from a JSON or YAML
// artifact. ModerationScorer asks the OpenAI moderation endpoint for self-harm scores.
// Loading failures are reported as ErrModelLoad so callers can run without a classifier.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrModelLoad wraps every failure to read or validate a classifier artifact.
var ErrModelLoad = errors.New("classifier model load failed")

// Artifact is the serialized form of a LogisticModel.
type Artifact struct {
	Name    string             `json:"name" yaml:"name"`
	Bias    float64            `json:"bias" yaml:"bias"`
	Weights map[string]float64 `json:"weights" yaml:"weights"`
	// Bigrams enables two-word features such as "give up".
	Bigrams bool `json:"bigrams" yaml:"bigrams"`
}

// LogisticModel scores text as sigmoid(bias + sum of weights of the features present).
// Each feature counts once per message.
type LogisticModel struct {
	name    string
	bias    float64
	weights map[string]float64
	bigrams bool
}

// NewLogisticModel validates a and builds a model from it.
func NewLogisticModel(a Artifact) (*LogisticModel, error) {
	if len(a.Weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrModelLoad)
	}
	if !isFinite(a.Bias) {
		return nil, fmt.Errorf("%w: bias is not finite", ErrModelLoad)
	}
	weights := make(map[string]float64, len(a.Weights))
	for feature, w := range a.Weights {
		if !isFinite(w) {
			return nil, fmt.Errorf("%w: weight for %q is not finite", ErrModelLoad, feature)
		}
		key := strings.Join(tokenize(feature), " ")
		if key == "" {
			continue
		}
		weights[key] = w
	}
	name := a.Name
	if name == "" {
		name = "logistic"
	}
	return &LogisticModel{name: name, bias: a.Bias, weights: weights, bigrams: a.Bigrams}, nil
}

// Load reads an artifact from path; ".yaml" and ".yml" files are decoded as YAML, anything else as JSON.
func Load(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrModelLoad, path, err)
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrModelLoad, path, err)
	}

	m, err := NewLogisticModel(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("classifier.Load: model loaded", "path", path, "name", m.name, "features", len(m.weights), "bigrams", m.bigrams)
	return m, nil
}

// Name returns the model name from the artifact.
func (m *LogisticModel) Name() string {
	return m.name
}

// Score returns the crisis probability for text.
func (m *LogisticModel) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	z := m.bias
	for f := range m.features(text) {
		z += m.weights[f]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *LogisticModel) features(text string) map[string]struct{} {
	tokens := tokenize(text)
	set := make(map[string]struct{}, len(tokens)*2)
	for i, tok := range tokens {
		set[tok] = struct{}{}
		if m.bigrams && i+1 < len(tokens) {
			set[tok+" "+tokens[i+1]] = struct{}{}
		}
	}
	return set
}

// tokenize lowercases s and splits it into words. Apostrophes are dropped so
// "can't" and "cant" produce the same token.
func tokenize(s string) []string {
	s = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
