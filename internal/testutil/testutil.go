// Package testutil provides common test doubles and fixtures for WellnessGate tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// GenerateCall records one request seen by StubGenerator.
type GenerateCall struct {
	System  string
	History []models.Turn
	Message string
}

// StubGenerator replays scripted replies in order. Once the script is exhausted it echoes the
// message back. Err, when set, is returned for every call.
type StubGenerator struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Calls   []GenerateCall
}

// GenerateReply implements genai.Generator.
func (g *StubGenerator) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, GenerateCall{System: system, History: append([]models.Turn(nil), history...), Message: message})
	if g.Err != nil {
		return "", g.Err
	}
	if len(g.Replies) > 0 {
		reply := g.Replies[0]
		g.Replies = g.Replies[1:]
		return reply, nil
	}
	return "echo: " + message, nil
}

// CallCount returns how many requests were made.
func (g *StubGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

// StubScorer returns a fixed score or error and counts calls.
type StubScorer struct {
	mu    sync.Mutex
	Value float64
	Err   error
	calls int
}

// Score implements crisis.Scorer.
func (s *StubScorer) Score(ctx context.Context, text string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Value, s.Err
}

// CallCount returns how many texts were scored.
func (s *StubScorer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// NewProfile builds a validated profile or fails the test.
func NewProfile(t testing.TB, id, name string, mood, phq9 int) models.Profile {
	t.Helper()
	p, err := models.NewProfile(id, name, mood, phq9, "")
	if err != nil {
		t.Fatalf("invalid test profile %s: %v", id, err)
	}
	return p
}

// Catalog returns a small activity catalog covering every mood bucket. The first linked
// entry is "Box breathing".
func Catalog(t testing.TB) []models.Activity {
	t.Helper()
	entries := []struct {
		title string
		tags  []string
		link  string
	}{
		{"Gratitude journal", []string{models.TagLowMood}, ""},
		{"Box breathing", []string{models.TagAnxiety}, "https://example.com/breathe"},
		{"Short walk", []string{models.TagBalanced, models.TagActivation}, ""},
		{"Mindfulness course", []string{models.TagLearning}, "https://example.com/mindful"},
	}
	catalog := make([]models.Activity, 0, len(entries))
	for _, s := range entries {
		a, err := models.NewActivity(s.title, s.tags, s.link)
		if err != nil {
			t.Fatalf("invalid test activity %q: %v", s.title, err)
		}
		catalog = append(catalog, a)
	}
	return catalog
}
