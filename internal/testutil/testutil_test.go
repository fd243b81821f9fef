package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

func TestStubGeneratorScript(t *testing.T) {
	g := &StubGenerator{Replies: []string{"first"}}
	history := []models.Turn{{Speaker: models.SpeakerUser, Text: "hi"}}

	got, err := g.GenerateReply(context.Background(), "sys", history, "one")
	if err != nil || got != "first" {
		t.Errorf("expected scripted reply, got %q, %v", got, err)
	}
	got, _ = g.GenerateReply(context.Background(), "sys", nil, "two")
	if got != "echo: two" {
		t.Errorf("expected echo after script, got %q", got)
	}

	if g.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", g.CallCount())
	}
	history[0].Text = "mutated"
	if g.Calls[0].History[0].Text != "hi" {
		t.Error("expected recorded history to be a copy")
	}
}

func TestStubGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	g := &StubGenerator{Err: boom}
	if _, err := g.GenerateReply(context.Background(), "", nil, "x"); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestStubScorer(t *testing.T) {
	s := &StubScorer{Value: 0.7}
	got, err := s.Score(context.Background(), "x")
	if err != nil || got != 0.7 || s.CallCount() != 1 {
		t.Errorf("unexpected result %v, %v, calls %d", got, err, s.CallCount())
	}
}

func TestFixtures(t *testing.T) {
	p := NewProfile(t, "p1", "Pat", 5, 10)
	if p.ID != "p1" || p.IsSevere() {
		t.Errorf("unexpected profile %+v", p)
	}

	catalog := Catalog(t)
	if len(catalog) != 4 {
		t.Fatalf("expected 4 activities, got %d", len(catalog))
	}
	for _, a := range catalog {
		if a.Title == "" || len(a.Tags) == 0 {
			t.Errorf("incomplete activity %+v", a)
		}
	}
}
