package flow

import (
	"testing"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

func TestSessionHistoryLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		exchanges int
		wantLen   int
	}{
		{"unlimited", -1, 5, 10},
		{"disabled", 0, 5, 0},
		{"window", 4, 5, 4},
		{"under window", 20, 3, 6},
		{"odd window rounds down to whole exchanges", 3, 5, 2},
		{"window of one keeps nothing", 1, 3, 0},
		{"invalid limit treated as unlimited", -7, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(steadyProfile, tt.limit)
			for i := 0; i < tt.exchanges; i++ {
				s.appendExchange("user", "assistant")
			}
			if got := len(s.History()); got != tt.wantLen {
				t.Errorf("expected %d history entries, got %d", tt.wantLen, got)
			}
		})
	}
}

func TestSessionHistoryWindowKeepsLatest(t *testing.T) {
	s := NewSession(steadyProfile, 2)
	s.appendExchange("first", "one")
	s.appendExchange("second", "two")
	h := s.History()
	if len(h) != 2 || h[0].Text != "second" || h[0].Speaker != models.SpeakerUser || h[1].Text != "two" {
		t.Errorf("expected latest exchange only, got %v", h)
	}
}

func TestSessionAccessorsReturnCopies(t *testing.T) {
	s := NewSession(steadyProfile, -1)
	s.AddReminder("a")
	s.AddAppointment("b")

	r := s.Reminders()
	r[0] = "mutated"
	if s.Reminders()[0] != "a" {
		t.Error("Reminders must return a copy")
	}
	a := s.Appointments()
	a[0] = "mutated"
	if s.Appointments()[0] != "b" {
		t.Error("Appointments must return a copy")
	}
}

func TestNewSessionAssignsID(t *testing.T) {
	a := NewSession(steadyProfile, 0)
	b := NewSession(steadyProfile, 0)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique session IDs, got %q and %q", a.ID, b.ID)
	}
	if a.BannerShown() {
		t.Error("new session must not have shown the banner")
	}
}
