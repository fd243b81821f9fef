package flow

import (
	"github.com/BTreeMap/WellnessGate/internal/models"
	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of history messages retained and sent to the backend.
const DefaultHistoryLimit = 20

// Session is the state of one chat session. It is owned by a single Controller.
// Reminders, appointments and history only grow (history is windowed by historyLimit).
type Session struct {
	ID      string
	Profile models.Profile

	bannerShown  bool
	reminders    []string
	appointments []string
	history      []models.Turn
	// historyLimit: -1 no limit, 0 no history, positive keeps the last N messages
	// rounded down to whole exchanges.
	historyLimit int
}

// NewSession creates a session for profile with the given history limit.
func NewSession(profile models.Profile, historyLimit int) *Session {
	if historyLimit < -1 {
		historyLimit = -1
	}
	return &Session{
		ID:           uuid.NewString(),
		Profile:      profile,
		historyLimit: historyLimit,
	}
}

// BannerShown reports whether the severity banner has been emitted.
func (s *Session) BannerShown() bool {
	return s.bannerShown
}

// markBannerShown records that the banner was emitted. The flag never resets.
func (s *Session) markBannerShown() {
	s.bannerShown = true
}

// AddReminder records a reminder request.
func (s *Session) AddReminder(text string) {
	s.reminders = append(s.reminders, text)
}

// AddAppointment records an appointment request.
func (s *Session) AddAppointment(text string) {
	s.appointments = append(s.appointments, text)
}

// Reminders returns a copy of the recorded reminders in request order.
func (s *Session) Reminders() []string {
	return append([]string(nil), s.reminders...)
}

// Appointments returns a copy of the recorded appointments in request order.
func (s *Session) Appointments() []string {
	return append([]string(nil), s.appointments...)
}

// History returns a copy of the retained conversation history.
func (s *Session) History() []models.Turn {
	return append([]models.Turn(nil), s.history...)
}

// HistoryLimit returns the configured history window.
func (s *Session) HistoryLimit() int {
	return s.historyLimit
}

// appendExchange adds a user message and assistant reply, then trims to the history window.
func (s *Session) appendExchange(userText, reply string) {
	if s.historyLimit == 0 {
		return
	}
	s.history = append(s.history,
		models.Turn{Speaker: models.SpeakerUser, Text: userText},
		models.Turn{Speaker: models.SpeakerAssistant, Text: reply},
	)
	if s.historyLimit > 0 {
		// An odd window would split an exchange and lead with an assistant turn.
		keep := s.historyLimit - s.historyLimit%2
		if len(s.history) > keep {
			s.history = append([]models.Turn(nil), s.history[len(s.history)-keep:]...)
		}
	}
}
