// Package actions simulates the trackable actions a user can request in chat.
//
// Nothing here leaves the process: reminders and appointments are appended to the
// session's logs and a demo confirmation is returned.
package actions

import (
	"fmt"
	"log/slog"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// Confirmation messages emitted for simulated actions.
const (
	ReminderConfirmation    = "Reminder set (demo)."
	AppointmentConfirmation = "Appointment scheduled (demo)."
	NoResourcesMessage      = "I don't have any resources to share right now."
)

// Log receives the actions recorded for a session.
type Log interface {
	AddReminder(text string)
	AddAppointment(text string)
}

// Simulate records the actions requested by flags and returns one confirmation per action,
// in reminder, appointment, content order.
func Simulate(log Log, flags models.IntentFlags, text string, catalog []models.Activity) []string {
	var out []string

	if flags.Reminder {
		log.AddReminder(text)
		out = append(out, ReminderConfirmation)
	}

	if flags.Appointment {
		log.AddAppointment(text)
		out = append(out, AppointmentConfirmation)
	}

	if flags.Content {
		out = append(out, contentMessage(catalog))
	}

	slog.Debug("actions.Simulate: simulated actions", "reminder", flags.Reminder, "appointment", flags.Appointment, "content", flags.Content, "messages", len(out))
	return out
}

// FirstLinked returns the first catalog activity with a link.
func FirstLinked(catalog []models.Activity) (models.Activity, bool) {
	for _, a := range catalog {
		if a.HasLink() {
			return a, true
		}
	}
	return models.Activity{}, false
}

func contentMessage(catalog []models.Activity) string {
	a, ok := FirstLinked(catalog)
	if !ok {
		slog.Warn("actions.Simulate: content requested but no activity has a link", "catalogSize", len(catalog))
		return NoResourcesMessage
	}
	return fmt.Sprintf("Here's something you might find helpful: %s (%s)", a.Title, a.Link)
}
