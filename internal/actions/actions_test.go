package actions

import (
	"testing"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// recordingLog implements Log for testing.
type recordingLog struct {
	reminders    []string
	appointments []string
}

func (r *recordingLog) AddReminder(text string)    { r.reminders = append(r.reminders, text) }
func (r *recordingLog) AddAppointment(text string) { r.appointments = append(r.appointments, text) }

func linkedCatalog(t *testing.T) []models.Activity {
	t.Helper()
	var out []models.Activity
	for _, def := range []struct{ title, link string }{
		{"Box breathing", ""},
		{"Sleep hygiene guide", "https://example.org/sleep"},
		{"Mindful walking", "https://example.org/walk"},
	} {
		a, err := models.NewActivity(def.title, []string{"balanced"}, def.link)
		if err != nil {
			t.Fatalf("failed to build activity: %v", err)
		}
		out = append(out, a)
	}
	return out
}

func TestSimulateReminder(t *testing.T) {
	log := &recordingLog{}
	out := Simulate(log, models.IntentFlags{Reminder: true}, "remind me to stretch", nil)
	if len(out) != 1 || out[0] != ReminderConfirmation {
		t.Fatalf("unexpected output: %v", out)
	}
	if len(log.reminders) != 1 || log.reminders[0] != "remind me to stretch" {
		t.Errorf("reminder not recorded: %v", log.reminders)
	}
	if len(log.appointments) != 0 {
		t.Errorf("unexpected appointments: %v", log.appointments)
	}
}

func TestSimulateAllInOrder(t *testing.T) {
	log := &recordingLog{}
	flags := models.IntentFlags{Reminder: true, Appointment: true, Content: true}
	out := Simulate(log, flags, "remind me and book and read", linkedCatalog(t))

	want := []string{
		ReminderConfirmation,
		AppointmentConfirmation,
		"Here's something you might find helpful: Sleep hygiene guide (https://example.org/sleep)",
	}
	if len(out) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], out[i])
		}
	}
	if len(log.reminders) != 1 || len(log.appointments) != 1 {
		t.Errorf("expected one reminder and one appointment, got %v / %v", log.reminders, log.appointments)
	}
}

func TestSimulateContentWithoutLinks(t *testing.T) {
	a, _ := models.NewActivity("Box breathing", []string{"anxiety"}, "")
	tests := []struct {
		name    string
		catalog []models.Activity
	}{
		{"no links", []models.Activity{a}},
		{"empty catalog", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLog{}
			out := Simulate(log, models.IntentFlags{Content: true}, "any article?", tt.catalog)
			if len(out) != 1 || out[0] != NoResourcesMessage {
				t.Errorf("expected neutral message, got %v", out)
			}
		})
	}
}

func TestSimulateNoFlags(t *testing.T) {
	log := &recordingLog{}
	if out := Simulate(log, models.IntentFlags{}, "hello", nil); len(out) != 0 {
		t.Errorf("expected no output, got %v", out)
	}
}
