// Package intent classifies user messages into independent actionable intents.
package intent

import (
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

var (
	reminderKeywords    = []string{"remind me", "set reminder", "reminder"}
	appointmentKeywords = []string{"appointment", "book", "schedule"}
	contentKeywords     = []string{"article", "content", "resource", "read", "learn"}
)

// Parse returns the intent flags found in text. Matching is case-insensitive substring search.
func Parse(text string) models.IntentFlags {
	lower := strings.ToLower(text)
	return models.IntentFlags{
		Reminder:    containsAny(lower, reminderKeywords),
		Appointment: containsAny(lower, appointmentKeywords),
		Content:     containsAny(lower, contentKeywords),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
