package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

const basePrompt = `You are a supportive wellness assistant. Be empathetic, brief, and non-judgmental.
Do not diagnose. Offer one small, doable next step when appropriate.`

// BuildSystemPrompt builds the system instruction from the profile and suggested activities.
func BuildSystemPrompt(profile models.Profile, suggestions []models.Activity) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nPersonalize responses using this profile:\n")
	fmt.Fprintf(&b, "Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "Mood score: %d\n", profile.MoodScore)
	fmt.Fprintf(&b, "PHQ-9: %d\n", profile.PHQ9)
	fmt.Fprintf(&b, "Notes: %s\n", profile.Notes)

	if len(suggestions) > 0 {
		b.WriteString("\nPrefer one of these options if relevant:\n")
		for _, s := range suggestions {
			b.WriteString("- ")
			b.WriteString(s.Title)
			if s.HasLink() {
				fmt.Fprintf(&b, " (%s)", s.Link)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nEnd with a gentle check-in question.\n")
	return b.String()
}
