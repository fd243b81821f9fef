// Package recommend maps a profile's mood indicator to a short list of suggested activities.
package recommend

import (
	"log/slog"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// MaxSuggestions caps how many activities are suggested for a session.
const MaxSuggestions = 2

// Mood score band edges.
const (
	lowMoodCeiling = 4
	highMoodFloor  = 8
)

// TagsForMood returns the tags that qualify an activity for the given mood score.
func TagsForMood(moodScore int) []string {
	switch {
	case moodScore <= lowMoodCeiling:
		return []string{models.TagLowMood, models.TagAnxiety}
	case moodScore >= highMoodFloor:
		return []string{models.TagBalanced, models.TagLearning}
	default:
		return []string{models.TagBalanced, models.TagActivation}
	}
}

// PickActivities returns up to MaxSuggestions activities from catalog matching the
// profile's mood band, in catalog order.
func PickActivities(profile models.Profile, catalog []models.Activity) []models.Activity {
	tags := TagsForMood(profile.MoodScore)
	picked := make([]models.Activity, 0, MaxSuggestions)
	for _, a := range catalog {
		if len(picked) == MaxSuggestions {
			break
		}
		if a.HasAnyTag(tags...) {
			picked = append(picked, a)
		}
	}
	slog.Debug("recommend.PickActivities: selected activities", "profileID", profile.ID, "moodScore", profile.MoodScore, "tags", tags, "count", len(picked))
	return picked
}
