// Package models defines the core data structures for WellnessGate.
//
// It includes user profiles and activity catalog entries, which are shared across modules.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation constants for profile scores
const (
	// MinMoodScore is the lowest allowed self-reported mood score
	MinMoodScore = 0
	// MaxMoodScore is the highest allowed self-reported mood score
	MaxMoodScore = 10
	// MinPHQ9 is the lowest possible PHQ-9 total
	MinPHQ9 = 0
	// MaxPHQ9 is the highest possible PHQ-9 total
	MaxPHQ9 = 27
	// SeverePHQ9Threshold is the PHQ-9 total at or above which a profile is severe
	SeverePHQ9Threshold = 20
	// SevereMoodThreshold is the mood score at or below which a profile is severe
	SevereMoodThreshold = 2
)

// Well-known activity tags used by the recommender.
const (
	TagLowMood    = "low_mood"
	TagAnxiety    = "anxiety"
	TagBalanced   = "balanced"
	TagLearning   = "learning"
	TagActivation = "activation"
)

// Error variables for better error handling and testability
var (
	ErrEmptyProfileID      = errors.New("profile id cannot be empty")
	ErrEmptyProfileName    = errors.New("profile name cannot be empty")
	ErrMoodScoreOutOfRange = errors.New("mood score out of range")
	ErrPHQ9OutOfRange      = errors.New("phq9 score out of range")
	ErrEmptyActivityTitle  = errors.New("activity title cannot be empty")
)

// Profile is an immutable snapshot of a user's wellness indicators.
type Profile struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	MoodScore int    `json:"mood_score" yaml:"mood_score"`
	PHQ9      int    `json:"phq9" yaml:"phq9"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewProfile builds a validated Profile.
func NewProfile(id, name string, moodScore, phq9 int, notes string) (Profile, error) {
	p := Profile{
		ID:        strings.TrimSpace(id),
		Name:      strings.TrimSpace(name),
		MoodScore: moodScore,
		PHQ9:      phq9,
		Notes:     strings.TrimSpace(notes),
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks identifier presence and score ranges.
func (p Profile) Validate() error {
	if p.ID == "" {
		return ErrEmptyProfileID
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s: %w", p.ID, ErrEmptyProfileName)
	}
	if p.MoodScore < MinMoodScore || p.MoodScore > MaxMoodScore {
		return fmt.Errorf("profile %s: %w: %d not in [%d,%d]", p.ID, ErrMoodScoreOutOfRange, p.MoodScore, MinMoodScore, MaxMoodScore)
	}
	if p.PHQ9 < MinPHQ9 || p.PHQ9 > MaxPHQ9 {
		return fmt.Errorf("profile %s: %w: %d not in [%d,%d]", p.ID, ErrPHQ9OutOfRange, p.PHQ9, MinPHQ9, MaxPHQ9)
	}
	return nil
}

// IsSevere reports whether the profile's indicators meet the severity threshold.
func (p Profile) IsSevere() bool {
	return p.PHQ9 >= SeverePHQ9Threshold || p.MoodScore <= SevereMoodThreshold
}

// Activity is a catalog entry that can be suggested to a user.
type Activity struct {
	Title string          `json:"title"`
	Tags  map[string]bool `json:"-"`
	Link  string          `json:"link,omitempty"`
}

// NewActivity builds a validated Activity. Tags are case-folded and deduplicated.
func NewActivity(title string, tags []string, link string) (Activity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Activity{}, ErrEmptyActivityTitle
	}
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	return Activity{Title: title, Tags: set, Link: strings.TrimSpace(link)}, nil
}

// HasTag reports whether the activity carries tag.
func (a Activity) HasTag(tag string) bool {
	return a.Tags[tag]
}

// HasAnyTag reports whether the activity carries at least one of tags.
func (a Activity) HasAnyTag(tags ...string) bool {
	for _, t := range tags {
		if a.Tags[t] {
			return true
		}
	}
	return false
}

// HasLink reports whether the activity points at an external resource.
func (a Activity) HasLink() bool {
	return a.Link != ""
}

// TagList returns the activity's tags in sorted order.
func (a Activity) TagList() []string {
	out := make([]string, 0, len(a.Tags))
	for t := range a.Tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
