// Package store provides read-only sources for the profile store and activity catalog.
//
// Records come from JSON or YAML files in a data directory or from a SQL database
// (SQLite or PostgreSQL). Every loaded record is validated; any malformed record fails the whole load.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// DefaultMoodScore is assumed for profile records that omit a mood score.
const DefaultMoodScore = 5

// Error variables for better error handling and testability
var (
	// ErrDataLoad wraps every failure to read or decode profile and activity data.
	ErrDataLoad = errors.New("data load failed")
	// ErrNoProfiles is returned when the profile store is empty.
	ErrNoProfiles = errors.New("profile store is empty")
	// ErrProfileNotFound is returned when a requested profile id is not in the store.
	ErrProfileNotFound = errors.New("profile not found")
)

// Source loads profiles and activities.
type Source interface {
	LoadProfiles(ctx context.Context) (map[string]models.Profile, error)
	LoadActivities(ctx context.Context) ([]models.Activity, error)
	Close() error
}

// Opts holds configuration options for sources.
type Opts struct {
	DSN     string
	DataDir string
	Driver  string
}

// Option configures a source.
type Option func(*Opts)

// WithSQLiteDSN selects a SQLite database file.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite"
	}
}

// WithPostgresDSN selects a PostgreSQL database.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// WithDataDir selects a directory of JSON or YAML data files.
func WithDataDir(dir string) Option {
	return func(o *Opts) {
		o.DataDir = dir
	}
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and "sqlite" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewSource builds the source described by opts. A DSN takes precedence over a data directory.
func NewSource(opts ...Option) (Source, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DSN != "" {
		driver := cfg.Driver
		if driver == "" {
			driver = DetectDSNType(cfg.DSN)
		}
		slog.Debug("store.NewSource: using database source", "driver", driver)
		switch driver {
		case "postgres":
			return NewPostgresSource(WithPostgresDSN(cfg.DSN))
		default:
			return NewSQLiteSource(WithSQLiteDSN(cfg.DSN))
		}
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("%w: neither DSN nor data directory configured", ErrDataLoad)
	}
	slog.Debug("store.NewSource: using file source", "dir", cfg.DataDir)
	return NewFileSource(cfg.DataDir), nil
}

// SelectProfile returns the profile with id, or a uniformly random profile when id is empty.
// Profiles are ordered by id before drawing so a seeded rng gives a repeatable choice.
func SelectProfile(profiles map[string]models.Profile, id string, rng *rand.Rand) (models.Profile, error) {
	if len(profiles) == 0 {
		return models.Profile{}, ErrNoProfiles
	}
	if id != "" {
		p, ok := profiles[id]
		if !ok {
			return models.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
		}
		return p, nil
	}

	ids := make([]string, 0, len(profiles))
	for k := range profiles {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	var idx int
	if rng != nil {
		idx = rng.IntN(len(ids))
	} else {
		idx = rand.IntN(len(ids))
	}
	slog.Debug("store.SelectProfile: profile selected", "profileID", ids[idx], "candidates", len(ids))
	return profiles[ids[idx]], nil
}

// profileRecord is the on-disk shape of a profile, shared by the file and SQL sources.
type profileRecord struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	MoodScore *int   `json:"mood_score" yaml:"mood_score"`
	PHQ9      *int   `json:"phq9" yaml:"phq9"`
	Notes     string `json:"notes" yaml:"notes"`
}

func (r profileRecord) toProfile(id string) (models.Profile, error) {
	if r.ID != "" && r.ID != id {
		return models.Profile{}, fmt.Errorf("%w: profile key %q does not match id %q", ErrDataLoad, id, r.ID)
	}
	if r.PHQ9 == nil {
		return models.Profile{}, fmt.Errorf("%w: profile %s: missing phq9", ErrDataLoad, id)
	}
	mood := DefaultMoodScore
	if r.MoodScore != nil {
		mood = *r.MoodScore
	}
	p, err := models.NewProfile(id, r.Name, mood, *r.PHQ9, r.Notes)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	return p, nil
}

// activityRecord is the on-disk shape of an activity.
type activityRecord struct {
	Title string   `json:"title" yaml:"title"`
	Tags  []string `json:"tags" yaml:"tags"`
	Link  *string  `json:"link" yaml:"link"`
}

func (r activityRecord) toActivity(pos int) (models.Activity, error) {
	link := ""
	if r.Link != nil {
		link = *r.Link
	}
	a, err := models.NewActivity(r.Title, r.Tags, link)
	if err != nil {
		return models.Activity{}, fmt.Errorf("%w: activity %d: %w", ErrDataLoad, pos, err)
	}
	return a, nil
}
