package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// sqlSource implements the read side shared by the SQLite and Postgres sources.
type sqlSource struct {
	db   *sql.DB
	name string
}

// LoadProfiles reads every row of the profiles table.
func (s *sqlSource) LoadProfiles(ctx context.Context) (map[string]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, mood_score, phq9, notes FROM profiles`)
	if err != nil {
		slog.Error(s.name+".LoadProfiles: query failed", "error", err)
		return nil, fmt.Errorf("%w: query profiles: %w", ErrDataLoad, err)
	}
	defer rows.Close()

	profiles := make(map[string]models.Profile)
	for rows.Next() {
		id, rec, err := scanProfile(rows)
		if err != nil {
			slog.Error(s.name+".LoadProfiles: scan failed", "error", err)
			return nil, fmt.Errorf("%w: scan profile row: %w", ErrDataLoad, err)
		}
		p, err := rec.toProfile(id)
		if err != nil {
			slog.Error(s.name+".LoadProfiles: invalid profile row", "profileID", id, "error", err)
			return nil, err
		}
		profiles[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		slog.Error(s.name+".LoadProfiles: rows iteration failed", "error", err)
		return nil, fmt.Errorf("%w: iterate profile rows: %w", ErrDataLoad, err)
	}
	slog.Debug(s.name+".LoadProfiles succeeded", "count", len(profiles))
	return profiles, nil
}

// LoadActivities reads the activities table in seq order.
func (s *sqlSource) LoadActivities(ctx context.Context) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, tags, link FROM activities ORDER BY seq`)
	if err != nil {
		slog.Error(s.name+".LoadActivities: query failed", "error", err)
		return nil, fmt.Errorf("%w: query activities: %w", ErrDataLoad, err)
	}
	defer rows.Close()

	var catalog []models.Activity
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			slog.Error(s.name+".LoadActivities: scan failed", "error", err)
			return nil, fmt.Errorf("%w: scan activity row: %w", ErrDataLoad, err)
		}
		a, err := rec.toActivity(len(catalog))
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, a)
	}
	if err := rows.Err(); err != nil {
		slog.Error(s.name+".LoadActivities: rows iteration failed", "error", err)
		return nil, fmt.Errorf("%w: iterate activity rows: %w", ErrDataLoad, err)
	}
	slog.Debug(s.name+".LoadActivities succeeded", "count", len(catalog))
	return catalog, nil
}

// Close closes the underlying database.
func (s *sqlSource) Close() error {
	return s.db.Close()
}

// scanProfile scans a profile row. NULL scores map to a missing field.
func scanProfile(rows *sql.Rows) (string, profileRecord, error) {
	var id string
	var rec profileRecord
	var mood, phq9 sql.NullInt64
	if err := rows.Scan(&id, &rec.Name, &mood, &phq9, &rec.Notes); err != nil {
		return "", rec, err
	}
	if mood.Valid {
		v := int(mood.Int64)
		rec.MoodScore = &v
	}
	if phq9.Valid {
		v := int(phq9.Int64)
		rec.PHQ9 = &v
	}
	return id, rec, nil
}

// scanActivity scans an activity row. Tags are stored comma separated.
func scanActivity(rows *sql.Rows) (activityRecord, error) {
	var rec activityRecord
	var tags string
	var link sql.NullString
	if err := rows.Scan(&rec.Title, &tags, &link); err != nil {
		return rec, err
	}
	rec.Tags = splitTags(tags)
	if link.Valid {
		rec.Link = &link.String
	}
	return rec, nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
