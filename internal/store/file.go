package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/models"
	"gopkg.in/yaml.v3"
)

// Base names of the data files looked up in a data directory.
const (
	ProfilesFileBase   = "profiles"
	ActivitiesFileBase = "activities"
)

var dataFileExtensions = []string{".json", ".yaml", ".yml"}

// FileSource reads profiles and activities from JSON or YAML files.
//
// The profiles file maps profile id to record; the activities file is an ordered list.
type FileSource struct {
	dir string
}

// NewFileSource creates a source over dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// LoadProfiles reads and validates every profile.
func (s *FileSource) LoadProfiles(ctx context.Context) (map[string]models.Profile, error) {
	path, err := s.resolve(ProfilesFileBase)
	if err != nil {
		return nil, err
	}

	var records map[string]profileRecord
	if err := decodeFile(path, &records); err != nil {
		return nil, err
	}

	profiles := make(map[string]models.Profile, len(records))
	for id, rec := range records {
		p, err := rec.toProfile(id)
		if err != nil {
			slog.Error("FileSource.LoadProfiles: invalid profile record", "path", path, "profileID", id, "error", err)
			return nil, err
		}
		profiles[p.ID] = p
	}
	slog.Debug("FileSource.LoadProfiles: profiles loaded", "path", path, "count", len(profiles))
	return profiles, nil
}

// LoadActivities reads and validates the catalog, preserving file order.
func (s *FileSource) LoadActivities(ctx context.Context) ([]models.Activity, error) {
	path, err := s.resolve(ActivitiesFileBase)
	if err != nil {
		return nil, err
	}

	var records []activityRecord
	if err := decodeFile(path, &records); err != nil {
		return nil, err
	}

	catalog := make([]models.Activity, 0, len(records))
	for i, rec := range records {
		a, err := rec.toActivity(i)
		if err != nil {
			slog.Error("FileSource.LoadActivities: invalid activity record", "path", path, "index", i, "error", err)
			return nil, err
		}
		catalog = append(catalog, a)
	}
	slog.Debug("FileSource.LoadActivities: activities loaded", "path", path, "count", len(catalog))
	return catalog, nil
}

// Close is a no-op for file sources.
func (s *FileSource) Close() error {
	return nil
}

// resolve finds the first existing data file for base.
func (s *FileSource) resolve(base string) (string, error) {
	for _, ext := range dataFileExtensions {
		path := filepath.Join(s.dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: stat %s: %w", ErrDataLoad, path, err)
		}
	}
	return "", fmt.Errorf("%w: no %s file (%s) in %s", ErrDataLoad, base, strings.Join(dataFileExtensions, ", "), s.dir)
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrDataLoad, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrDataLoad, path, err)
	}
	return nil
}
