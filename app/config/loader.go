package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExtension       = ".txt"
	DefaultStockThreshold  = 4
	DefaultUpsertBatchSize = 100
)

var (
	ErrMissingRemoteDir = errors.New("source.remote_dir is required")
	ErrInvalidEncoding  = errors.New("source.encoding must be 'utf-8' or 'latin-1'")
	ErrInvalidBatchSize = errors.New("settings.upsert_batch_size must be at least 1")
	ErrInvalidThreshold = errors.New("settings.stock_threshold must be non-negative")
)

// Loader handles loading and validation of supplier profiles
type Loader struct {
	profilesDir string
}

func NewLoader(profilesDir string) *Loader {
	return &Loader{profilesDir: profilesDir}
}

// LoadAll loads all YAML profile files from the profiles directory.
// Profiles are keyed by name derived from the filename.
func (l *Loader) LoadAll() (map[string]*Profile, error) {
	profiles := make(map[string]*Profile)

	if _, err := os.Stat(l.profilesDir); os.IsNotExist(err) {
		return profiles, nil
	}

	files, err := filepath.Glob(filepath.Join(l.profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	yamlFiles, err := filepath.Glob(filepath.Join(l.profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	for _, file := range files {
		profile, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(profile); err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", file, err)
		}

		profiles[profile.Name] = profile
		slog.Debug("Loaded supplier profile", "name", profile.Name, "file", file)
	}

	return profiles, nil
}

// rawProfile is the YAML shape. The stock threshold is a pointer so an
// explicit zero survives decoding and only true absence gets the default.
type rawProfile struct {
	Source   ProfileSource `yaml:"source"`
	Settings struct {
		Enabled         bool `yaml:"enabled"`
		StockThreshold  *int `yaml:"stock_threshold"`
		UpsertBatchSize int  `yaml:"upsert_batch_size"`
	} `yaml:"settings"`
}

func (l *Loader) loadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fileName := filepath.Base(path)
	profile := &Profile{
		Name:   strings.TrimSuffix(strings.TrimSuffix(fileName, ".yml"), ".yaml"),
		Source: raw.Source,
		Settings: ProfileSettings{
			Enabled:         raw.Settings.Enabled,
			StockThreshold:  DefaultStockThreshold,
			UpsertBatchSize: raw.Settings.UpsertBatchSize,
		},
	}
	if raw.Settings.StockThreshold != nil {
		profile.Settings.StockThreshold = *raw.Settings.StockThreshold
	}

	l.applyDefaults(profile)

	return profile, nil
}

func (l *Loader) applyDefaults(profile *Profile) {
	if profile.Source.Extension == "" {
		profile.Source.Extension = DefaultExtension
	}
	if profile.Source.Encoding == "" {
		profile.Source.Encoding = "utf-8"
	}
	if profile.Settings.UpsertBatchSize == 0 {
		profile.Settings.UpsertBatchSize = DefaultUpsertBatchSize
	}
}

func (l *Loader) validate(profile *Profile) error {
	if profile.Source.RemoteDir == "" {
		return ErrMissingRemoteDir
	}

	switch strings.ToLower(profile.Source.Encoding) {
	case "utf-8", "latin-1":
	default:
		return ErrInvalidEncoding
	}

	if profile.Settings.UpsertBatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if profile.Settings.StockThreshold < 0 {
		return ErrInvalidThreshold
	}

	return nil
}
