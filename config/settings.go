package config

import (
	"os"

	"github.com/ZacxDev/eagerstart/fs"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSettingsFile = "eagerstart.yaml"
	DefaultDescriptor   = "eagerstart.star"
	DefaultJournal      = "eagerstart.lock"
	DefaultShell        = "sh"
)

// Settings holds the tool configuration read from eagerstart.yaml.
type Settings struct {
	Descriptors        []string `yaml:"descriptors"`
	StrictUnknownNodes bool     `yaml:"strictUnknownNodes"`
	Journal            string   `yaml:"journal"`
	LogLevel           string   `yaml:"logLevel"`
	Shell              string   `yaml:"shell"`
}

func DefaultSettings() Settings {
	return Settings{
		Descriptors: []string{DefaultDescriptor},
		Journal:     DefaultJournal,
		LogLevel:    "info",
		Shell:       DefaultShell,
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(filesystem fs.FileSystem, path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := filesystem.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No %s found, using defaults", path)
			return settings, nil
		}
		return Settings{}, errors.Wrapf(err, "error reading settings from %s", path)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, errors.Wrapf(err, "error loading settings from %s", path)
	}

	if err := settings.Validate(path); err != nil {
		return Settings{}, err
	}

	logging.Info("ConfigLoader", "Loaded settings from %s", path)
	return settings, nil
}

// Validate fills empty fields with defaults and rejects invalid values.
func (s *Settings) Validate(path string) error {
	defaults := DefaultSettings()
	if len(s.Descriptors) == 0 {
		s.Descriptors = defaults.Descriptors
	}
	if s.Journal == "" {
		s.Journal = defaults.Journal
	}
	if s.Shell == "" {
		s.Shell = defaults.Shell
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return &SettingsError{Path: path, Field: "logLevel", Msg: err.Error()}
	}
	return nil
}
