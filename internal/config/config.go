// Package config loads the run settings and raw rule definitions from an
// INI or YAML file. Rule entries are not parsed here; see package rules.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

var (
	// ErrNotFound indicates the configuration file does not exist.
	ErrNotFound = errors.New("config: file not found")
	// ErrInvalidValue indicates a settings value that is not an integer.
	ErrInvalidValue = errors.New("config: invalid value")
)

// Config is a loaded configuration. It is not modified after Load.
type Config struct {
	Path     string
	Settings format.Settings
	Rules    []rules.Definition // Declaration order
}

// Load reads the configuration at path. Files ending in .yaml or .yml are
// parsed as YAML; anything else as INI. Every failure is a FatalError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, format.Fatal("config", path, ErrNotFound)
		}
		return nil, format.Fatal("config", "reading "+path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	default:
		cfg, err = ParseINI(data)
	}
	if err != nil {
		return nil, format.Fatal("config", "parsing "+path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// buildSettings applies configured values over the defaults. nil means the
// value was not configured.
func buildSettings(recordSize, headerDigit, dataDigit *int) (format.Settings, error) {
	s := format.DefaultSettings()
	if recordSize != nil {
		s.RecordSize = *recordSize
	}
	if headerDigit != nil {
		b, err := format.MarkerByte(*headerDigit)
		if err != nil {
			return s, fmt.Errorf("header marker: %w", err)
		}
		s.HeaderMarker = b
	}
	if dataDigit != nil {
		b, err := format.MarkerByte(*dataDigit)
		if err != nil {
			return s, fmt.Errorf("data marker: %w", err)
		}
		s.DataMarker = b
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
