package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

type yamlFile struct {
	Settings struct {
		RecordSize   *int `yaml:"record_size"`
		HeaderMarker *int `yaml:"header_marker"`
		DataMarker   *int `yaml:"data_marker"`
	} `yaml:"settings"`
	Rules []struct {
		Name       string `yaml:"name"`
		Conditions string `yaml:"conditions"`
		Updates    string `yaml:"updates"`
	} `yaml:"rules"`
}

// ParseYAML parses a YAML configuration:
//
//	settings:
//	  record_size: 1300
//	  header_marker: 1
//	  data_marker: 2
//	rules:
//	  - name: Rule-1
//	    conditions: "50:02, 78:534"
//	    updates: "70:056"
//
// Unknown fields are rejected.
func ParseYAML(data []byte) (*Config, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	settings, err := buildSettings(f.Settings.RecordSize, f.Settings.HeaderMarker, f.Settings.DataMarker)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Settings: settings}
	for _, r := range f.Rules {
		cfg.Rules = append(cfg.Rules, rules.Definition{
			Name:       r.Name,
			Conditions: r.Conditions,
			Updates:    r.Updates,
		})
	}
	return cfg, nil
}
