package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

// INI section and key names. Keys are matched case-insensitively.
const (
	SettingsSection = "Settings"

	keyRecordSize   = "recordsize"
	keyHeaderMarker = "headermarker"
	keyDataMarker   = "datamarker"
	keyConditions   = "conditions"
	keyUpdates      = "updates"
)

// ParseINI parses an INI configuration. Every section other than [Settings]
// and the unnamed default section is a rule section named after the section.
// Repeated section names are kept as separate definitions so the rule loader
// can report them.
func ParseINI(data []byte) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:        true,
		IgnoreInlineComment:    true,
		AllowNonUniqueSections: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("ini: %w", err)
	}

	var recordSize, headerDigit, dataDigit *int
	if sec, err := f.GetSection(SettingsSection); err == nil {
		if recordSize, err = intKey(sec, keyRecordSize); err != nil {
			return nil, err
		}
		if headerDigit, err = intKey(sec, keyHeaderMarker); err != nil {
			return nil, err
		}
		if dataDigit, err = intKey(sec, keyDataMarker); err != nil {
			return nil, err
		}
	}
	settings, err := buildSettings(recordSize, headerDigit, dataDigit)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Settings: settings}
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || name == SettingsSection {
			continue
		}
		cfg.Rules = append(cfg.Rules, rules.Definition{
			Name:       name,
			Conditions: sec.Key(keyConditions).String(),
			Updates:    sec.Key(keyUpdates).String(),
		})
	}
	return cfg, nil
}

func intKey(sec *ini.Section, name string) (*int, error) {
	if !sec.HasKey(name) {
		return nil, nil
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return nil, fmt.Errorf("%w: [%s] %s = %q", ErrInvalidValue, sec.Name(), name, sec.Key(name).String())
	}
	return &v, nil
}
