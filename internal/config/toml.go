// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Filter FilterConfig `toml:"filter"`
	Report ReportConfig `toml:"report"`
	Loader LoaderConfig `toml:"loader"`
	Log    LogConfig    `toml:"log"`
}

// FilterConfig holds the filter applied when none is given on the command line.
type FilterConfig struct {
	Period   *string  `toml:"period"`
	Products []string `toml:"products"`
	Region   *string  `toml:"region"`
}

// ReportConfig maps report-related settings.
type ReportConfig struct {
	WeeklyVolume      *float64 `toml:"weekly-volume"`
	ParityNumerator   *string  `toml:"parity-numerator"`
	ParityDenominator *string  `toml:"parity-denominator"`
	Format            *string  `toml:"format"`
}

// LoaderConfig maps CSV import settings.
type LoaderConfig struct {
	Delimiter   *string `toml:"delimiter"`
	RegionsFile *string `toml:"regions-file"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if cfg.Loader.Delimiter != nil {
		if _, err := ParseDelimiter(*cfg.Loader.Delimiter); err != nil {
			return FileConfig{}, err
		}
	}
	return cfg, nil
}

// ParseDelimiter accepts a single character or the names "tab", "comma" and "semicolon".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}
