package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/acttest/internal/debug"
)

// Config is the file form of the session options.
//
//	strict: true
//	max_rounds: 20
//	debug:
//	  width: 100
//	  pass_through: true
type Config struct {
	Strict    bool          `yaml:"strict"`
	MaxRounds int           `yaml:"max_rounds"`
	Debug     debug.Options `yaml:"debug"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{Debug: debug.DefaultOptions()}
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted debug fields
// keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse session config: %w", err)
	}
	if cfg.MaxRounds < 0 {
		return Config{}, fmt.Errorf("parse session config: max_rounds must be >= 0, got %d", cfg.MaxRounds)
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load session config: %w", err)
	}
	return ParseConfig(data)
}
