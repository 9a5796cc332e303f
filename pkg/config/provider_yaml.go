package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadFile reads a YAML configuration file layered on top of the default
// configuration: keys absent from the file keep their default values, so
// station config files only need the thresholds they actually tune.
func LoadFile(filename string) (Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(cfgFile, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}
