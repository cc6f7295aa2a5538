package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// loadFile overlays the YAML document at path onto cfg. Keys absent from
// the file keep their current values.
func loadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
