// Package config loads the optional bmptools settings file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// EnvFile names the variable holding the default config path.
const EnvFile = "BMPTOOLS_CONFIG"

const envPrefix = "BMPTOOLS_"

type Config struct {
	Overwrite       bool   `mapstructure:"overwrite"`         // Replace existing output files
	KeepPartial     bool   `mapstructure:"keep_partial"`      // Keep output files of failed runs
	Jobs            int    `mapstructure:"jobs"`              // Files processed at once
	PreviewBlock    string `mapstructure:"preview_block"`     // Text drawn for one pixel by preview
	MaxPreviewWidth int    `mapstructure:"max_preview_width"` // Widest image preview will draw
}

// Returns the settings used when no config file is present
func Default() Config {
	return Config{
		Jobs:            4,
		PreviewBlock:    "  ",
		MaxPreviewWidth: 128,
	}
}

// Load reads the YAML file at path (if any) on top of the defaults, then
// applies BMPTOOLS_<KEY> environment overrides. An empty path falls back to
// $BMPTOOLS_CONFIG; a missing default file is not an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvFile)
	}

	values := map[string]interface{}{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &values); err != nil {
				return Config{}, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// Nothing to load
		default:
			return Config{}, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
		}
	}

	for _, key := range keys() {
		if v, ok := os.LookupEnv(envPrefix + strings.ToUpper(key)); ok {
			values[key] = v
		}
	}

	cfg := Default()
	if err := decode(values, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(values map[string]interface{}, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Returns the names of all config keys
func keys() []string {
	return []string{"overwrite", "keep_partial", "jobs", "preview_block", "max_preview_width"}
}

func (c Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("invalid configuration: jobs must be at least 1, got %d", c.Jobs)
	}
	if c.PreviewBlock == "" {
		return fmt.Errorf("invalid configuration: preview_block must not be empty")
	}
	if c.MaxPreviewWidth < 1 {
		return fmt.Errorf("invalid configuration: max_preview_width must be at least 1, got %d", c.MaxPreviewWidth)
	}
	return nil
}
