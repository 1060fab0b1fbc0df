// Package config loads pipeline configuration from a YAML file with
// environment variable overrides. A .env file in the working directory is
// loaded first when present, so deployments can keep secrets and host
// overrides out of the checked-in config.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source is one evacuation notice page to scrape.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CensusConfig controls where the census profile comes from.
type CensusConfig struct {
	// Source is a local CSV path or an http(s) URL. Empty means the
	// embedded fallback profile.
	Source string `yaml:"source"`
}

// MatchConfig controls fuzzy matching behaviour.
type MatchConfig struct {
	Cutoff           int  `yaml:"cutoff"`
	DesignatedPlaces bool `yaml:"designated_places"`
}

// Config is the full pipeline configuration.
type Config struct {
	Sources []Source     `yaml:"sources"`
	Census  CensusConfig `yaml:"census"`
	Match   MatchConfig  `yaml:"match"`
	OutDir  string       `yaml:"out_dir"`
	DataDir string       `yaml:"data_dir"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Sources: []Source{
			{
				Name: "manitoba evacs",
				URL:  "https://www.gov.mb.ca/emo/evacuations.html",
			},
		},
		Match: MatchConfig{
			Cutoff:           80,
			DesignatedPlaces: true,
		},
		OutDir:  "out",
		DataDir: "~/.wildfire-evacs",
	}
}

// Load reads configuration from path, falling back to defaults for any
// field the file leaves unset, then applies environment overrides. An
// empty path returns the defaults with overrides applied.
func Load(path string) (*Config, error) {
	// Missing .env is fine; only a malformed one is worth noting, and
	// godotenv does not distinguish, so the error is ignored either way.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv lets individual settings be overridden without editing the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WILDFIRE_CENSUS_SOURCE"); v != "" {
		cfg.Census.Source = v
	}
	if v := os.Getenv("WILDFIRE_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("WILDFIRE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WILDFIRE_MATCH_CUTOFF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Match.Cutoff = n
		}
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("config: source %d has no name", i)
		}
		if src.URL == "" {
			return fmt.Errorf("config: source %q has no url", src.Name)
		}
	}
	if c.Match.Cutoff < 0 || c.Match.Cutoff > 100 {
		return fmt.Errorf("config: match cutoff %d out of range 0-100", c.Match.Cutoff)
	}
	return nil
}
