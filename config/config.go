// Package config loads the dicta configuration: a YAML file layered
// under DICTA_* environment variables, env winning.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is everything the app needs wired at startup.
type Config struct {
	// Provider selects the transcription backend: groq, openai, or
	// empty for key-based auto-selection.
	Provider string `yaml:"provider"`

	// Language is the transcription language code (e.g. en, es).
	// Empty means provider auto-detect.
	Language string `yaml:"language"`

	// Device is the capture device name; empty uses the system default.
	Device string `yaml:"device"`

	// DataDir is where the local note store lives.
	DataDir string `yaml:"data_dir"`

	// RemoteURL, when set, saves notes to a hosted API instead of the
	// local store.
	RemoteURL string `yaml:"remote_url"`
	RemoteKey string `yaml:"remote_key"`

	// LogPath overrides the OS-specific log directory.
	LogPath string `yaml:"log_path"`

	GroqAPIKey   string `yaml:"groq_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
}

// DefaultPath is where Load looks when no -config flag is given.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dicta", "config.yaml"), nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dicta", "data"), nil
}

// Load reads the YAML file at path (a missing file is not an error),
// applies environment overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overlay := map[string]*string{
		"DICTA_PROVIDER":   &cfg.Provider,
		"DICTA_LANGUAGE":   &cfg.Language,
		"DICTA_DEVICE":     &cfg.Device,
		"DICTA_DATA_DIR":   &cfg.DataDir,
		"DICTA_REMOTE_URL": &cfg.RemoteURL,
		"DICTA_REMOTE_KEY": &cfg.RemoteKey,
		"DICTA_LOG_PATH":   &cfg.LogPath,
		"GROQ_API_KEY":     &cfg.GroqAPIKey,
		"OPENAI_API_KEY":   &cfg.OpenAIAPIKey,
	}
	for name, field := range overlay {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case "", "groq", "openai", "fake":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if len(c.Language) > 8 {
		return fmt.Errorf("config: implausible language code %q", c.Language)
	}
	if !filepath.IsAbs(c.DataDir) {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		c.DataDir = filepath.Join(wd, c.DataDir)
	}
	return nil
}
