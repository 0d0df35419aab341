package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DICTA_PROVIDER", "DICTA_LANGUAGE", "DICTA_DEVICE", "DICTA_DATA_DIR",
		"DICTA_REMOTE_URL", "DICTA_REMOTE_KEY", "DICTA_LOG_PATH",
		"GROQ_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
provider: groq
language: es
device: "USB Microphone"
data_dir: /var/lib/dicta
groq_api_key: file-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "groq" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Language != "es" {
		t.Errorf("Language = %q", cfg.Language)
	}
	if cfg.Device != "USB Microphone" {
		t.Errorf("Device = %q", cfg.Device)
	}
	if cfg.DataDir != "/var/lib/dicta" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.GroqAPIKey != "file-key" {
		t.Errorf("GroqAPIKey = %q", cfg.GroqAPIKey)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
provider: groq
language: es
`)
	t.Setenv("DICTA_PROVIDER", "openai")
	t.Setenv("GROQ_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, env should win", cfg.Provider)
	}
	if cfg.Language != "es" {
		t.Errorf("Language = %q, file value should survive", cfg.Language)
	}
	if cfg.GroqAPIKey != "env-key" {
		t.Errorf("GroqAPIKey = %q", cfg.GroqAPIKey)
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should default")
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Errorf("DataDir = %q, want absolute", cfg.DataDir)
	}
}

func TestUnknownProviderRejected(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "provider: whisperx\n")
	if _, err := Load(path); err == nil {
		t.Error("Load should reject an unknown provider")
	}
}

func TestMalformedYAMLRejected(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "provider: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("Load should reject malformed YAML")
	}
}

func TestRelativeDataDirResolved(t *testing.T) {
	clearEnv(t)
	t.Setenv("DICTA_DATA_DIR", "local-data")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Errorf("DataDir = %q, want absolute", cfg.DataDir)
	}
}
