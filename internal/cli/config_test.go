package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/treeflow/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))

	cfg := DefaultConfig()
	if want := "file://" + filepath.Join(root, "data", appName, "documents"); cfg.Store != want {
		t.Errorf("Store = %q, want %q", cfg.Store, want)
	}
	if want := "file://" + filepath.Join(root, "cache", appName); cfg.Cache != want {
		t.Errorf("Cache = %q, want %q", cfg.Cache, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
store = "redis://localhost:6379/0?prefix=tf:"
log_level = "debug"
timeout = "5s"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Store != "redis://localhost:6379/0?prefix=tf:" || cfg.LogLevel != "debug" {
		t.Errorf("config = %+v", cfg)
	}
	if d, _ := cfg.TimeoutDuration(); d != 5*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 5s", d)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default :8080", cfg.Addr)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := LoadConfig(""); err != nil {
		t.Errorf("LoadConfig(default, missing) error = %v", err)
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadConfig(explicit, missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", `store = `, errors.ErrCodeInvalidInput},
		{"log level", `log_level = "loud"`, errors.ErrCodeInvalidInput},
		{"timeout", `timeout = "soon"`, errors.ErrCodeInvalidInput},
		{"negative ttl", `session_ttl = "-1m"`, errors.ErrCodeInvalidInput},
		{"store scheme", `store = "s3://bucket"`, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("LoadConfig() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestConfigEncode(t *testing.T) {
	cfg := Config{Store: "null://", LogLevel: "info", Timeout: "1m"}
	data, err := cfg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{`store = "null://"`, `timeout = "1m"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "path")
	if err != nil || strings.TrimSpace(out) != env.config {
		t.Errorf("config path = %q, %v", out, err)
	}

	out, err = env.run(t, "--store", "null://", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `store = "null://"`) || !strings.Contains(out, `log_level = "warn"`) {
		t.Errorf("config show =\n%s", out)
	}
}
