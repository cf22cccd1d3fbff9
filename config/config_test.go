package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/adamthedash/iterators/logger"
)

type engineSection struct {
	Workers         int           `mapstructure:"workers"`
	AdmissionBuffer int           `mapstructure:"admission_buffer"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Engine        engineSection `mapstructure:"engine"`
	Ignored       string        `mapstructure:"-"`
	unexported    int
}

func defaults() testConfig {
	return testConfig{
		ServiceConfig: ServiceConfig{Name: "default-name"},
		Engine:        engineSection{Workers: 4, AdmissionBuffer: 4, Timeout: time.Second},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "svc"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults to be applied, got %q", cfg.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	valid := logger.DefaultConfig()
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development", Logging: valid}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production", Logging: valid}, false, ""},
		{"missing name", ServiceConfig{Environment: "production", Logging: valid}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid", Logging: valid}, true, "config.environment must be one of"},
		{"invalid logging", ServiceConfig{Name: "svc", Environment: "staging"}, true, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	got := Keys(&testConfig{})
	want := []string{
		"name", "environment",
		"logging.level", "logging.format", "logging.output",
		"logging.no_color", "logging.timestamp", "logging.caller",
		"engine.workers", "engine.admission_buffer", "engine.timeout",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if Keys(42) != nil {
		t.Error("expected nil keys for a non-struct")
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("app", "engine.admission_buffer"); got != "APP_ENGINE_ADMISSION_BUFFER" {
		t.Errorf("got %q", got)
	}
	if got := EnvName("", "name"); got != "NAME" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yml", `
name: from-file
engine:
  workers: 8
  timeout: 250ms
`)

	cfg := defaults()
	if err := Load("app", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "from-file" {
		t.Errorf("expected name 'from-file', got %q", cfg.Name)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.Timeout != 250*time.Millisecond {
		t.Errorf("expected timeout 250ms, got %v", cfg.Engine.Timeout)
	}
	if cfg.Engine.AdmissionBuffer != 4 {
		t.Errorf("expected default admission buffer to survive, got %d", cfg.Engine.AdmissionBuffer)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := defaults()
	err := Load("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected Load to succeed with missing files, got %v", err)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected defaults untouched, got %+v", cfg.Engine)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yml", "engine: [unclosed")

	cfg := defaults()
	if err := Load("bad", &cfg, WithConfigFile(path)); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.yml", "engine:\n  workers: 8\n")
	t.Setenv("TESTAPP_ENGINE_WORKERS", "16")
	t.Setenv("TESTAPP_LOGGING_LEVEL", "debug")

	cfg := defaults()
	if err := Load("app", &cfg, WithConfigFile(path), WithEnvPrefix("TESTAPP")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Workers != 16 {
		t.Errorf("expected env to win with 16, got %d", cfg.Engine.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging.level from env, got %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "DOTENVAPP_ENGINE_ADMISSION_BUFFER=0\n")
	t.Cleanup(func() { os.Unsetenv("DOTENVAPP_ENGINE_ADMISSION_BUFFER") })

	cfg := defaults()
	if err := Load("app", &cfg, WithEnvFile(envPath), WithEnvPrefix("DOTENVAPP")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.AdmissionBuffer != 0 {
		t.Errorf("expected admission buffer 0 from .env, got %d", cfg.Engine.AdmissionBuffer)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("FLAGAPP_ENGINE_WORKERS", "16")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 1, "")
	fs.Int("admission-buffer", 99, "")
	fs.String("name", "", "")
	if err := fs.Parse([]string{"--workers=2", "--name=cli"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := defaults()
	keys := map[string]string{"workers": "engine.workers", "admission-buffer": "engine.admission_buffer"}
	if err := Load("app", &cfg, WithEnvPrefix("FLAGAPP"), WithFlags(fs, keys)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Workers != 2 {
		t.Errorf("expected flag to win with 2, got %d", cfg.Engine.Workers)
	}
	if cfg.Name != "cli" {
		t.Errorf("expected unmapped flag to bind by name, got %q", cfg.Name)
	}
	if cfg.Engine.AdmissionBuffer != 4 {
		t.Errorf("unset flag default must not override, got %d", cfg.Engine.AdmissionBuffer)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config/my-app.yaml": true,
		"./.env":               true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("my-app", LoaderConfig{})
	if files.ConfigFile != "./config/my-app.yaml" {
		t.Errorf("expected ./config/my-app.yaml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolverPrefersExplicit(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./my-app.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("my-app", LoaderConfig{ConfigFile: "/etc/app.yml"})
	if files.ConfigFile != "/etc/app.yml" {
		t.Errorf("expected explicit path, got %q", files.ConfigFile)
	}
}

func TestLoad_UsesFileSystemForEnv(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./.env.svc": true}}
	cfg := defaults()
	if err := Load("svc", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != "./.env.svc" {
		t.Errorf("expected .env.svc to be loaded, got %v", fs.loaded)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("X")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" || lc.EnvPrefix != "X" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}
