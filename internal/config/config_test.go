package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{EnvAPIURL, EnvLogLevel, EnvTokenStore, EnvRedisAddr} {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.PollInterval != 2*time.Second {
		t.Fatalf("durations = %v/%v, want 30s/2s", cfg.RequestTimeout, cfg.PollInterval)
	}
	if cfg.TokenStore != TokenStoreFile {
		t.Fatalf("TokenStore = %q, want file", cfg.TokenStore)
	}

	wantTokenFile, err := expandPath(defaultTokenFile)
	if err != nil {
		t.Fatalf("expandPath(defaultTokenFile) returned error: %v", err)
	}
	if cfg.TokenFile != wantTokenFile {
		t.Fatalf("TokenFile = %q, want %q", cfg.TokenFile, wantTokenFile)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg != Default() {
		t.Fatalf("Load of missing file = %#v, want Default() %#v", cfg, Default())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
api_url = "  https://fortune.example.com/  "
request_timeout = "10s"
poll_interval = " 500ms "
token_store = "Redis"
redis_addr = "cache:6379"
redis_key = "team:seer"
token_file = "  ~/.seer/tokens.toml  "
log_level = "DEBUG"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://fortune.example.com" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.PollInterval != 500*time.Millisecond {
		t.Fatalf("durations = %v/%v", cfg.RequestTimeout, cfg.PollInterval)
	}
	if cfg.TokenStore != TokenStoreRedis || cfg.RedisAddr != "cache:6379" || cfg.RedisKey != "team:seer" {
		t.Fatalf("token store = %q %q %q", cfg.TokenStore, cfg.RedisAddr, cfg.RedisKey)
	}
	if cfg.TokenFile != filepath.Join(home, ".seer/tokens.toml") {
		t.Fatalf("TokenFile = %q", cfg.TokenFile)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv(EnvAPIURL, "http://staging:9000")
	t.Setenv(EnvTokenStore, "memory")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, `api_url = "http://prod"`+"\n"+`log_level = "debug"`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://staging:9000" || cfg.TokenStore != TokenStoreMemory || cfg.LogLevel != "warn" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	tests := []struct {
		body string
		want string
	}{
		{`api_url = [`, "parse config"},
		{`poll_interval = "soon"`, "parse poll_interval"},
		{`request_timeout = "-1s"`, "must be positive"},
		{`token_store = "s3"`, "invalid token_store"},
		{`log_level = "verbose"`, "invalid log_level"},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("Load(%q) error = %v, want %q", tt.body, err, tt.want)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
