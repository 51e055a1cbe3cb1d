package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Token store backends.
const (
	TokenStoreFile   = "file"
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config holds the client settings seer runs with.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	TokenStore     string
	TokenFile      string
	RedisAddr      string
	RedisKey       string
	LogLevel       string
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/seer/config.toml"
	defaultAPIURL         = "http://localhost:8000"
	defaultRequestTimeout = 30 * time.Second
	defaultPollInterval   = 2 * time.Second
	defaultTokenFile      = "~/.config/seer/tokens.toml"
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisKey       = "seer:tokens"
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/state/seer/seer.log"
)

// Environment variables that override the file.
const (
	EnvAPIURL     = "SEER_API_URL"
	EnvLogLevel   = "SEER_LOG_LEVEL"
	EnvTokenStore = "SEER_TOKEN_STORE"
	EnvRedisAddr  = "SEER_REDIS_ADDR"
)

type rawConfig struct {
	APIURL         string `toml:"api_url"`
	RequestTimeout string `toml:"request_timeout"`
	PollInterval   string `toml:"poll_interval"`
	TokenStore     string `toml:"token_store"`
	TokenFile      string `toml:"token_file"`
	RedisAddr      string `toml:"redis_addr"`
	RedisKey       string `toml:"redis_key"`
	LogLevel       string `toml:"log_level"`
	LogFile        string `toml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg, _ := normalize(rawConfig{})
	return cfg
}

// Load locates and parses the seer config, falling back to defaults when
// missing. Environment overrides apply either way.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)
	return normalize(raw)
}

func applyEnv(raw *rawConfig) {
	for env, field := range map[string]*string{
		EnvAPIURL:     &raw.APIURL,
		EnvLogLevel:   &raw.LogLevel,
		EnvTokenStore: &raw.TokenStore,
		EnvRedisAddr:  &raw.RedisAddr,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}
}

func normalize(raw rawConfig) (Config, error) {
	cfg := Config{
		APIURL:    strings.TrimRight(orDefault(raw.APIURL, defaultAPIURL), "/"),
		RedisAddr: orDefault(raw.RedisAddr, defaultRedisAddr),
		RedisKey:  orDefault(raw.RedisKey, defaultRedisKey),
		TokenFile: mustExpand(orDefault(raw.TokenFile, defaultTokenFile)),
		LogFile:   mustExpand(orDefault(raw.LogFile, defaultLogFile)),
	}

	var err error
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}

	cfg.TokenStore = strings.ToLower(orDefault(raw.TokenStore, TokenStoreFile))
	switch cfg.TokenStore {
	case TokenStoreFile, TokenStoreMemory, TokenStoreRedis:
	default:
		return Config{}, fmt.Errorf("invalid token_store %q: want file, memory or redis", cfg.TokenStore)
	}

	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return cfg, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive, got %s", key, value)
	}
	return d, nil
}

// DefaultPath returns the expanded default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
