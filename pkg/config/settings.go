// Package config holds the settings shared by the engine, the built-in
// services and the CLI.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Variable store variants.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WEFT_"

// Settings configures a weft process.
type Settings struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	VariableStore string `yaml:"variable_store" json:"variable_store"`
	VariablesPath string `yaml:"variables_path" json:"variables_path"`
	RedisURL      string `yaml:"redis_url" json:"redis_url"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`
	// VariableEncryptionKey is a base64 encoded 32 byte AES-256 key. When set,
	// variable values are stored encrypted.
	VariableEncryptionKey string   `yaml:"variable_encryption_key" json:"variable_encryption_key,omitempty"`
	VariableFallbackKeys  []string `yaml:"variable_fallback_keys" json:"variable_fallback_keys,omitempty"`
	// VariablesFromEnv names environment variables copied into the variable
	// store at startup.
	VariablesFromEnv []string `yaml:"variables_from_env" json:"variables_from_env,omitempty"`

	Concurrency   int           `yaml:"concurrency" json:"concurrency"`
	MethodTimeout time.Duration `yaml:"method_timeout" json:"method_timeout"`
	TraceLimit    int           `yaml:"trace_limit" json:"trace_limit"`

	ServeAddr string `yaml:"serve_addr" json:"serve_addr"`
}

// Default returns settings with sensible defaults.
func Default() Settings {
	return Settings{
		LogLevel:      "info",
		LogFormat:     "text",
		VariableStore: StoreMemory,
		VariablesPath: "variables.json",
		RedisPrefix:   "weft",
		Concurrency:   1,
		TraceLimit:    100,
		ServeAddr:     ":8080",
	}
}

// Merge applies non-zero values from source into s.
func (s *Settings) Merge(source *Settings) {
	if source.LogLevel != "" {
		s.LogLevel = source.LogLevel
	}
	if source.LogFormat != "" {
		s.LogFormat = source.LogFormat
	}
	if source.VariableStore != "" {
		s.VariableStore = source.VariableStore
	}
	if source.VariablesPath != "" {
		s.VariablesPath = source.VariablesPath
	}
	if source.RedisURL != "" {
		s.RedisURL = source.RedisURL
	}
	if source.RedisPrefix != "" {
		s.RedisPrefix = source.RedisPrefix
	}
	if source.VariableEncryptionKey != "" {
		s.VariableEncryptionKey = source.VariableEncryptionKey
	}
	if len(source.VariableFallbackKeys) > 0 {
		s.VariableFallbackKeys = source.VariableFallbackKeys
	}
	if len(source.VariablesFromEnv) > 0 {
		s.VariablesFromEnv = source.VariablesFromEnv
	}
	if source.Concurrency > 0 {
		s.Concurrency = source.Concurrency
	}
	if source.MethodTimeout > 0 {
		s.MethodTimeout = source.MethodTimeout
	}
	if source.TraceLimit > 0 {
		s.TraceLimit = source.TraceLimit
	}
	if source.ServeAddr != "" {
		s.ServeAddr = source.ServeAddr
	}
}

// Load reads a YAML (or .json) settings file and merges it over the defaults.
// A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded Settings
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &loaded)
	} else {
		err = yaml.Unmarshal(data, &loaded)
	}
	if err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	s.Merge(&loaded)
	return s, nil
}

// ApplyEnv overrides settings from WEFT_* variables found through lookup
// (usually os.LookupEnv).
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FORMAT", &s.LogFormat)
	str("VARIABLE_STORE", &s.VariableStore)
	str("VARIABLES_PATH", &s.VariablesPath)
	str("REDIS_URL", &s.RedisURL)
	str("REDIS_PREFIX", &s.RedisPrefix)
	str("VARIABLE_ENCRYPTION_KEY", &s.VariableEncryptionKey)
	str("SERVE_ADDR", &s.ServeAddr)

	if v, ok := lookup(EnvPrefix + "VARIABLES_FROM_ENV"); ok && v != "" {
		s.VariablesFromEnv = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONCURRENCY: %w", EnvPrefix, err)
		}
		s.Concurrency = n
	}
	if v, ok := lookup(EnvPrefix + "METHOD_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sMETHOD_TIMEOUT: %w", EnvPrefix, err)
		}
		s.MethodTimeout = d
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	switch s.VariableStore {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("variable_store: unsupported value %q", s.VariableStore))
	}
	if s.VariableStore == StoreRedis && s.RedisURL == "" {
		errs = append(errs, errors.New("redis_url: required when variable_store is redis"))
	}
	if s.VariableStore == StoreFile && s.VariablesPath == "" {
		errs = append(errs, errors.New("variables_path: required when variable_store is file"))
	}
	switch strings.ToLower(s.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unsupported value %q", s.LogFormat))
	}
	if s.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency: must not be negative"))
	}
	if s.MethodTimeout < 0 {
		errs = append(errs, errors.New("method_timeout: must not be negative"))
	}
	if s.VariableEncryptionKey != "" {
		if _, err := s.EncryptionKeys(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EncryptionKeys decodes the active key followed by the fallback keys.
// It returns nil when encryption is not configured.
func (s Settings) EncryptionKeys() ([][]byte, error) {
	if s.VariableEncryptionKey == "" {
		return nil, nil
	}
	raw := append([]string{s.VariableEncryptionKey}, s.VariableFallbackKeys...)
	keys := make([][]byte, 0, len(raw))
	for i, enc := range raw {
		key, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("variable encryption key %d: %w", i, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("variable encryption key %d: must decode to 32 bytes, got %d", i, len(key))
		}
		keys = append(keys, key)
	}
	return keys, nil
}
