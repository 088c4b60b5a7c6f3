package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERVICE_PORT", "LOG_LEVEL", "LLM_PLANNER_TIER", "LLM_GENERATOR_TIER", "LLM_NER_TIER",
	"PLANNER_TEMPERATURE", "GENERATOR_TEMPERATURE", "NER_ENABLED",
	"PIPELINE_MAX_ATTEMPTS", "PIPELINE_MAX_PER_BEAT", "PIPELINE_QUESTIONS_PER_TASK",
	"PIPELINE_PARALLELISM", "PIPELINE_RUN_TIMEOUT", "REDACTION_BACKEND", "PRESIDIO_ANALYZER_URL",
	"REDACTION_LANGUAGE", "JWT_SECRET", "JWT_EXPIRATION_HOURS", "AUTH_CLIENTS", "BCRYPT_COST",
	"SECRET_PEPPER", "RATE_LIMIT_ENABLED", "RATE_LIMIT_RUN_PER_HOUR", "RATE_LIMIT_RUN_BURST",
	"CORS_ALLOWED_ORIGINS",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if original, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, original) })
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, 2, cfg.MaxPerBeat)
	assert.Equal(t, 5, cfg.Parallelism)
	assert.Equal(t, "advanced", cfg.PlannerTier)
	assert.Equal(t, RedactionPresidio, cfg.RedactionBackend)
	assert.Equal(t, 3*time.Minute, cfg.RunTimeout)
	assert.True(t, cfg.NEREnabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
port: 9090
max_attempts: 3
redaction_backend: pattern
run_timeout: 90s
cors_allowed_origins:
  - https://sop.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, RedactionPattern, cfg.RedactionBackend)
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)
	assert.Equal(t, []string{"https://sop.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2, cfg.MaxPerBeat, "unset keys keep their defaults")
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"parallelism": 2, "ner_enabled": false}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Parallelism)
	assert.False(t, cfg.NEREnabled)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "max_attempts: 3\nport: 9090\n")
	t.Setenv("PIPELINE_MAX_ATTEMPTS", "4")
	t.Setenv("AUTH_CLIENTS", "frontend:$2a$10$abc")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, map[string]string{"frontend": "$2a$10$abc"}, cfg.AuthClients)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml"), "failed to read config file"},
		{"malformed file", writeFile(t, "bad.yaml", "port: [1, 2"), "failed to parse config file"},
		{"invalid values", writeFile(t, "invalid.yaml", "max_attempts: 0\n"), "max_attempts must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.path)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_BadEnvironmentValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PORT", "eighty")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port must be 1-65535"},
		{"unknown tier", func(c *Config) { c.GeneratorTier = "huge" }, "generator_tier"},
		{"zero per beat", func(c *Config) { c.MaxPerBeat = 0 }, "max_per_beat must be at least 1"},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }, "parallelism must be at least 1"},
		{"unknown backend", func(c *Config) { c.RedactionBackend = "regex" }, `unknown redaction_backend "regex"`},
		{"presidio without url", func(c *Config) { c.PresidioAnalyzerURL = "" }, "presidio_analyzer_url is required"},
		{"pattern without url", func(c *Config) {
			c.RedactionBackend = RedactionPattern
			c.PresidioAnalyzerURL = ""
		}, ""},
		{"rate limit zero", func(c *Config) { c.RateLimitRunBurst = 0 }, "rate limits must be positive"},
		{"rate limit disabled", func(c *Config) {
			c.RateLimitEnabled = false
			c.RateLimitRunBurst = 0
		}, ""},
		{"clients without secret", func(c *Config) { c.AuthClients = map[string]string{"a": "h"} }, "auth_clients requires jwt_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 0
	cfg.MaxAttempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be")
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestConfig_JWT(t *testing.T) {
	cfg := Defaults()
	jwtCfg, err := cfg.JWT()
	require.NoError(t, err)
	assert.Nil(t, jwtCfg, "auth disabled without a secret")

	cfg.JWTSecret = "s3cret"
	jwtCfg, err = cfg.JWT()
	require.NoError(t, err)
	require.NotNil(t, jwtCfg)
	assert.Equal(t, 24, jwtCfg.ExpirationHours)
}
