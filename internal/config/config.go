// Package config loads service configuration from defaults, an optional
// YAML or JSON file, and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/sop-question-agent/internal/llm"
)

// Redaction backends.
const (
	RedactionPresidio = "presidio"
	RedactionPattern  = "pattern"
)

// Config is the complete service configuration. Field tags name the
// environment variable and the file key for each setting.
type Config struct {
	Port     int    `envconfig:"SERVICE_PORT" yaml:"port" json:"port"`
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level" json:"log_level"`

	GeminiAPIKey         string  `envconfig:"GEMINI_API_KEY" yaml:"gemini_api_key" json:"gemini_api_key"`
	PlannerTier          string  `envconfig:"LLM_PLANNER_TIER" yaml:"planner_tier" json:"planner_tier"`
	GeneratorTier        string  `envconfig:"LLM_GENERATOR_TIER" yaml:"generator_tier" json:"generator_tier"`
	NERTier              string  `envconfig:"LLM_NER_TIER" yaml:"ner_tier" json:"ner_tier"`
	PlannerTemperature   float32 `envconfig:"PLANNER_TEMPERATURE" yaml:"planner_temperature" json:"planner_temperature"`
	GeneratorTemperature float32 `envconfig:"GENERATOR_TEMPERATURE" yaml:"generator_temperature" json:"generator_temperature"`
	NEREnabled           bool    `envconfig:"NER_ENABLED" yaml:"ner_enabled" json:"ner_enabled"`

	MaxAttempts      int           `envconfig:"PIPELINE_MAX_ATTEMPTS" yaml:"max_attempts" json:"max_attempts"`
	MaxPerBeat       int           `envconfig:"PIPELINE_MAX_PER_BEAT" yaml:"max_per_beat" json:"max_per_beat"`
	QuestionsPerTask int           `envconfig:"PIPELINE_QUESTIONS_PER_TASK" yaml:"questions_per_task" json:"questions_per_task"`
	Parallelism      int           `envconfig:"PIPELINE_PARALLELISM" yaml:"parallelism" json:"parallelism"`
	RunTimeout       time.Duration `envconfig:"PIPELINE_RUN_TIMEOUT" yaml:"run_timeout" json:"run_timeout"`

	RedactionBackend    string `envconfig:"REDACTION_BACKEND" yaml:"redaction_backend" json:"redaction_backend"`
	PresidioAnalyzerURL string `envconfig:"PRESIDIO_ANALYZER_URL" yaml:"presidio_analyzer_url" json:"presidio_analyzer_url"`
	RedactionLanguage   string `envconfig:"REDACTION_LANGUAGE" yaml:"redaction_language" json:"redaction_language"`

	DatabaseURL string `envconfig:"DATABASE_URL" yaml:"database_url" json:"database_url"`

	JWTSecret          string            `envconfig:"JWT_SECRET" yaml:"jwt_secret" json:"jwt_secret"`
	JWTExpirationHours int               `envconfig:"JWT_EXPIRATION_HOURS" yaml:"jwt_expiration_hours" json:"jwt_expiration_hours"`
	AuthClients        map[string]string `envconfig:"AUTH_CLIENTS" yaml:"auth_clients" json:"auth_clients"`
	BcryptCost         int               `envconfig:"BCRYPT_COST" yaml:"bcrypt_cost" json:"bcrypt_cost"`
	SecretPepper       string            `envconfig:"SECRET_PEPPER" yaml:"secret_pepper" json:"secret_pepper"`

	RateLimitEnabled    bool     `envconfig:"RATE_LIMIT_ENABLED" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitRunPerHour int      `envconfig:"RATE_LIMIT_RUN_PER_HOUR" yaml:"rate_limit_run_per_hour" json:"rate_limit_run_per_hour"`
	RateLimitRunBurst   int      `envconfig:"RATE_LIMIT_RUN_BURST" yaml:"rate_limit_run_burst" json:"rate_limit_run_burst"`
	CORSAllowedOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" json:"cors_allowed_origins"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:                 8080,
		LogLevel:             "info",
		PlannerTier:          string(llm.TierAdvanced),
		GeneratorTier:        string(llm.TierStandard),
		NERTier:              string(llm.TierLite),
		PlannerTemperature:   0.2,
		GeneratorTemperature: 0.4,
		NEREnabled:           true,
		MaxAttempts:          2,
		MaxPerBeat:           2,
		QuestionsPerTask:     2,
		Parallelism:          5,
		RunTimeout:           3 * time.Minute,
		RedactionBackend:     RedactionPresidio,
		PresidioAnalyzerURL:  "http://localhost:5002",
		RedactionLanguage:    "en",
		JWTExpirationHours:   24,
		BcryptCost:           12,
		RateLimitEnabled:     true,
		RateLimitRunPerHour:  60,
		RateLimitRunBurst:    10,
		CORSAllowedOrigins:   []string{"http://localhost:3000"},
	}
}

// Load builds the configuration. Values in the file at path (YAML or JSON;
// empty path skips it) override the defaults, and environment variables
// override both.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// YAML is a superset of JSON, so one decoder serves both formats.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port must be 1-65535, got %d", c.Port))
	}
	for name, tier := range map[string]string{"planner_tier": c.PlannerTier, "generator_tier": c.GeneratorTier, "ner_tier": c.NERTier} {
		if _, err := llm.ParseTier(tier); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, "max_attempts must be at least 1")
	}
	if c.MaxPerBeat < 1 {
		problems = append(problems, "max_per_beat must be at least 1")
	}
	if c.QuestionsPerTask < 1 {
		problems = append(problems, "questions_per_task must be at least 1")
	}
	if c.Parallelism < 1 {
		problems = append(problems, "parallelism must be at least 1")
	}
	switch c.RedactionBackend {
	case RedactionPresidio:
		if c.PresidioAnalyzerURL == "" {
			problems = append(problems, "presidio_analyzer_url is required for the presidio backend")
		}
	case RedactionPattern:
	default:
		problems = append(problems, fmt.Sprintf("unknown redaction_backend %q", c.RedactionBackend))
	}
	if c.RateLimitEnabled && (c.RateLimitRunPerHour < 1 || c.RateLimitRunBurst < 1) {
		problems = append(problems, "rate limits must be positive when rate limiting is enabled")
	}
	if len(c.AuthClients) > 0 && c.JWTSecret == "" {
		problems = append(problems, "auth_clients requires jwt_secret")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config error: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AuthEnabled reports whether the run endpoint requires a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// JWT returns the token configuration, or nil when auth is disabled.
func (c *Config) JWT() (*JWTConfig, error) {
	if !c.AuthEnabled() {
		return nil, nil
	}
	return NewJWTConfig(c.JWTSecret, c.JWTExpirationHours)
}

// Secrets returns the client-secret hashing configuration.
func (c *Config) Secrets() (*SecretConfig, error) {
	return NewSecretConfig(c.BcryptCost, c.SecretPepper)
}
