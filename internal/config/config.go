package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreBackendPostgres  = "postgres"
	StoreBackendPostgrest = "postgrest"
	StoreBackendMemory    = "memory"

	CredentialsSourceEnv = "env"
	CredentialsSourceSSM = "ssm"
)

// Config holds all environment backed configuration for the chat API.
type Config struct {
	// HTTP Server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	PprofAddr          string   `env:"PPROF_ADDR"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost,http://localhost:3000,http://127.0.0.1"`

	// Persistence
	StoreBackend      string        `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	AutoMigrate       bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	PostgrestURL      string        `env:"POSTGREST_URL"`
	PostgrestAPIKey   string        `env:"POSTGREST_API_KEY"`

	// Auth
	JWTSecret           string        `env:"JWT_SECRET"`
	JWKSURL             string        `env:"JWKS_URL"`
	JWTIssuer           string        `env:"JWT_ISSUER"`
	JWTAudience         string        `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	RefreshJWKSInterval time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"5m"`
	JWTClockSkew        time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`

	// Model providers
	DefaultModel      string  `env:"DEFAULT_MODEL" envDefault:"deepseek/deepseek-r1:free"`
	StreamModel       string  `env:"STREAM_MODEL"`
	OpenAIBaseURL     string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenRouterBaseURL string  `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string  `env:"OPENROUTER_MODEL" envDefault:"deepseek/deepseek-r1:free"`
	SiteURL           string  `env:"SITE_URL"`
	SiteName          string  `env:"SITE_NAME"`
	GeminiModel       string  `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	SystemPrompt      string  `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant."`
	MaxTokens         int     `env:"MAX_TOKENS" envDefault:"2048"`
	Temperature       float64 `env:"TEMPERATURE" envDefault:"0.7"`
	ModelCatalogPath  string  `env:"MODEL_CATALOG_PATH"`

	// Provider credentials
	CredentialsSource    string `env:"CREDENTIALS_SOURCE" envDefault:"env"`
	CredentialsSSMPrefix string `env:"CREDENTIALS_SSM_PREFIX"`

	// Application
	AppName        string `env:"APP_NAME" envDefault:"AI Chatbot"`
	AppDescription string `env:"APP_DESCRIPTION" envDefault:"A modern AI chatbot"`

	// Observability / Logging
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`
	OTLPEndpoint      string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders       string        `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName       string        `env:"SERVICE_NAME" envDefault:"chat-api"`
	ServiceNamespace  string        `env:"SERVICE_NAMESPACE" envDefault:"jan"`
	Environment       string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"console"`
	TelemetryPIILevel string        `env:"TELEMETRY_PII_LEVEL" envDefault:"hashed"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.CredentialsSource = strings.ToLower(strings.TrimSpace(c.CredentialsSource))
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if strings.TrimSpace(c.StreamModel) == "" {
		c.StreamModel = c.OpenAIModel
	}

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendPostgrest:
		if _, err := url.ParseRequestURI(c.PostgrestURL); err != nil {
			return fmt.Errorf("invalid POSTGREST_URL: %w", err)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.CredentialsSource {
	case CredentialsSourceEnv:
	case CredentialsSourceSSM:
		if strings.TrimSpace(c.CredentialsSSMPrefix) == "" {
			return errors.New("CREDENTIALS_SSM_PREFIX is required when CREDENTIALS_SOURCE=ssm")
		}
	default:
		return fmt.Errorf("unsupported CREDENTIALS_SOURCE %q", c.CredentialsSource)
	}

	if c.JWKSURL != "" {
		if _, err := url.ParseRequestURI(c.JWKSURL); err != nil {
			return fmt.Errorf("invalid JWKS_URL: %w", err)
		}
	}

	if c.MaxTokens <= 0 {
		return errors.New("MAX_TOKENS must be greater than zero")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("TEMPERATURE must be between 0 and 2")
	}
	return nil
}

// AuthEnabled reports whether any token validation method is configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWKSURL != ""
}
