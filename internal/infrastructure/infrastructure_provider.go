package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"jan-chat/internal/config"
	"jan-chat/internal/domain/conversation"
	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/auth"
	"jan-chat/internal/infrastructure/credentials"
	"jan-chat/internal/infrastructure/database"
	"jan-chat/internal/infrastructure/database/repository/conversationrepo"
	"jan-chat/internal/infrastructure/database/repository/memoryrepo"
	"jan-chat/internal/infrastructure/database/transaction"
	"jan-chat/internal/infrastructure/inference"
	"jan-chat/internal/infrastructure/logger"
	"jan-chat/internal/infrastructure/observability"
	"jan-chat/internal/infrastructure/postgrest"
	"jan-chat/internal/utils/httpclients"
	chatclient "jan-chat/internal/utils/httpclients/chat"
)

const (
	openAIClientName     = "OpenAIClient"
	openRouterClientName = "OpenRouterClient"
	startupTimeout       = 30 * time.Second
)

// Infrastructure groups the shared dependencies the HTTP server needs directly.
type Infrastructure struct {
	Logger    zerolog.Logger
	Validator *auth.TokenValidator
}

// ProvideConfig loads the service configuration from the environment.
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// ProvideDatabase connects to Postgres and applies the bundled migrations. It
// returns a nil handle for the other store backends.
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	if cfg.StoreBackend != config.StoreBackendPostgres {
		return nil, func() {}, nil
	}

	db, err := database.Connect(database.Config{
		DatabaseURL: cfg.DatabaseURL,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := database.AutoMigrate(ctx, db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info().Msg("database migrations applied")
	}
	return db, cleanup, nil
}

// ProvideConversationRepository selects the conversation store named by STORE_BACKEND.
func ProvideConversationRepository(cfg *config.Config, db *gorm.DB, log zerolog.Logger) (conversation.ConversationRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store selected without a database handle")
		}
		return conversationrepo.NewConversationGormRepository(transaction.NewDatabase(db)), nil
	case config.StoreBackendPostgrest:
		log.Info().Str("url", cfg.PostgrestURL).Msg("using PostgREST conversation store")
		return postgrest.NewConversationRepository(cfg.PostgrestURL, cfg.PostgrestAPIKey, cfg.HTTPTimeout), nil
	case config.StoreBackendMemory:
		log.Warn().Msg("using in-memory conversation store; data is lost on restart")
		return memoryrepo.NewConversationMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// ProvideCredentialSource returns the provider key source named by CREDENTIALS_SOURCE.
func ProvideCredentialSource(cfg *config.Config) (credentials.Source, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return credentials.NewSource(ctx, cfg)
}

// ProvideTokenValidator returns nil when no JWT secret or JWKS URL is configured.
func ProvideTokenValidator(cfg *config.Config, log zerolog.Logger) (*auth.TokenValidator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return auth.NewValidator(ctx, cfg, log)
}

// ProvideInferenceRegistry registers the OpenRouter, OpenAI and Gemini gateways.
func ProvideInferenceRegistry(cfg *config.Config, creds credentials.Source, log zerolog.Logger) *domaininference.Registry {
	openRouterClient := chatclient.NewChatCompletionClient(
		httpclients.NewClient(openRouterClientName),
		openRouterClientName,
		cfg.OpenRouterBaseURL,
	).WithTimeout(cfg.HTTPTimeout)
	openAIClient := chatclient.NewChatCompletionClient(
		httpclients.NewClient(openAIClientName),
		openAIClientName,
		cfg.OpenAIBaseURL,
	).WithTimeout(cfg.HTTPTimeout)

	registry := domaininference.NewRegistry(
		cfg.DefaultModel,
		cfg.StreamModel,
		inference.NewOpenRouterGateway(openRouterClient, creds, cfg.OpenRouterModel, cfg.SiteURL, cfg.SiteName),
		inference.NewOpenAIGateway(openAIClient, creds, cfg.OpenAIModel),
		inference.NewGeminiGateway(creds, cfg.GeminiModel),
	)
	names := make([]string, 0, len(registry.Gateways()))
	for _, gateway := range registry.Gateways() {
		names = append(names, gateway.Name())
	}
	log.Info().
		Strs("gateways", names).
		Str("default_model", registry.DefaultModel()).
		Str("stream_model", registry.DefaultStreamModel()).
		Msg("inference registry ready")
	return registry
}

// ProvideSanitizer scrubs chat content recorded on spans according to TELEMETRY_PII_LEVEL.
func ProvideSanitizer(cfg *config.Config) *observability.Sanitizer {
	return observability.NewSanitizer(observability.PIILevel(cfg.TelemetryPIILevel), cfg.ServiceName)
}

// ProvideInfrastructure bundles the logger and validator for the HTTP server.
func ProvideInfrastructure(log zerolog.Logger, validator *auth.TokenValidator) *Infrastructure {
	return &Infrastructure{
		Logger:    log,
		Validator: validator,
	}
}

var InfrastructureProvider = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideDatabase,
	ProvideConversationRepository,
	ProvideCredentialSource,
	ProvideTokenValidator,
	ProvideInferenceRegistry,
	ProvideSanitizer,
	ProvideInfrastructure,
)
