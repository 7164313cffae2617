package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/crm-chatbot-api/server/internal/agent/graph"
	"github.com/crm-chatbot-api/server/internal/agent/graph/nodes"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	"github.com/crm-chatbot-api/server/internal/agent/repo"
	"github.com/crm-chatbot-api/server/internal/api"
	"github.com/crm-chatbot-api/server/internal/core"
	"github.com/crm-chatbot-api/server/pkg/didar"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	pkgredis "github.com/crm-chatbot-api/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config
	CRM   model.CRMConfig

	// LLM provider
	Provider      string `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// Agent configs
	Classifier   model.ClassifierModelConfig
	Summarizer   model.SummarizerModelConfig
	Agent        model.AgentModelConfig
	Conversation model.ConversationConfig
}

// providerCredentials picks the key and URL of the configured provider.
func (c *AppConfig) providerCredentials() (string, string) {
	if strings.EqualFold(strings.TrimSpace(c.Provider), nodes.ProviderOpenAI) {
		return c.OpenAIAPIKey, c.OpenAIBaseURL
	}
	return c.GeminiAPIKey, c.GeminiBaseURL
}

func main() {
	// Load .env file
	envErr := godotenv.Load(".env")

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	env := core.ParseEnvironment(envCfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: envCfg.LogLevel})
	if envErr != nil {
		logx.Warn().Err(envErr).Msg("Could not load .env file")
	}
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions := newSessionRepository(ctx, &envCfg)
	defer closeSessions()

	crmTimeout, err := time.ParseDuration(envCfg.CRM.Timeout)
	if err != nil {
		logx.Fatal().Err(err).Str("value", envCfg.CRM.Timeout).Msg("Invalid DIDAR_TIMEOUT")
	}
	crm, err := didar.NewClient(didar.Config{
		APIKey:      envCfg.CRM.APIKey,
		BaseURL:     envCfg.CRM.BaseURL,
		Timeout:     crmTimeout,
		SearchLimit: envCfg.CRM.SearchLimit,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create CRM client")
	}

	apiKey, baseURL := envCfg.providerCredentials()
	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		Provider:     envCfg.Provider,
		APIKey:       apiKey,
		BaseURL:      baseURL,
		Classifier:   envCfg.Classifier,
		Summarizer:   envCfg.Summarizer,
		Agent:        envCfg.Agent,
		Conversation: envCfg.Conversation,
		SessionRepo:  sessions,
		CRM:          crm,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	srv := &http.Server{
		Addr:              envCfg.HTTPAddr,
		Handler:           api.NewRouter(runner, sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Str("environment", env.String()).Str("provider", envCfg.Provider).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newSessionRepository uses Redis when REDIS_URL is set and an in-process
// store otherwise.
func newSessionRepository(ctx context.Context, cfg *AppConfig) (model.SessionRepository, func()) {
	if !cfg.Redis.Enabled() {
		logx.Warn().Msg("REDIS_URL not set; sessions are kept in memory")
		return repo.NewMemorySessionRepository(), func() {}
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	logx.Info().Msg("Connected to Redis successfully")

	return repo.NewRedisSessionRepository(rdb, ttl), func() { _ = rdb.Close() }
}
