package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/openai"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Classifier *model.ClassifierModelConfig
	Summarizer *model.SummarizerModelConfig
	Agent      *model.AgentModelConfig
}

// ChatModels holds every model the graph calls. Agent is tool-calling; the
// fallback agent shares its model name but runs at its own temperature.
type ChatModels struct {
	Classifier einomodel.BaseChatModel
	Summarizer einomodel.BaseChatModel
	Agent      einomodel.ToolCallingChatModel
	Fallback   einomodel.BaseChatModel

	ClassifierModelName string
	SummarizerModelName string
	AgentModelName      string
}

type modelSpec struct {
	role        string
	name        string
	maxTokens   int
	temperature float32
	thinking    bool
}

// NewChatModels creates all chat models for the configured provider.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Classifier == nil || config.Summarizer == nil || config.Agent == nil {
		return nil, fmt.Errorf("model configs are not set")
	}

	specs := []modelSpec{
		{"classifier", config.Classifier.Model, config.Classifier.MaxTokens, config.Classifier.Temperature, false},
		{"summarizer", config.Summarizer.Model, config.Summarizer.MaxTokens, config.Summarizer.Temperature, false},
		{"agent", config.Agent.Model, config.Agent.MaxTokens, config.Agent.Temperature, true},
		{"fallback", config.Agent.Model, config.Agent.MaxTokens, config.Agent.FallbackTemperature, true},
	}

	var build func(modelSpec) (einomodel.ToolCallingChatModel, error)
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", ProviderGemini:
		client, err := newGenAIClient(ctx, config.APIKey, config.BaseURL)
		if err != nil {
			return nil, err
		}
		build = func(s modelSpec) (einomodel.ToolCallingChatModel, error) {
			return newGeminiModel(ctx, client, s)
		}
	case ProviderOpenAI:
		build = func(s modelSpec) (einomodel.ToolCallingChatModel, error) {
			return openai.NewChatModel(openai.Config{
				APIKey:      config.APIKey,
				BaseURL:     config.BaseURL,
				Model:       s.name,
				MaxTokens:   s.maxTokens,
				Temperature: s.temperature,
			})
		}
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}

	built := make([]einomodel.ToolCallingChatModel, len(specs))
	for i, s := range specs {
		m, err := build(s)
		if err != nil {
			logx.Error().Err(err).Str("role", s.role).Str("model", s.name).Msg("Error creating chat model")
			return nil, fmt.Errorf("error creating %s model: %w", s.role, err)
		}
		built[i] = m
	}

	logx.Debug().Str("provider", config.Provider).Msg("Chat models created")
	return &ChatModels{
		Classifier:          built[0],
		Summarizer:          built[1],
		Agent:               built[2],
		Fallback:            built[3],
		ClassifierModelName: config.Classifier.Model,
		SummarizerModelName: config.Summarizer.Model,
		AgentModelName:      config.Agent.Model,
	}, nil
}

func newGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, s modelSpec) (*gemini.ChatModel, error) {
	temperature := s.temperature
	maxTokens := s.maxTokens
	budget := int32(0)
	if s.thinking {
		budget = 2000
	}
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       s.name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(budget),
		},
	})
}

// BindToolsToAgentModel replaces the agent model with one bound to tools.
func (cm *ChatModels) BindToolsToAgentModel(ctx context.Context, tools []*schema.ToolInfo) error {
	bound, err := cm.Agent.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	cm.Agent = bound

	logx.Debug().Int("tool_count", len(tools)).Msg("Successfully bound tools to agent model")
	return nil
}

// Validate reports a missing model.
func (cm *ChatModels) Validate() error {
	if cm == nil || cm.Classifier == nil || cm.Summarizer == nil || cm.Agent == nil || cm.Fallback == nil {
		return fmt.Errorf("chat models are not properly initialized")
	}
	return nil
}
