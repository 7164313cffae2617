package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/crm-chatbot-api/server/internal/agent/graph/classifier"
	"github.com/crm-chatbot-api/server/internal/agent/graph/conversations"
	"github.com/crm-chatbot-api/server/internal/agent/graph/nodes"
	"github.com/crm-chatbot-api/server/internal/agent/graph/tools"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/metrics"
)

// Config holds everything needed to compose the full routing graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat models.
type Config struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Classifier   model.ClassifierModelConfig
	Summarizer   model.SummarizerModelConfig
	Agent        model.AgentModelConfig
	Conversation model.ConversationConfig
	SessionRepo  model.SessionRepository
	CRM          model.CRMDataSource
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels   *nodes.ChatModels
	CRM          model.CRMDataSource
	ToolMaxCalls int
}

// GraphBuilder handles the construction of the routing graph
type GraphBuilder struct {
	config     *GraphConfig
	messages   *conversations.MessagesManager
	classifier *classifier.Classifier
	graph      *compose.Graph[model.RoutingInput, model.RoutingResult]
}

// BuildResponseGraph creates the chat models, builds the graph and returns a
// session-aware Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Provider:   cfg.Provider,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: &cfg.Classifier,
		Summarizer: &cfg.Summarizer,
		Agent:      &cfg.Agent,
	})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:   cms,
		CRM:          cfg.CRM,
		ToolMaxCalls: cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Routing graph built successfully")
	return NewRunner(runnable, cfg.SessionRepo), nil
}

// BuildGraph constructs and returns the compiled routing graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.RoutingInput, model.RoutingResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if err := config.ChatModels.Validate(); err != nil {
		return nil, err
	}
	if config.CRM == nil {
		return nil, fmt.Errorf("crm data source is nil")
	}

	cms := config.ChatModels
	mm := conversations.NewMessagesManager(cms.Summarizer, cms.SummarizerModelName, nodes.RecordUsage)
	cls, err := classifier.New(classifier.Config{
		Model:     cms.Classifier,
		ModelName: cms.ClassifierModelName,
		Messages:  mm,
		OnUsage:   nodes.RecordUsage,
	})
	if err != nil {
		return nil, err
	}

	builder := &GraphBuilder{
		config:     config,
		messages:   mm,
		classifier: cls,
		graph: compose.NewGraph[model.RoutingInput, model.RoutingResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the CRM tools to the agent model and adds the tools node
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	crmTools := tools.GetCRMTools(b.config.CRM)
	toolInfos, err := tools.GetToolInfos(ctx, crmTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToAgentModel(ctx, toolInfos); err != nil {
		return fmt.Errorf("failed to bind tools to agent model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               crmTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning error observation")
			metrics.RecordToolCall(name, metrics.ToolResultUnknown)
			return tools.UnknownToolObservation(name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return tools.SanitizeArguments(name, arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cms := b.config.ChatModels
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeClassifier,
				nodes.NewClassifierNode(b.classifier),
				compose.WithStatePreHandler(nodes.NewClassifierPreHandler()),
				compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeCRMAssembler, nodes.NewCRMAssemblerNode(b.messages))
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeCRMChatModel, cms.Agent,
				compose.WithStatePreHandler(nodes.NewCRMChatModelPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewCRMChatModelPostHandler(cms.AgentModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeCRMFinalize, nodes.NewFinalizeNode(model.LabelCRMAgent))
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeUnknownAssembler, nodes.NewUnknownAssemblerNode(b.messages))
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeUnknownChatModel, cms.Fallback,
				compose.WithStatePostHandler(nodes.NewUnknownChatModelPostHandler(cms.AgentModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeUnknownFinalize, nodes.NewFinalizeNode(model.LabelUnknown))
		},
	}
	for _, add := range steps {
		if err := add(); err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeCRMAssembler, nodes.NodeCRMChatModel},
		{nodes.NodeToolExecutor, nodes.NodeCRMChatModel},
		{nodes.NodeCRMFinalize, compose.END},
		{nodes.NodeUnknownAssembler, nodes.NodeUnknownChatModel},
		{nodes.NodeUnknownChatModel, nodes.NodeUnknownFinalize},
		{nodes.NodeUnknownFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	labelBranch := compose.NewGraphBranch(
		nodes.NewLabelCondition(),
		map[string]bool{
			nodes.NodeCRMAssembler:     true,
			nodes.NodeUnknownAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassifier, labelBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding label branch")
		return fmt.Errorf("error adding label branch: %w", err)
	}

	toolBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeCRMFinalize:  true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeCRMChatModel, toolBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool branch")
		return fmt.Errorf("error adding tool branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.RoutingInput, model.RoutingResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(nodes.MaxRunSteps(b.config.ToolMaxCalls)))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
