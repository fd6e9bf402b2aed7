package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/agent/graph/nodes"
	"github.com/retail-assistant/server/internal/agent/graph/observers"
	"github.com/retail-assistant/server/internal/agent/graph/parsers"
	"github.com/retail-assistant/server/internal/agent/graph/prompts"
	"github.com/retail-assistant/server/internal/agent/graph/tools"
	"github.com/retail-assistant/server/internal/agent/model"
	errx "github.com/retail-assistant/server/internal/core/error"
	logx "github.com/retail-assistant/server/pkg/logger"
)

const DefaultMaxSteps = 25

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel  einomodel.ToolCallingChatModel
	ModelName  string
	Tools      []tool.BaseTool
	PromptVars prompts.SystemPromptVars
	Agent      model.AgentConfig
	// Recorder receives tool call events; may be nil.
	Recorder observers.ToolRecorder
}

// GraphBuilder handles the construction of the agent graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[[]*schema.Message, []*schema.Message]
}

// Runner executes the compiled agent graph for one query.
type Runner struct {
	runnable compose.Runnable[[]*schema.Message, []*schema.Message]
	recorder observers.ToolRecorder
}

// Run returns the full message history and the tools that ran. A run that
// exceeds its step bound fails with an error matching errx.ErrStepLimit.
func (r *Runner) Run(ctx context.Context, query string) ([]*schema.Message, []string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil, errx.ErrEmptyQuery
	}

	history, err := r.runnable.Invoke(ctx, []*schema.Message{schema.UserMessage(q)},
		compose.WithCallbacks(observers.NewAllCallbacks(r.recorder)))
	if err != nil {
		if isStepLimit(err) {
			logx.Warn().Err(err).Msg("Agent step limit exceeded")
			return nil, nil, errx.StepLimit(err)
		}
		return nil, nil, errx.WrapLLM(fmt.Errorf("agent run: %w", err))
	}
	return history, nodes.ToolsUsed(history), nil
}

func isStepLimit(err error) bool {
	if errors.Is(err, compose.ErrExceedMaxSteps) {
		return true
	}
	return strings.Contains(err.Error(), "exceeds max steps")
}

// BuildGraph constructs the compiled agent graph and wraps it in a Runner.
func BuildGraph(ctx context.Context, config *GraphConfig) (*Runner, error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if len(config.Tools) == 0 {
		return nil, fmt.Errorf("no tools configured")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[[]*schema.Message, []*schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AgentState {
				return &model.AgentState{}
			}),
		),
	}

	chatModel, err := builder.setupTools(ctx)
	if err != nil {
		return nil, err
	}
	if err := builder.addNodes(chatModel); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	return &Runner{runnable: runnable, recorder: config.Recorder}, nil
}

// setupTools binds tool schemas to the chat model and adds the tools node.
func (b *GraphBuilder) setupTools(ctx context.Context) (einomodel.ToolCallingChatModel, error) {
	toolInfos, err := tools.GetToolInfos(ctx, b.config.Tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return nil, fmt.Errorf("failed to get tool infos: %w", err)
	}

	chatModel, err := b.config.ChatModel.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.config.Tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf(`{"found":false,"error":"unknown_tool","name":%q}`, name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return parsers.SanitizeArguments(arguments, tools.StringFields(name), tools.MaxListLimit), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	if err := b.graph.AddToolsNode(nodes.NodeTools, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolsPreHandler(b.config.Agent.MaxToolCalls)),
		compose.WithStatePostHandler(nodes.NewToolsPostHandler(b.config.Agent.MultiStep)),
	); err != nil {
		return nil, fmt.Errorf("add tools node: %w", err)
	}
	return chatModel, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes(chatModel einomodel.ToolCallingChatModel) error {
	if err := b.graph.AddLambdaNode(nodes.NodeInput,
		nodes.NewInputNode(b.config.PromptVars),
		compose.WithStatePreHandler(nodes.NewInputPreHandler()),
	); err != nil {
		return fmt.Errorf("add input node: %w", err)
	}

	if err := b.graph.AddChatModelNode(nodes.NodeChatModel, chatModel,
		compose.WithStatePreHandler(nodes.NewChatModelPreHandler(b.config.Agent.MaxToolCalls)),
		compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.ModelName)),
	); err != nil {
		return fmt.Errorf("add chat model node: %w", err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeFinalize, nodes.NewFinalizeNode()); err != nil {
		return fmt.Errorf("add finalize node: %w", err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes. In single-step
// mode the tools node ends the run with the history it assembled.
func (b *GraphBuilder) addEdges() error {
	toolsNext := compose.END
	if b.config.Agent.MultiStep {
		toolsNext = nodes.NodeChatModel
	}

	edges := [][2]string{
		{compose.START, nodes.NodeInput},
		{nodes.NodeInput, nodes.NodeChatModel},
		{nodes.NodeTools, toolsNext},
		{nodes.NodeFinalize, compose.END},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolsCondition(),
		map[string]bool{
			nodes.NodeTools:    true,
			nodes.NodeFinalize: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[[]*schema.Message, []*schema.Message], error) {
	maxSteps := b.config.Agent.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_steps", maxSteps).Bool("multi_step", b.config.Agent.MultiStep).Msg("Graph compiled successfully")
	return runnable, nil
}
