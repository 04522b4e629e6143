// Package agent runs the per-turn decision loop: the model reasons over
// the full message history and either answers or requests tool calls,
// whose results are fed back until it is ready to answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"

	"askpdf/pkg/tools"
)

const systemPrompt = `You are an agentic RAG assistant.

Rules:
- If a PDF search tool is available, you MUST use it for questions
  that can be answered from the uploaded PDF.
- Use web search only if the PDF does not contain the answer.
- Never claim you do not have a PDF if a PDF tool exists.
- Use arxiv search only if the PDF does not contain the answer.
- If you are not sure how to answer a question, you can use web search
  to find the answer.`

// Generator is the single model invocation the loop is built on.
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentResponse, error)
}

type AgentConfig struct {
	MaxRounds   int
	CallTimeout time.Duration
	Callbacks   callbacks.Handler // optional tracing of tool execution
}

// Agent is bound to one tool set for its whole lifetime.
type Agent struct {
	llm    Generator
	tools  map[string]tools.Tool
	defs   []llms.Tool
	config AgentConfig
}

func New(llm Generator, toolset []tools.Tool, config AgentConfig) *Agent {
	if config.MaxRounds <= 0 {
		config.MaxRounds = 8
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 60 * time.Second
	}

	byName := make(map[string]tools.Tool, len(toolset))
	defs := make([]llms.Tool, 0, len(toolset))
	for _, tool := range toolset {
		byName[tool.Name()] = tool
		defs = append(defs, tool.Definition())
	}

	return &Agent{
		llm:    llm,
		tools:  byName,
		defs:   defs,
		config: config,
	}
}

// Run executes the turn loop over the given history and returns the full
// updated message sequence ending in a terminal assistant answer. The
// input slice is not modified.
func (a *Agent) Run(ctx context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error) {
	msgs := ensureSystemMessage(messages)

	for round := 0; round < a.config.MaxRounds; round++ {
		choice, err := a.reason(ctx, msgs, a.defs)
		if err != nil {
			return nil, err
		}

		if len(choice.ToolCalls) == 0 {
			return append(msgs, llms.TextParts(llms.ChatMessageTypeAI, choice.Content)), nil
		}

		msgs = a.act(ctx, msgs, choice.ToolCalls)
	}

	// Round cap reached: one last call without tool definitions forces a
	// terminal answer out of the model.
	choice, err := a.reason(ctx, msgs, nil)
	if err != nil {
		return nil, err
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeAI, choice.Content)), nil
}

// reason invokes the model once under the per-call timeout.
func (a *Agent) reason(ctx context.Context, msgs []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.config.CallTimeout)
	defer cancel()

	response, err := a.llm.Generate(callCtx, msgs, defs)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}
	return response.Choices[0], nil
}

// act executes every requested tool call and appends the assistant's
// request plus one tool-result message per call.
func (a *Agent) act(ctx context.Context, msgs []llms.MessageContent, calls []llms.ToolCall) []llms.MessageContent {
	request := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	for _, call := range calls {
		request.Parts = append(request.Parts, call)
	}
	msgs = append(msgs, request)

	for _, call := range calls {
		msgs = append(msgs, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       call.FunctionCall.Name,
				Content:    a.execute(ctx, call),
			}},
		})
	}
	return msgs
}

// execute runs one tool call. A failed tool is reported back to the
// model as a result string rather than aborting the turn, so the model
// can retry, pick another tool, or answer without it.
func (a *Agent) execute(ctx context.Context, call llms.ToolCall) string {
	name := call.FunctionCall.Name

	tool, ok := a.tools[name]
	if !ok {
		return fmt.Sprintf("Unknown tool %q.", name)
	}

	input := call.FunctionCall.Arguments
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err == nil && args.Query != "" {
		input = args.Query
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.CallTimeout)
	defer cancel()

	if a.config.Callbacks != nil {
		a.config.Callbacks.HandleToolStart(callCtx, input)
	}

	result, err := tool.Call(callCtx, input)
	if err != nil {
		if a.config.Callbacks != nil {
			a.config.Callbacks.HandleToolError(callCtx, err)
		}
		slog.Warn("tool call failed", "tool", name, "error", err)
		return fmt.Sprintf("The %s tool failed: %v. Answer without it or use another tool.", name, err)
	}

	if a.config.Callbacks != nil {
		a.config.Callbacks.HandleToolEnd(callCtx, result)
	}
	return result
}

// ensureSystemMessage prepends the fixed system instruction when the
// history does not already contain one. The result is always a fresh
// slice so callers keep their input intact.
func ensureSystemMessage(messages []llms.MessageContent) []llms.MessageContent {
	for _, msg := range messages {
		if msg.Role == llms.ChatMessageTypeSystem {
			out := make([]llms.MessageContent, len(messages), len(messages)+4)
			copy(out, messages)
			return out
		}
	}

	out := make([]llms.MessageContent, 0, len(messages)+5)
	out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	return append(out, messages...)
}
