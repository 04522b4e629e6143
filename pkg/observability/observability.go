// Package observability configures tracing of model and tool activity.
// It is initialized once at server startup from the environment and
// stays out of the agent and retrieval logic; when disabled it costs
// nothing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

const (
	defaultProject  = "default"
	defaultEndpoint = "https://api.smith.langchain.com"
)

type Config struct {
	Enabled  bool
	APIKey   string
	Project  string
	Endpoint string
}

// FromEnv reads the tracing configuration. Both the LANGCHAIN_* and the
// LANGSMITH_* naming schemes are accepted, LANGCHAIN_* winning when both
// are set. Tracing is off unless explicitly enabled.
func FromEnv() Config {
	config := Config{
		Enabled:  truthy(firstEnv("LANGCHAIN_TRACING_V2", "LANGSMITH_TRACING", "LANGCHAIN_TRACING")),
		APIKey:   firstEnv("LANGCHAIN_API_KEY", "LANGSMITH_API_KEY"),
		Project:  firstEnv("LANGCHAIN_PROJECT", "LANGSMITH_PROJECT"),
		Endpoint: firstEnv("LANGCHAIN_ENDPOINT", "LANGSMITH_ENDPOINT"),
	}
	if config.Project == "" {
		config.Project = defaultProject
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	return config
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// Init builds the callback handler for the configuration, or nil when
// tracing is disabled. Call once at startup and pass the handler down;
// tracing failures must never fail a request.
func Init(config Config, logger *slog.Logger) callbacks.Handler {
	if !config.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger.With("trace_project", config.Project)}
}

// Handler traces model and tool activity through structured logs. Events
// it does not care about fall through to the embedded no-op handler.
type Handler struct {
	callbacks.SimpleHandler
	logger *slog.Logger
}

var _ callbacks.Handler = &Handler{}

func (h *Handler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.logger.Info("llm call started", "messages", len(ms))
}

func (h *Handler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if len(res.Choices) == 0 {
		h.logger.Info("llm call finished", "choices", 0)
		return
	}
	choice := res.Choices[0]
	h.logger.Info("llm call finished",
		"tool_calls", len(choice.ToolCalls),
		"content_chars", len(choice.Content))
}

func (h *Handler) HandleLLMError(ctx context.Context, err error) {
	h.logger.Error("llm call failed", "error", err)
}

func (h *Handler) HandleToolStart(ctx context.Context, input string) {
	h.logger.Info("tool call started", "input", input)
}

func (h *Handler) HandleToolEnd(ctx context.Context, output string) {
	h.logger.Info("tool call finished", "output_chars", len(output))
}

func (h *Handler) HandleToolError(ctx context.Context, err error) {
	h.logger.Error("tool call failed", "error", err)
}
