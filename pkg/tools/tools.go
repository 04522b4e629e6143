// Package tools is the catalogue of search capabilities the agent can
// invoke: PDF retrieval over the session's index, web search, and
// scholarly paper search. Each tool implements the langchaingo tool
// contract plus a function-calling definition for the model.
package tools

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"askpdf/internal/models"
)

// Retriever is the nearest-neighbor lookup the PDF tool wraps.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Tool is a callable capability with a function-calling schema.
type Tool interface {
	lctools.Tool
	Definition() llms.Tool
}

// Config carries the per-tool result limits.
type Config struct {
	TopK         int
	WebResults   int
	ArxivResults int
}

// Build assembles the tool set for one session. The PDF tool is included
// only when a retriever was successfully built; web and arXiv search are
// always available. Selection among the tools is entirely the model's.
func Build(retriever Retriever, web WebSearcher, arxiv PaperSearcher, config Config) []Tool {
	var toolset []Tool

	if retriever != nil {
		toolset = append(toolset, NewPDFSearch(retriever, config.TopK))
	}

	toolset = append(toolset,
		NewWebSearch(web, config.WebResults),
		NewArxivSearch(arxiv, config.ArxivResults),
	)

	return toolset
}

// queryDefinition builds the one-argument function schema shared by all
// search tools.
func queryDefinition(name, description string) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
