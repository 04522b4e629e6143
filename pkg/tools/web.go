package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"askpdf/pkg/search"
)

// WebSearcher is the slice of the Serper client the web tool needs.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.WebResult, error)
}

// WebSearch queries an external web search provider.
type WebSearch struct {
	searcher WebSearcher
	limit    int
}

func NewWebSearch(searcher WebSearcher, limit int) *WebSearch {
	if limit <= 0 {
		limit = 5
	}
	return &WebSearch{searcher: searcher, limit: limit}
}

func (t *WebSearch) Name() string {
	return "search_web"
}

func (t *WebSearch) Description() string {
	return "Search the web for current information."
}

func (t *WebSearch) Definition() llms.Tool {
	return queryDefinition(t.Name(), t.Description())
}

// Call returns the top results as title/snippet pairs. Provider failures
// propagate; the orchestrator decides how to present them to the model.
func (t *WebSearch) Call(ctx context.Context, query string) (string, error) {
	results, err := t.searcher.Search(ctx, query, t.limit)
	if err != nil {
		return "", err
	}

	lines := []string{"Web Search Results:"}
	for _, result := range results {
		lines = append(lines, fmt.Sprintf("- %s: %s", result.Title, result.Snippet))
	}

	return strings.Join(lines, "\n"), nil
}
