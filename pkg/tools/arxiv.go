package tools

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"askpdf/pkg/search"
)

// PaperSearcher is the slice of the arXiv client the paper tool needs.
type PaperSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Paper, error)
}

// ArxivSearch queries arXiv for scientific papers.
type ArxivSearch struct {
	searcher PaperSearcher
	limit    int
}

func NewArxivSearch(searcher PaperSearcher, limit int) *ArxivSearch {
	if limit <= 0 {
		limit = 3
	}
	return &ArxivSearch{searcher: searcher, limit: limit}
}

func (t *ArxivSearch) Name() string {
	return "search_arxiv"
}

func (t *ArxivSearch) Description() string {
	return "Search arXiv for scientific papers."
}

func (t *ArxivSearch) Definition() llms.Tool {
	return queryDefinition(t.Name(), t.Description())
}

func (t *ArxivSearch) Call(ctx context.Context, query string) (string, error) {
	papers, err := t.searcher.Search(ctx, query, t.limit)
	if err != nil {
		return "", err
	}

	lines := []string{"arXiv Results:"}
	for _, paper := range papers {
		lines = append(lines, paper.Title)
	}

	return strings.Join(lines, "\n"), nil
}
