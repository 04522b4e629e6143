package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Snippets longer than this are cut so a single tool result cannot
// crowd the model's context.
const maxSnippetRunes = 400

// PDFSearch retrieves the most relevant chunks from the session's
// uploaded PDF.
type PDFSearch struct {
	retriever Retriever
	topK      int
}

func NewPDFSearch(retriever Retriever, topK int) *PDFSearch {
	if topK <= 0 {
		topK = 5
	}
	return &PDFSearch{retriever: retriever, topK: topK}
}

func (t *PDFSearch) Name() string {
	return "search_pdf"
}

func (t *PDFSearch) Description() string {
	return "Search the uploaded PDF and return relevant chunks."
}

func (t *PDFSearch) Definition() llms.Tool {
	return queryDefinition(t.Name(), t.Description())
}

// Call runs the nearest-neighbor lookup and formats a ranked list of
// excerpts with page references. No match is an empty-but-successful
// response, not an error.
func (t *PDFSearch) Call(ctx context.Context, query string) (string, error) {
	hits, err := t.retriever.Search(ctx, query, t.topK)
	if err != nil {
		return "", err
	}

	lines := []string{"PDF RAG Results:"}
	if len(hits) == 0 {
		lines = append(lines, "No matching passages found.")
		return strings.Join(lines, "\n"), nil
	}

	for i, hit := range hits {
		snippet := strings.Join(strings.Fields(hit.Text), " ")
		if runes := []rune(snippet); len(runes) > maxSnippetRunes {
			snippet = string(runes[:maxSnippetRunes])
		}
		lines = append(lines, fmt.Sprintf("%d. (page %d) %s", i+1, hit.Page, snippet))
	}

	return strings.Join(lines, "\n"), nil
}
