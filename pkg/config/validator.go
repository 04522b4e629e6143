package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid chat model base URL",
		})
	}

	if c.LLM.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if _, err := url.Parse(c.Embedding.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "invalid embedding base URL",
		})
	}

	if c.Search.WebResults < 1 {
		errors = append(errors, ValidationError{
			Field:   "search.web_results",
			Message: "web_results must be positive",
		})
	}

	if c.Search.ArxivResults < 1 {
		errors = append(errors, ValidationError{
			Field:   "search.arxiv_results",
			Message: "arxiv_results must be positive",
		})
	}

	if c.Index.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	// Overlap strictly below the window size guarantees the chunker makes
	// progress on every step.
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "index.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Index.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Agent.MaxRounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "agent.max_rounds",
			Message: "max_rounds must be positive",
		})
	}

	if c.Agent.CallTimeoutSecs < 1 {
		errors = append(errors, ValidationError{
			Field:   "agent.call_timeout_secs",
			Message: "call_timeout_secs must be positive",
		})
	}

	return errors
}
