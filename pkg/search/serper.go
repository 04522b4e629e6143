// Package search wraps the external web and scholarly search providers.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMissingAPIKey is returned when a provider call is attempted without
// a configured credential. Detected at call time, not at startup.
var ErrMissingAPIKey = errors.New("missing SERPER_API_KEY")

const defaultSerperURL = "https://google.serper.dev/search"

// WebResult is one organic search hit.
type WebResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperClient queries the Serper web search API.
type SerperClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerperClient(apiKey string) *SerperClient {
	return &SerperClient{
		apiKey:  apiKey,
		baseURL: defaultSerperURL,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Search returns up to limit organic results for the query. Provider or
// credential failures propagate as errors.
func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]WebResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = 5
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": limit})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	var out struct {
		Organic []WebResult `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode web search response: %w", err)
	}

	if len(out.Organic) > limit {
		out.Organic = out.Organic[:limit]
	}
	return out.Organic, nil
}
