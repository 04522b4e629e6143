package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultArxivURL = "http://export.arxiv.org/api/query"

// Paper is one arXiv search hit.
type Paper struct {
	Title   string
	Summary string
	URL     string
}

// ArxivClient queries the arXiv Atom API. Requests are rate limited to
// one every three seconds per the arXiv usage policy.
type ArxivClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewArxivClient() *ArxivClient {
	return &ArxivClient{
		baseURL: defaultArxivURL,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// Search returns up to limit papers matching the query.
func (c *ArxivClient) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = 3
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if len(papers) == limit {
			break
		}
		papers = append(papers, Paper{
			Title:   collapseWhitespace(entry.Title),
			Summary: collapseWhitespace(entry.Summary),
			URL:     entry.ID,
		})
	}
	return papers, nil
}

// Atom titles wrap across lines with leading indentation.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
