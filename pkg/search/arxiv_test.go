package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
   You Need</title>
    <summary>The dominant sequence transduction models...</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model...</summary>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.baseURL = srv.URL

	papers, err := client.Search(context.Background(), "transformers", 3)
	require.NoError(t, err)

	assert.Equal(t, "all:transformers", gotQuery)
	require.Len(t, papers, 2)
	assert.Equal(t, "Attention Is All You Need", papers[0].Title, "wrapped titles are collapsed")
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", papers[0].URL)
}

func TestArxivSearch_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.baseURL = srv.URL

	papers, err := client.Search(context.Background(), "transformers", 1)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

func TestArxivSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.baseURL = srv.URL

	_, err := client.Search(context.Background(), "anything", 3)
	assert.Error(t, err)
}
