// Package store persists embedded chunks under a content-addressed
// directory and answers nearest-neighbor queries over them. Persistence
// and similarity search are delegated to an embedded vector database;
// this package only owns the directory layout and the readiness contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"askpdf/internal/models"
)

// ErrNotReady is returned when a collection directory exists but was
// never fully written, e.g. after a crash mid-ingestion. Such
// collections are not queryable.
var ErrNotReady = errors.New("index collection is not ready")

const (
	collectionName = "chunks"
	readyMarker    = ".ready"
)

// EmbedderClient produces one vector per input text.
type EmbedderClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type IndexConfig struct {
	WorkspaceDir string
	TopK         int
}

// Index is one document's queryable collection. It is immutable after
// Build returns.
type Index struct {
	contentID  string
	collection *chromem.Collection
	topK       int
}

// Dir returns the collection directory for a content id.
func Dir(workspaceDir, contentID string) string {
	return filepath.Join(workspaceDir, "index_"+contentID)
}

// Exists reports whether a fully written collection exists for the
// content id. Partial directories without the ready marker do not count.
func Exists(workspaceDir, contentID string) bool {
	_, err := os.Stat(filepath.Join(Dir(workspaceDir, contentID), readyMarker))
	return err == nil
}

// Build embeds every chunk and writes the collection for contentID. The
// ready marker is written only after the full batch succeeds, so a crash
// mid-write leaves the collection unqueryable rather than partial. If a
// ready collection already exists for the same content id it is reused
// as-is and no embedding work is done.
func Build(ctx context.Context, config IndexConfig, contentID string, chunks []models.Chunk, embedder EmbedderClient) (*Index, error) {
	if Exists(config.WorkspaceDir, contentID) {
		return Open(config, contentID, embedder)
	}

	dir := Dir(config.WorkspaceDir, contentID)

	// A directory without the marker is a leftover partial write.
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear stale collection: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	collection, err := db.GetOrCreateCollection(collectionName,
		map[string]string{"content_id": contentID}, queryEmbedding(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, err
	}

	documents := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		documents[i] = chromem.Document{
			ID:        fmt.Sprintf("%s_%d", contentID, chunk.Index),
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"page":  strconv.Itoa(chunk.Page),
				"chunk": strconv.Itoa(chunk.Index),
			},
		}
	}

	if err := collection.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, readyMarker), nil, 0644); err != nil {
		return nil, fmt.Errorf("failed to mark collection ready: %w", err)
	}

	return &Index{
		contentID:  contentID,
		collection: collection,
		topK:       config.TopK,
	}, nil
}

// Open loads an existing, fully written collection.
func Open(config IndexConfig, contentID string, embedder EmbedderClient) (*Index, error) {
	if !Exists(config.WorkspaceDir, contentID) {
		return nil, fmt.Errorf("collection %s: %w", contentID, ErrNotReady)
	}

	db, err := chromem.NewPersistentDB(Dir(config.WorkspaceDir, contentID), false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	collection := db.GetCollection(collectionName, queryEmbedding(embedder))
	if collection == nil {
		return nil, fmt.Errorf("collection %s: %w", contentID, ErrNotReady)
	}

	return &Index{
		contentID:  contentID,
		collection: collection,
		topK:       config.TopK,
	}, nil
}

// Search returns the k chunks nearest to the query by cosine similarity.
// Zero k falls back to the configured default. An empty collection or a
// query with no neighbors yields an empty result, not an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = ix.topK
	}
	if count := ix.collection.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	chunks := make([]models.ScoredChunk, 0, len(results))
	for _, result := range results {
		page, _ := strconv.Atoi(result.Metadata["page"])
		index, _ := strconv.Atoi(result.Metadata["chunk"])
		chunks = append(chunks, models.ScoredChunk{
			Chunk: models.Chunk{
				ID:    result.ID,
				Text:  result.Content,
				Page:  page,
				Index: index,
			},
			Score: result.Similarity,
		})
	}

	return chunks, nil
}

// ContentID returns the content id the index was built for.
func (ix *Index) ContentID() string {
	return ix.contentID
}

// queryEmbedding adapts the embedder to the single-text signature the
// vector database uses for query vectors.
func queryEmbedding(embedder EmbedderClient) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("expected one query vector, got %d", len(vectors))
		}
		return vectors[0], nil
	}
}
