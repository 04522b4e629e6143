// Package server exposes the HTTP API: PDF upload, chat, and health.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tmc/langchaingo/callbacks"

	"askpdf/internal/contentid"
	"askpdf/pkg/agent"
	"askpdf/pkg/config"
	"askpdf/pkg/llm"
	"askpdf/pkg/loader"
	"askpdf/pkg/processor"
	"askpdf/pkg/search"
	"askpdf/pkg/session"
	"askpdf/pkg/store"
	"askpdf/pkg/tools"
)

// invalidSessionAnswer is returned as a normal chat answer when the
// session id is unknown. A soft failure, not an error status.
const invalidSessionAnswer = "Invalid session. Please upload a PDF again."

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type UploadResponse struct {
	SessionID string `json:"session_id"`
}

type Server struct {
	config   *config.Config
	registry *session.Registry
	echo     *echo.Echo
	callback callbacks.Handler

	// Constructor seams for the hosted model clients, substituted by
	// tests with local fakes.
	newEmbedder   func(llm.EmbedderConfig) (store.EmbedderClient, error)
	newChatEngine func(llm.ChatConfig) (agent.Generator, error)
}

// New builds the server. The callback handler traces model and tool
// activity; nil disables tracing.
func New(cfg *config.Config, callback callbacks.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		config:   cfg,
		registry: session.NewRegistry(),
		echo:     e,
		callback: callback,
		newEmbedder: func(c llm.EmbedderConfig) (store.EmbedderClient, error) {
			return llm.NewEmbedderWithConfig(c)
		},
		newChatEngine: func(c llm.ChatConfig) (agent.Generator, error) {
			return llm.NewWithConfig(c)
		},
	}

	e.GET("/health", s.handleHealth)
	e.POST("/upload_pdf", s.handleUpload)
	e.POST("/chat", s.handleChat)

	return s
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	return s.echo.Start(":" + s.config.Server.Port)
}

// Handler exposes the HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file field"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
	}

	sess, err := s.ingest(c.Request().Context(), data)
	if err != nil {
		slog.Error("ingestion failed", "error", err)
		switch {
		case errors.Is(err, loader.ErrNoExtractableText):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, errBadDocument):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is not a readable PDF"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "ingestion failed"})
		}
	}

	slog.Info("session created", "session_id", sess.ID)
	return c.JSON(http.StatusOK, UploadResponse{SessionID: sess.ID})
}

var errBadDocument = errors.New("bad document")

// ingest runs the full pipeline: hash, persist the PDF, load, chunk,
// embed, persist the index, then bind the tool set and agent into a new
// session. No session is created on failure.
func (s *Server) ingest(ctx context.Context, data []byte) (*session.Session, error) {
	id := contentid.FromBytes(data)

	workspace := s.config.Index.WorkspaceDir
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	pdfPath := filepath.Join(workspace, id+".pdf")
	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to persist upload: %w", err)
	}

	pages, err := loader.LoadPDF(pdfPath)
	if err != nil {
		if errors.Is(err, loader.ErrNoExtractableText) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadDocument, err)
	}

	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    s.config.Index.ChunkSize,
		ChunkOverlap: s.config.Index.ChunkOverlap,
	})
	chunks := chunker.Chunk(pages)

	embedder, err := s.newEmbedder(llm.EmbedderConfig{
		Model:   s.config.Embedding.Model,
		APIKey:  s.config.Embedding.APIKey,
		BaseURL: s.config.Embedding.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	index, err := store.Build(ctx, store.IndexConfig{
		WorkspaceDir: workspace,
		TopK:         s.config.Index.TopK,
	}, id, chunks, embedder)
	if err != nil {
		return nil, err
	}

	chatEngine, err := s.newChatEngine(llm.ChatConfig{
		Model:       s.config.LLM.Model,
		Temperature: s.config.LLM.Temperature,
		MaxTokens:   s.config.LLM.MaxTokens,
		APIKey:      s.config.LLM.APIKey,
		BaseURL:     s.config.LLM.BaseURL,
		Callback:    s.callback,
	})
	if err != nil {
		return nil, err
	}

	toolset := tools.Build(index,
		search.NewSerperClient(s.config.Search.SerperAPIKey),
		search.NewArxivClient(),
		tools.Config{
			TopK:         s.config.Index.TopK,
			WebResults:   s.config.Search.WebResults,
			ArxivResults: s.config.Search.ArxivResults,
		})

	a := agent.New(chatEngine, toolset, agent.AgentConfig{
		MaxRounds:   s.config.Agent.MaxRounds,
		CallTimeout: time.Duration(s.config.Agent.CallTimeoutSecs) * time.Second,
		Callbacks:   s.callback,
	})

	return s.registry.Create(a), nil
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	sess, ok := s.registry.Get(req.SessionID)
	if !ok {
		return c.JSON(http.StatusOK, ChatResponse{Answer: invalidSessionAnswer})
	}

	answer, err := sess.Ask(c.Request().Context(), req.Message)
	if err != nil {
		slog.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "chat failed"})
	}

	return c.JSON(http.StatusOK, ChatResponse{Answer: answer})
}
