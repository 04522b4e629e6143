package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"askpdf/internal/pdftest"
	"askpdf/pkg/agent"
	"askpdf/pkg/config"
	"askpdf/pkg/llm"
	"askpdf/pkg/store"
)

// stubEmbedder maps texts to deterministic vectors from a tiny keyword
// vocabulary, so similar sentences land near each other without any
// network. It counts embedding calls to observe index reuse.
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func embedText(text string) []float32 {
	vocabulary := []string{"capital", "france", "paris", "geography", "europe"}
	vector := make([]float32, len(vocabulary)+1)
	vector[len(vocabulary)] = 0.1

	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		if strings.Contains(lower, word) {
			vector[i] = 1
		}
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	scale := float32(math.Sqrt(norm))
	for i := range vector {
		vector[i] /= scale
	}
	return vector
}

// scriptedEngine returns canned responses in order and records every
// message history it was handed.
type scriptedEngine struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	calls     [][]llms.MessageContent
}

func (s *scriptedEngine) Generate(_ context.Context, messages []llms.MessageContent, _ []llms.Tool) (*llms.ContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, messages)
	if len(s.responses) == 0 {
		return nil, errors.New("unexpected extra call")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func answer(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func toolRequest(id, name, arguments string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:   id,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}}}
}

func newStubbedServer(t *testing.T, embedder *stubEmbedder, engine *scriptedEngine) *Server {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Index.WorkspaceDir = t.TempDir()

	s := New(cfg, nil)
	s.newEmbedder = func(llm.EmbedderConfig) (store.EmbedderClient, error) {
		return embedder, nil
	}
	s.newChatEngine = func(llm.ChatConfig) (agent.Generator, error) {
		return engine, nil
	}
	return s
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newStubbedServer(t, &stubEmbedder{}, &scriptedEngine{})
}

func uploadRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doUpload(t *testing.T, s *Server, body []byte) (int, UploadResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, body))

	var resp UploadResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func doChat(t *testing.T, s *Server, sessionID, message string) (int, ChatResponse) {
	t.Helper()
	payload := fmt.Sprintf(`{"session_id": %q, "message": %q}`, sessionID, message)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp ChatResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestUploadAndChatRoundTrip(t *testing.T) {
	engine := &scriptedEngine{responses: []*llms.ContentResponse{
		toolRequest("call_1", "search_pdf", `{"query": "capital of France"}`),
		answer("The capital of France is Paris."),
	}}
	embedder := &stubEmbedder{}
	s := newStubbedServer(t, embedder, engine)

	code, up := doUpload(t, s, pdftest.WithPages([]string{
		"An introduction to European geography.",
		"The capital of France is Paris.",
	}))
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, up.SessionID)
	assert.Equal(t, 1, s.registry.Len())

	code, chat := doChat(t, s, up.SessionID, "What is the capital of France?")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "The capital of France is Paris.", chat.Answer)

	// The second model call must carry the retrieved passage as a tool
	// result, proving the query went through the index.
	require.Len(t, engine.calls, 2)
	found := false
	for _, msg := range engine.calls[1] {
		if msg.Role != llms.ChatMessageTypeTool {
			continue
		}
		for _, part := range msg.Parts {
			if result, ok := part.(llms.ToolCallResponse); ok && strings.Contains(result.Content, "Paris") {
				found = true
			}
		}
	}
	assert.True(t, found, "retrieved passage should reach the model as a tool result")
}

func TestDuplicateUploadReusesIndex(t *testing.T) {
	engine := &scriptedEngine{responses: []*llms.ContentResponse{
		answer("first session answer"),
		answer("second session answer"),
	}}
	embedder := &stubEmbedder{}
	s := newStubbedServer(t, embedder, engine)

	body := pdftest.WithText("The capital of France is Paris.")

	code, first := doUpload(t, s, body)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, embedder.callCount())

	code, second := doUpload(t, s, body)
	require.Equal(t, http.StatusOK, code)

	assert.NotEqual(t, first.SessionID, second.SessionID, "identical content still gets a fresh session")
	assert.Equal(t, 2, s.registry.Len())
	assert.Equal(t, 1, embedder.callCount(), "the second upload reuses the ready index")

	// Both sessions answer independently.
	code, chat := doChat(t, s, first.SessionID, "hello")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "first session answer", chat.Answer)

	code, chat = doChat(t, s, second.SessionID, "hello")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "second session answer", chat.Answer)
}

func TestChatUnknownSession(t *testing.T) {
	s := newTestServer(t)

	code, resp := doChat(t, s, "nope", "hello")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invalid session. Please upload a PDF again.", resp.Answer)
}

func TestUploadMissingFile(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadNotAPDF(t *testing.T) {
	s := newTestServer(t)

	code, _ := doUpload(t, s, []byte("this is plain text, not a pdf"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 0, s.registry.Len())
}

func TestUploadNoExtractableText(t *testing.T) {
	s := newTestServer(t)

	code, _ := doUpload(t, s, pdftest.Blank())
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, 0, s.registry.Len())
}
