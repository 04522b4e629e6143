// Package client talks to the HTTP API: upload a PDF, then converse
// over the returned session. It backs the terminal chat command.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the given server base URL. Uploads can take a
// while on large documents, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 180 * time.Second},
	}
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health checks that the server is reachable and answering.
func (c *Client) Health() error {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// UploadPDF uploads the file and returns the new session id. The call
// blocks until the server has indexed the document.
func (c *Client) UploadPDF(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/upload_pdf", writer.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed: %s", errorMessage(resp))
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return "", fmt.Errorf("upload failed: unreadable response: %w", err)
	}
	if upload.SessionID == "" {
		return "", fmt.Errorf("upload failed: no session id in response")
	}
	return upload.SessionID, nil
}

// Chat sends one message to the session and returns the answer.
func (c *Client) Chat(sessionID, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat failed: %s", errorMessage(resp))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("chat failed: unreadable response: %w", err)
	}
	return chat.Answer, nil
}

// errorMessage extracts the server's error field, falling back to the
// status code when the body is not the expected JSON.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Sprintf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
