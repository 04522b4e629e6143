// Package session holds the in-memory registry mapping session ids to
// their agent and conversation history. Sessions live until process
// restart; production-grade session storage is deliberately out of scope.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// ErrNoAssistantMessage indicates a terminal history without any
// assistant answer, which a correct orchestrator never produces.
var ErrNoAssistantMessage = errors.New("conversation contains no assistant message")

// Runner is the orchestration loop a session drives.
type Runner interface {
	Run(ctx context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error)
}

// Session owns one conversation. The mutex serializes concurrent turns
// on the same session; turns on different sessions are independent.
type Session struct {
	ID string

	mu       sync.Mutex
	agent    Runner
	messages []llms.MessageContent
}

// Ask appends the user message, runs the loop to a terminal answer,
// replaces the stored history wholesale, and returns the text of the
// most recent assistant message.
func (s *Session) Ask(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	result, err := s.agent.Run(ctx, s.messages)
	if err != nil {
		return "", err
	}
	s.messages = result

	for i := len(result) - 1; i >= 0; i-- {
		if result[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		if text := messageText(result[i]); text != "" {
			return text, nil
		}
	}
	return "", ErrNoAssistantMessage
}

// History returns a copy of the current message sequence.
func (s *Session) History() []llms.MessageContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llms.MessageContent, len(s.messages))
	copy(out, s.messages)
	return out
}

func messageText(msg llms.MessageContent) string {
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok && text.Text != "" {
			return text.Text
		}
	}
	return ""
}

// Registry is the process-wide session store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session bound to the given agent and returns
// it with a freshly generated id.
func (r *Registry) Create(agent Runner) *Session {
	session := &Session{
		ID:    uuid.NewString(),
		agent: agent,
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
