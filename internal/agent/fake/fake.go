package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/waypointlabs/driver/internal/agent"
	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
)

// SessionConfig is the configuration for the fake session.
type SessionConfig struct {
	Logger log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.Fake"})
	return nil
}

// Session is a fake implementation of the agent.Session interface.
// Every submitted command completes immediately as succeeded, with the
// submitted content echoed back as the raw response. Useful for local
// development and end-to-end tests without a real agent.
type Session struct {
	commands map[string]string // message ID -> command.
	mu       sync.RWMutex
	logger   log.Logger

	submitted int
}

// NewSession creates a new fake session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Session{
		commands: make(map[string]string),
		logger:   cfg.Logger,
	}, nil
}

// CreateConversation creates a fake conversation.
func (s *Session) CreateConversation(ctx context.Context) (string, error) {
	id := "conv-" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	s.logger.Debugf("Created fake conversation %s", id)
	return id, nil
}

// Submit registers a command and returns a handle to it.
func (s *Session) Submit(ctx context.Context, conversationID, command string) (*agent.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := "msg-" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	s.commands[id] = command
	s.submitted++

	s.logger.Debugf("Submitted fake command as %s", id)

	return &agent.Handle{ConversationID: conversationID, MessageID: id}, nil
}

// AwaitCompletion resolves the submission immediately as succeeded.
func (s *Session) AwaitCompletion(ctx context.Context, h agent.Handle, pollInterval, timeout time.Duration) (model.StageOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	command, ok := s.commands[h.MessageID]
	if !ok {
		return model.StageOutcome{}, fmt.Errorf("message %s: %w", h.MessageID, model.ErrNotFound)
	}

	return model.StageOutcome{
		Status:      model.OutcomeStatusSucceeded,
		ResultID:    "result-" + h.MessageID,
		RawResponse: command,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// SubmittedCommands returns how many commands have been submitted.
func (s *Session) SubmittedCommands() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted
}
