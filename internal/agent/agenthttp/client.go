// Package agenthttp implements agent.Session against the agent HTTP API.
package agenthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/waypointlabs/driver/internal/agent"
	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
)

const (
	defaultMaxAttempts    = 4
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 4 * time.Second
)

// SessionConfig is the configuration for the HTTP agent session.
type SessionConfig struct {
	// BaseURL is the agent API endpoint (e.g. "https://agent.example.com").
	BaseURL string
	// Token is the bearer token used for authentication.
	Token string
	// HTTPClient is the HTTP client for API requests.
	HTTPClient *http.Client
	// MaxAttempts bounds the retries of a single API call on transient failures.
	MaxAttempts int
	// InitialBackoff is the wait before the first retry, doubled per attempt
	// up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Token == "" {
		return fmt.Errorf("API token is required")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.HTTPSession"})
	return nil
}

// Session is an agent.Session over the agent HTTP API.
type Session struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         log.Logger
}

// NewSession creates a new HTTP agent session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Session{
		baseURL:        cfg.BaseURL,
		token:          cfg.Token,
		httpClient:     cfg.HTTPClient,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         cfg.Logger,
	}, nil
}

// --- JSON wire types (private, agent API) ---

type conversationJSON struct {
	ConversationID string `json:"conversation_id"`
}

type submitRequestJSON struct {
	Content string `json:"content"`
}

type submitResponseJSON struct {
	MessageID string `json:"message_id"`
}

type messageStatusJSON struct {
	Status   string `json:"status"`
	ResultID string `json:"result_id"`
	Result   string `json:"result"`
	Error    string `json:"error"`
}

// Agent-side terminal statuses.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// CreateConversation creates a fresh agent conversation.
func (s *Session) CreateConversation(ctx context.Context) (string, error) {
	var resp conversationJSON
	err := s.doJSON(ctx, http.MethodPost, "/v1/conversations", nil, &resp)
	if err != nil {
		return "", fmt.Errorf("could not create conversation: %w", err)
	}
	if resp.ConversationID == "" {
		return "", fmt.Errorf("agent returned an empty conversation ID")
	}

	s.logger.Debugf("Created conversation %s", resp.ConversationID)

	return resp.ConversationID, nil
}

// Submit sends a command to a conversation.
func (s *Session) Submit(ctx context.Context, conversationID, command string) (*agent.Handle, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation ID is required: %w", model.ErrNotValid)
	}

	var resp submitResponseJSON
	path := fmt.Sprintf("/v1/conversations/%s/messages", conversationID)
	err := s.doJSON(ctx, http.MethodPost, path, submitRequestJSON{Content: command}, &resp)
	if err != nil {
		return nil, fmt.Errorf("could not submit command: %w", err)
	}
	if resp.MessageID == "" {
		return nil, fmt.Errorf("agent returned an empty message ID")
	}

	s.logger.Debugf("Submitted command as message %s", resp.MessageID)

	return &agent.Handle{ConversationID: conversationID, MessageID: resp.MessageID}, nil
}

// AwaitCompletion polls the submission until the agent reports a terminal
// status or timeout elapses. The loop is single-threaded and cooperative: it
// blocks the caller, sleeping pollInterval between polls.
func (s *Session) AwaitCompletion(ctx context.Context, h agent.Handle, pollInterval, timeout time.Duration) (model.StageOutcome, error) {
	deadline := time.Now().Add(timeout)

	// Poll requests carry a hard deadline: an agent that accepts the poll but
	// stalls its response must not hold the stage past its timeout.
	pollCtx, cancel := context.WithDeadline(ctx, deadline.Add(pollInterval))
	defer cancel()

	for {
		var status messageStatusJSON
		path := fmt.Sprintf("/v1/conversations/%s/messages/%s", h.ConversationID, h.MessageID)
		err := s.doJSON(pollCtx, http.MethodGet, path, nil, &status)
		if err != nil {
			if ctx.Err() != nil {
				return model.StageOutcome{}, ctx.Err()
			}
			if pollCtx.Err() != nil {
				return model.StageOutcome{
					Status:      model.OutcomeStatusFailed,
					CompletedAt: time.Now().UTC(),
					ErrorDetail: fmt.Sprintf("no terminal status within %s", timeout),
					TimedOut:    true,
				}, nil
			}
			// Retry budget exhausted, classify as terminal failure.
			return model.StageOutcome{
				Status:      model.OutcomeStatusFailed,
				CompletedAt: time.Now().UTC(),
				ErrorDetail: fmt.Sprintf("communication with agent failed after %d attempts: %s", s.maxAttempts, err),
			}, nil
		}

		switch status.Status {
		case statusSucceeded:
			return model.StageOutcome{
				Status:      model.OutcomeStatusSucceeded,
				ResultID:    status.ResultID,
				RawResponse: status.Result,
				CompletedAt: time.Now().UTC(),
			}, nil
		case statusFailed:
			return model.StageOutcome{
				Status:      model.OutcomeStatusFailed,
				RawResponse: status.Result,
				CompletedAt: time.Now().UTC(),
				ErrorDetail: fmt.Sprintf("agent reported failure: %s", status.Error),
			}, nil
		}

		if time.Now().After(deadline) {
			return model.StageOutcome{
				Status:      model.OutcomeStatusFailed,
				CompletedAt: time.Now().UTC(),
				ErrorDetail: fmt.Sprintf("no terminal status within %s", timeout),
				TimedOut:    true,
			}, nil
		}

		select {
		case <-ctx.Done():
			return model.StageOutcome{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// doJSON performs one API call with bounded retries and exponential backoff
// on transient failures (transport errors, 429 and 5xx responses).
func (s *Session) doJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	backoff := s.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			s.logger.Debugf("Retrying %s %s (attempt %d/%d)", method, path, attempt, s.maxAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
		}

		retryable, err := s.doJSONOnce(ctx, method, path, reqBody, respBody)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		s.logger.Warningf("Transient agent API failure on %s %s: %s", method, path, err)
	}

	return lastErr
}

func (s *Session) doJSONOnce(ctx context.Context, method, path string, reqBody, respBody interface{}) (retryable bool, err error) {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return false, fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, fmt.Errorf("agent API returned status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("agent API returned status %d", resp.StatusCode)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return false, fmt.Errorf("could not decode response: %w", err)
		}
	}

	return false, nil
}
