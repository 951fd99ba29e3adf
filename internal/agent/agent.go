// Package agent defines the communication contract with the external
// asynchronous automation agent.
package agent

import (
	"context"
	"time"

	"github.com/waypointlabs/driver/internal/model"
)

// Handle identifies one in-flight command submission on the agent.
type Handle struct {
	ConversationID string
	MessageID      string
}

// Session owns communication with the external agent. Implementations confine
// side effects to outbound calls: they hold no mutable run state beyond the
// returned outcomes.
type Session interface {
	// CreateConversation creates a fresh conversation and returns its ID.
	CreateConversation(ctx context.Context) (string, error)

	// Submit sends a command to a conversation and returns a handle for
	// awaiting its completion.
	Submit(ctx context.Context, conversationID, command string) (*Handle, error)

	// AwaitCompletion polls the submission at pollInterval until the agent
	// reports a terminal status or timeout elapses. It never blocks past
	// timeout plus one poll interval. Timeouts and agent-reported failures
	// are returned as a failed outcome, not as an error; the error return is
	// reserved for context cancellation.
	AwaitCompletion(ctx context.Context, h Handle, pollInterval, timeout time.Duration) (model.StageOutcome, error)
}
