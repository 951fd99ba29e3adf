// Package checkpoint provides the append-only audit recording of stage
// outcomes.
package checkpoint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waypointlabs/driver/internal/model"
)

// Recorder appends stage outcomes to durable audit resources. Appends must be
// flushed before returning. Recording is an audit aid, not a correctness
// dependency: callers treat failures as warnings and never abort a run on
// them.
type Recorder interface {
	// Append writes one checkpoint entry to the checkpoint log.
	Append(ctx context.Context, e model.CheckpointEntry) error
	// Trace writes one structured stage outcome record for a run to the
	// trace file, when one is configured.
	Trace(ctx context.Context, runID string, o model.StageOutcome) error
}

const fieldSeparator = "|"

// FormatEntry renders a checkpoint entry as a single delimited human-readable
// line (without trailing newline).
func FormatEntry(e model.CheckpointEntry) string {
	return strings.Join([]string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.RunID,
		string(e.Stage),
		string(e.Status),
		sanitizeSummary(e.Summary),
	}, fieldSeparator)
}

// ParseEntry parses a checkpoint log line produced by FormatEntry.
func ParseEntry(line string) (*model.CheckpointEntry, error) {
	parts := strings.SplitN(line, fieldSeparator, 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("malformed checkpoint line: %w", model.ErrNotValid)
	}

	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed checkpoint timestamp: %w", model.ErrNotValid)
	}

	return &model.CheckpointEntry{
		Timestamp: ts,
		RunID:     parts[1],
		Stage:     model.Stage(parts[2]),
		Status:    model.OutcomeStatus(parts[3]),
		Summary:   parts[4],
	}, nil
}

// sanitizeSummary keeps the summary on one line and out of the field
// separator's way.
func sanitizeSummary(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, fieldSeparator, "/")
	return s
}
