// Package file implements the checkpoint recorder on top of append-only
// files.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/waypointlabs/driver/internal/checkpoint"
	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
)

// RecorderConfig is the configuration for the file recorder.
type RecorderConfig struct {
	// CheckpointPath is the checkpoint log location.
	CheckpointPath string
	// TracePath is the optional structured trace file location. Empty
	// disables tracing.
	TracePath string
	Logger    log.Logger
}

func (c *RecorderConfig) defaults() error {
	if c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "checkpoint.File"})
	return nil
}

// Recorder appends checkpoint entries and trace records to files. The files
// are opened in append mode and every record is written as a single write and
// fsynced, so each entry lands atomically and survives a crash right after
// Append returns.
type Recorder struct {
	checkpointFile *os.File
	traceFile      *os.File
	logger         log.Logger
}

// NewRecorder creates a new file recorder, opening (and creating when
// missing) the checkpoint log and optional trace file.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cpFile, err := openAppend(cfg.CheckpointPath)
	if err != nil {
		return nil, fmt.Errorf("could not open checkpoint log: %w", err)
	}

	var traceFile *os.File
	if cfg.TracePath != "" {
		traceFile, err = openAppend(cfg.TracePath)
		if err != nil {
			cpFile.Close()
			return nil, fmt.Errorf("could not open trace file: %w", err)
		}
	}

	cfg.Logger.Debugf("Checkpoint log opened at %s", cfg.CheckpointPath)

	return &Recorder{
		checkpointFile: cpFile,
		traceFile:      traceFile,
		logger:         cfg.Logger,
	}, nil
}

// Close closes the underlying files.
func (r *Recorder) Close() error {
	var traceErr error
	if r.traceFile != nil {
		traceErr = r.traceFile.Close()
	}
	if err := r.checkpointFile.Close(); err != nil {
		return err
	}
	return traceErr
}

// Append writes one checkpoint entry line and flushes it to disk.
func (r *Recorder) Append(ctx context.Context, e model.CheckpointEntry) error {
	line := checkpoint.FormatEntry(e) + "\n"
	if _, err := r.checkpointFile.WriteString(line); err != nil {
		return fmt.Errorf("could not append checkpoint entry: %w", err)
	}
	if err := r.checkpointFile.Sync(); err != nil {
		return fmt.Errorf("could not flush checkpoint log: %w", err)
	}
	return nil
}

// traceRecordJSON is the wire format of one trace file record.
type traceRecordJSON struct {
	RunID       string `json:"run_id"`
	Stage       string `json:"stage"`
	Status      string `json:"status"`
	SentAt      string `json:"sent_at"`
	CompletedAt string `json:"completed_at"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// Trace writes one structured stage outcome record and flushes it to disk.
// It is a no-op when no trace file is configured.
func (r *Recorder) Trace(ctx context.Context, runID string, o model.StageOutcome) error {
	if r.traceFile == nil {
		return nil
	}

	rec := traceRecordJSON{
		RunID:       runID,
		Stage:       string(o.Stage),
		Status:      string(o.Status),
		SentAt:      formatTime(o.SentAt),
		CompletedAt: formatTime(o.CompletedAt),
		ErrorDetail: o.ErrorDetail,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("could not marshal trace record: %w", err)
	}

	if _, err := r.traceFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("could not append trace record: %w", err)
	}
	if err := r.traceFile.Sync(); err != nil {
		return fmt.Errorf("could not flush trace file: %w", err)
	}

	return nil
}

func openAppend(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create directory %s: %w", dir, err)
	}

	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
