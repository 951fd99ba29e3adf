package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun creates a new workflow run in the repository.
func (r *Repository) CreateRun(ctx context.Context, run model.WorkflowRun) error {
	query := `
		INSERT INTO runs (id, spec_text, conversation_id, mode, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.SpecText,
		run.ConversationID,
		run.Mode,
		run.Status,
		run.CreatedAt.Unix(),
		unixOrNil(run.CompletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)
	return nil
}

// GetRun retrieves a workflow run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.WorkflowRun, error) {
	query := `
		SELECT id, spec_text, conversation_id, mode, status, created_at, completed_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent workflow runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.WorkflowRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, spec_text, conversation_id, mode, status, created_at, completed_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.WorkflowRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate runs: %w", err)
	}

	return runs, nil
}

// UpdateRun updates an existing workflow run.
func (r *Repository) UpdateRun(ctx context.Context, run model.WorkflowRun) error {
	query := `
		UPDATE runs
		SET conversation_id = ?, status = ?, completed_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, run.ConversationID, run.Status, unixOrNil(run.CompletedAt), run.ID)
	if err != nil {
		return fmt.Errorf("could not update run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, model.ErrNotFound)
	}

	return nil
}

// CreateStageOutcome appends a stage outcome for a run.
func (r *Repository) CreateStageOutcome(ctx context.Context, runID string, o model.StageOutcome) error {
	query := `
		INSERT INTO stage_outcomes (
			run_id, sequence, stage, status,
			result_id, raw_response,
			sent_at, completed_at,
			error_detail, timed_out
		)
		VALUES (
			?,
			(SELECT COALESCE(MAX(sequence), 0) + 1 FROM stage_outcomes WHERE run_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		runID,
		runID,
		o.Stage,
		o.Status,
		o.ResultID,
		o.RawResponse,
		unixOrZeroNil(o.SentAt),
		unixOrZeroNil(o.CompletedAt),
		o.ErrorDetail,
		boolToInt(o.TimedOut),
	)
	if err != nil {
		return fmt.Errorf("could not insert stage outcome: %w", err)
	}

	return nil
}

// ListStageOutcomes returns the stage outcomes of a run in execution order.
func (r *Repository) ListStageOutcomes(ctx context.Context, runID string) ([]model.StageOutcome, error) {
	query := `
		SELECT stage, status, result_id, raw_response, sent_at, completed_at, error_detail, timed_out
		FROM stage_outcomes
		WHERE run_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("could not query stage outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.StageOutcome
	for rows.Next() {
		var o model.StageOutcome
		var sentAt, completedAt *int64
		var timedOut int

		err := rows.Scan(&o.Stage, &o.Status, &o.ResultID, &o.RawResponse, &sentAt, &completedAt, &o.ErrorDetail, &timedOut)
		if err != nil {
			return nil, fmt.Errorf("could not scan stage outcome: %w", err)
		}

		if sentAt != nil {
			o.SentAt = time.Unix(*sentAt, 0).UTC()
		}
		if completedAt != nil {
			o.CompletedAt = time.Unix(*completedAt, 0).UTC()
		}
		o.TimedOut = timedOut != 0

		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate stage outcomes: %w", err)
	}

	return outcomes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.WorkflowRun, error) {
	var run model.WorkflowRun
	var createdAt int64
	var completedAt *int64

	err := row.Scan(&run.ID, &run.SpecText, &run.ConversationID, &run.Mode, &run.Status, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt != nil {
		t := time.Unix(*completedAt, 0).UTC()
		run.CompletedAt = &t
	}

	return &run, nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func unixOrZeroNil(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	u := t.Unix()
	return &u
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
