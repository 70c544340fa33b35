package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/storage/sqlite/migrations"
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

// Repository is a SQLite implementation of storage.Repository and
// storage.CapabilityRepository.
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

// SaveRun stores a finished run.
func (r *Repository) SaveRun(ctx context.Context, res model.OrchestratorResult) error {
	taskResults, err := json.Marshal(res.TaskResults)
	if err != nil {
		return fmt.Errorf("could not marshal task results: %w", err)
	}

	tree := []byte("{}")
	if res.Tree != nil {
		tree, err = json.Marshal(res.Tree)
		if err != nil {
			return fmt.Errorf("could not marshal execution tree: %w", err)
		}
	}

	query := `
		INSERT INTO runs (
			id, goal, success, aborted, abort_reason,
			summary, diagram, strategy,
			task_results, tree,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		res.RunID, res.Goal, boolToInt(res.Success), boolToInt(res.Aborted), res.AbortReason,
		res.Summary, res.Diagram, string(res.Strategy),
		string(taskResults), string(tree),
		res.StartedAt.Unix(), res.FinishedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %s: %w", res.RunID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Stored run %s", res.RunID)

	return nil
}

// GetRun retrieves a run by id.
func (r *Repository) GetRun(ctx context.Context, runID string) (*model.OrchestratorResult, error) {
	query := `
		SELECT id, goal, success, aborted, abort_reason,
		       summary, diagram, strategy,
		       task_results, tree,
		       started_at, finished_at
		FROM runs WHERE id = ?
	`

	var res model.OrchestratorResult
	var success, aborted int
	var strategy, taskResults, tree string
	var startedAt, finishedAt int64

	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&res.RunID, &res.Goal, &success, &aborted, &res.AbortReason,
		&res.Summary, &res.Diagram, &strategy,
		&taskResults, &tree,
		&startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	res.Success = success != 0
	res.Aborted = aborted != 0
	res.Strategy = model.ExecutionStrategy(strategy)
	res.StartedAt = time.Unix(startedAt, 0)
	res.FinishedAt = time.Unix(finishedAt, 0)

	if err := json.Unmarshal([]byte(taskResults), &res.TaskResults); err != nil {
		return nil, fmt.Errorf("could not unmarshal task results: %w", err)
	}
	res.Tree = &model.ExecutionTree{}
	if err := json.Unmarshal([]byte(tree), res.Tree); err != nil {
		return nil, fmt.Errorf("could not unmarshal execution tree: %w", err)
	}

	return &res, nil
}

// ListRuns lists stored runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	query := `
		SELECT id, goal, success, aborted, strategy, task_results, started_at, finished_at
		FROM runs ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var summaries []model.RunSummary
	for rows.Next() {
		var s model.RunSummary
		var success, aborted int
		var strategy, taskResults string
		var startedAt, finishedAt int64

		if err := rows.Scan(&s.RunID, &s.Goal, &success, &aborted, &strategy, &taskResults, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}

		var results []model.TaskResult
		if err := json.Unmarshal([]byte(taskResults), &results); err != nil {
			return nil, fmt.Errorf("could not unmarshal task results: %w", err)
		}

		s.Success = success != 0
		s.Aborted = aborted != 0
		s.Strategy = model.ExecutionStrategy(strategy)
		s.TaskCount = len(results)
		s.StartedAt = time.Unix(startedAt, 0)
		s.FinishedAt = time.Unix(finishedAt, 0)

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// DeleteRun removes a run by id.
func (r *Repository) DeleteRun(ctx context.Context, runID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("could not delete run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not check deletion: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}

	return nil
}

// GetAppCapability returns the recorded display capability of an app.
func (r *Repository) GetAppCapability(ctx context.Context, appID string) (model.DisplayCapability, error) {
	var c string
	err := r.db.QueryRowContext(ctx, `SELECT capability FROM app_capabilities WHERE app_id = ?`, appID).Scan(&c)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("app %s: %w", appID, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("could not query capability: %w", err)
	}

	return model.DisplayCapability(c), nil
}

// SetAppCapability records the display capability of an app.
func (r *Repository) SetAppCapability(ctx context.Context, appID string, c model.DisplayCapability) error {
	query := `
		INSERT INTO app_capabilities (app_id, capability, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET capability = excluded.capability, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, appID, string(c), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("could not upsert capability: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint violations in the error text.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
