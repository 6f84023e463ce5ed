// Package postgres implements session.Persister on PostgreSQL using
// raw pgx (no ORM): one row per session in a sessions table, history/
// iterations/review fields stored as JSONB. Migrations run through
// golang-migrate against an embedded SQL source, mirroring the
// teacher's pkg/database/client.go (pgx driver registered under
// database/sql, golang-migrate applying embedded migrations on
// startup) minus the ent-generated schema layer this module has no
// way to regenerate.
package postgres

import (
	"context"
	stdsql "database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver, used only for migrations
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds connection settings for the postgres persister.
type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Persister is a session.Persister backed by PostgreSQL.
type Persister struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, runs pending migrations, and returns a
// ready Persister.
func New(ctx context.Context, cfg Config) (*Persister, error) {
	if err := runMigrations(cfg.DSN); err != nil {
		return nil, fmt.Errorf("postgres persister: migration failed: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres persister: invalid DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres persister: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres persister: failed to ping: %w", err)
	}

	return &Persister{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Persister) Close() {
	p.pool.Close()
}

func runMigrations(dsn string) error {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer func() { _ = sourceDriver.Close() }()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sessions", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Save upserts state's row.
func (p *Persister) Save(state session.State) error {
	ctx := context.Background()

	history, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("postgres persister: failed to marshal history: %w", err)
	}
	iterations, err := json.Marshal(state.Iterations)
	if err != nil {
		return fmt.Errorf("postgres persister: failed to marshal iterations: %w", err)
	}
	config, err := json.Marshal(state.Config)
	if err != nil {
		return fmt.Errorf("postgres persister: failed to marshal config: %w", err)
	}
	var lastReview, stagnationInfo []byte
	if state.LastReview != nil {
		if lastReview, err = json.Marshal(state.LastReview); err != nil {
			return fmt.Errorf("postgres persister: failed to marshal last review: %w", err)
		}
	}
	if state.StagnationInfo != nil {
		if stagnationInfo, err = json.Marshal(state.StagnationInfo); err != nil {
			return fmt.Errorf("postgres persister: failed to marshal stagnation info: %w", err)
		}
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO sessions (id, config, history, iterations, current_loop, is_complete,
			last_review, stagnation_info, codex_context_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			config = EXCLUDED.config,
			history = EXCLUDED.history,
			iterations = EXCLUDED.iterations,
			current_loop = EXCLUDED.current_loop,
			is_complete = EXCLUDED.is_complete,
			last_review = EXCLUDED.last_review,
			stagnation_info = EXCLUDED.stagnation_info,
			codex_context_active = EXCLUDED.codex_context_active,
			updated_at = EXCLUDED.updated_at
	`, state.ID, config, history, iterations, state.CurrentLoop, state.IsComplete,
		lastReview, stagnationInfo, state.CodexContextActive, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres persister: failed to upsert session %s: %w", state.ID, err)
	}
	return nil
}

// Load fetches a session's row by ID.
func (p *Persister) Load(id string) (session.State, bool, error) {
	ctx := context.Background()

	var (
		state                       session.State
		config, history, iterations []byte
		lastReview, stagnationInfo  []byte
	)
	row := p.pool.QueryRow(ctx, `
		SELECT id, config, history, iterations, current_loop, is_complete,
			last_review, stagnation_info, codex_context_active, created_at, updated_at
		FROM sessions WHERE id = $1
	`, id)

	err := row.Scan(&state.ID, &config, &history, &iterations, &state.CurrentLoop, &state.IsComplete,
		&lastReview, &stagnationInfo, &state.CodexContextActive, &state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return session.State{}, false, nil
		}
		return session.State{}, false, fmt.Errorf("postgres persister: failed to load session %s: %w", id, err)
	}

	if err := json.Unmarshal(config, &state.Config); err != nil {
		return session.State{}, false, fmt.Errorf("postgres persister: failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal(history, &state.History); err != nil {
		return session.State{}, false, fmt.Errorf("postgres persister: failed to unmarshal history: %w", err)
	}
	if err := json.Unmarshal(iterations, &state.Iterations); err != nil {
		return session.State{}, false, fmt.Errorf("postgres persister: failed to unmarshal iterations: %w", err)
	}
	if lastReview != nil {
		state.LastReview = new(audit.Review)
		if err := json.Unmarshal(lastReview, state.LastReview); err != nil {
			return session.State{}, false, fmt.Errorf("postgres persister: failed to unmarshal last review: %w", err)
		}
	}
	if stagnationInfo != nil {
		state.StagnationInfo = new(audit.StagnationResult)
		if err := json.Unmarshal(stagnationInfo, state.StagnationInfo); err != nil {
			return session.State{}, false, fmt.Errorf("postgres persister: failed to unmarshal stagnation info: %w", err)
		}
	}

	return state, true, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Delete removes a session's row.
func (p *Persister) Delete(id string) error {
	ctx := context.Background()
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres persister: failed to delete session %s: %w", id, err)
	}
	return nil
}
