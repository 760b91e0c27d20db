// Package resources stores admission resources in Postgres. Priority
// resources back the resources page and mirror the crisis listing the
// guidance service attaches to urgent responses.
package resources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("resources: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("resources: connect: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s == nil || s.Pool == nil {
		return
	}
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return fmt.Errorf("resources: pool not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.Pool.Ping(ctx)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return fmt.Errorf("resources: pool not initialised")
	}

	statement := strings.Join([]string{
		"CREATE TABLE IF NOT EXISTS admission_resources (",
		"    id TEXT PRIMARY KEY,",
		"    title TEXT NOT NULL,",
		"    description TEXT NOT NULL DEFAULT '',",
		"    url TEXT NOT NULL DEFAULT '',",
		"    is_priority BOOLEAN NOT NULL DEFAULT FALSE,",
		"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		")",
	}, "\n")

	if _, err := s.Pool.Exec(ctx, statement); err != nil {
		return fmt.Errorf("resources: ensure schema: %w", err)
	}

	return nil
}

// Insert adds one resource, generating its id.
func (s *Store) Insert(ctx context.Context, res models.Resource, priority bool) error {
	query := "INSERT INTO admission_resources (id, title, description, url, is_priority) VALUES ($1, $2, $3, $4, $5)"
	if _, err := s.Pool.Exec(ctx, query, uuid.NewString(), res.Title, res.Description, res.URL, priority); err != nil {
		return fmt.Errorf("resources: insert %q: %w", res.Title, err)
	}
	return nil
}

// PriorityResources lists the resources flagged as priority, oldest first.
func (s *Store) PriorityResources(ctx context.Context) ([]models.Resource, error) {
	query := "SELECT title, description, url FROM admission_resources WHERE is_priority ORDER BY created_at"
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resources: query priority: %w", err)
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.Title, &res.Description, &res.URL); err != nil {
			return nil, fmt.Errorf("resources: scan row: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resources: iterate rows: %w", err)
	}

	return out, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 5 * time.Second
}
