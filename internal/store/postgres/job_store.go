// Package postgres provides the Postgres-backed job store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vagasfeed/ingestor/internal/enrich"
	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the subset of pgxpool.Pool the store needs; pgxmock
// implements it for tests.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// JobStore persists normalized jobs, tags and their associations.
type JobStore struct {
	pool pgxPool
}

// New connects a JobStore using the provided config.
func New(ctx context.Context, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &JobStore{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing with pgxmock).
func NewWithPool(pool pgxPool) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the jobs/tags/job_tags tables when missing.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ExistsGUID reports whether a job with the guid is already stored.
func (s *JobStore) ExistsGUID(ctx context.Context, guid string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE guid = $1)`, guid,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check guid: %w", err)
	}
	return exists, nil
}

// InsertJobs writes one batch inside a single transaction. Duplicate
// guids or slugs are silently skipped; tag rows and job_tag pairs are
// created only for rows actually inserted. Returns the inserted count.
func (s *JobStore) InsertJobs(ctx context.Context, jobs []pipeline.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &pipeline.PersistenceError{Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, job := range jobs {
		newID, err := s.insertJob(ctx, tx, job)
		if err != nil {
			return 0, &pipeline.PersistenceError{Err: err}
		}
		if newID == 0 {
			continue
		}
		inserted++
		if err := s.attachTags(ctx, tx, newID, job.Tags); err != nil {
			return 0, &pipeline.PersistenceError{Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &pipeline.PersistenceError{Err: fmt.Errorf("commit: %w", err)}
	}
	return inserted, nil
}

// insertJob returns the new row id, or 0 when the guid/slug already
// existed and the insert was a no-op.
func (s *JobStore) insertJob(ctx context.Context, tx pgx.Tx, job pipeline.Job) (int64, error) {
	metadataJSON, err := json.Marshal(job.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}
	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO jobs (
	guid, source, title, company,
	description_html, description_short,
	url, published_at, slug, tags_csv, metadata
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT DO NOTHING
RETURNING id`,
		job.GUID,
		job.Source,
		job.Title,
		job.Company,
		job.DescriptionHTML,
		job.DescriptionShort,
		job.URL,
		job.PublishedAt,
		job.Slug,
		strings.Join(job.Tags, ","),
		metadataJSON,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert job %s: %w", job.GUID, err)
	}
	return id, nil
}

func (s *JobStore) attachTags(ctx context.Context, tx pgx.Tx, jobID int64, tags []string) error {
	for _, name := range tags {
		// First writer wins on the tag row; later equivalent tags reuse it.
		if _, err := tx.Exec(ctx, `
INSERT INTO tags (name, slug) VALUES ($1, $2)
ON CONFLICT DO NOTHING`,
			name, enrich.Slugify(name),
		); err != nil {
			return fmt.Errorf("insert tag %q: %w", name, err)
		}

		var tagID int64
		if err := tx.QueryRow(ctx,
			`SELECT id FROM tags WHERE name = $1`, name,
		).Scan(&tagID); err != nil {
			return fmt.Errorf("lookup tag %q: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO job_tags (job_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`,
			jobID, tagID,
		); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// CountJobs returns the total number of stored jobs.
func (s *JobStore) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// TrimToMax keeps the max most recently published rows (ties broken by
// id) and deletes the rest; job_tags rows go with them via cascade.
func (s *JobStore) TrimToMax(ctx context.Context, max int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM jobs WHERE id NOT IN (
	SELECT id FROM jobs ORDER BY published_at DESC, id DESC LIMIT $1
)`, max)
	if err != nil {
		return 0, fmt.Errorf("trim jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ pipeline.JobStore = (*JobStore)(nil)
