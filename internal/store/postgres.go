// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	custom_errors "github-repo-mirror/internal/errors"
	"github-repo-mirror/internal/model"
)

// dbtx is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx,
// so query helpers can run either inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed implementation of Store. A single pool is
// constructed at process start and shared by every operation.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres store on top of an existing connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: logger,
	}
}

func (s *Postgres) UpsertRepository(ctx context.Context, repo model.Repository) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO repos (name, url, description, stars)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET url = EXCLUDED.url,
		    description = EXCLUDED.description,
		    stars = EXCLUDED.stars`,
		repo.Name, repo.URL, repo.Description, repo.Stars)
	if err != nil {
		return fmt.Errorf("upsert repository %q: %w", repo.Name, err)
	}
	return nil
}

func (s *Postgres) GetRepository(ctx context.Context, name string) (model.Repository, error) {
	var repo model.Repository
	err := s.pool.QueryRow(ctx, `
		SELECT name, url, description, stars
		FROM repos
		WHERE name = $1`, name).
		Scan(&repo.Name, &repo.URL, &repo.Description, &repo.Stars)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, &custom_errors.ErrNotFound{Repo: name}
	}
	if err != nil {
		return model.Repository{}, fmt.Errorf("get repository %q: %w", name, err)
	}
	return repo, nil
}

// DeleteRepository relies on ON DELETE CASCADE to drop the issue stats and
// commit rows together with the repository.
func (s *Postgres) DeleteRepository(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM repos WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete repository %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("Delete of untracked repository is a no-op", "repo", name)
	}
	return nil
}

func (s *Postgres) ReplaceIssueStats(ctx context.Context, name string, stats []model.IssueLabelStats) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace issue stats: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	repoID, err := s.repoID(ctx, tx, name)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM issues_stats WHERE repo_id = $1`, repoID); err != nil {
		return fmt.Errorf("clear issue stats for %q: %w", name, err)
	}
	for _, stat := range stats {
		_, err := tx.Exec(ctx, `
			INSERT INTO issues_stats (repo_id, label, open_count, closed_count)
			VALUES ($1, $2, $3, $4)`,
			repoID, stat.Label, stat.OpenCount, stat.ClosedCount)
		if err != nil {
			return fmt.Errorf("insert issue stats for %q label %q: %w", name, stat.Label, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) GetIssueStats(ctx context.Context, name string) ([]model.IssueLabelStats, error) {
	repoID, err := s.repoID(ctx, s.pool, name)
	if err != nil {
		var unknown *custom_errors.ErrUnknownRepository
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT label, open_count, closed_count
		FROM issues_stats
		WHERE repo_id = $1
		ORDER BY (open_count + closed_count) DESC, id ASC`, repoID)
	if err != nil {
		return nil, fmt.Errorf("get issue stats for %q: %w", name, err)
	}
	defer rows.Close()

	var stats []model.IssueLabelStats
	for rows.Next() {
		var stat model.IssueLabelStats
		if err := rows.Scan(&stat.Label, &stat.OpenCount, &stat.ClosedCount); err != nil {
			return nil, fmt.Errorf("scan issue stats row: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *Postgres) UpsertCommits(ctx context.Context, name string, commits []model.Commit) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert commits: %w", err)
	}
	defer tx.Rollback(ctx)

	repoID, err := s.repoID(ctx, tx, name)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, commit := range commits {
		tag, err := tx.Exec(ctx, `
			INSERT INTO commits (sha, repo_id, url, author, commit_date, message)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (sha) DO UPDATE
			SET repo_id = EXCLUDED.repo_id,
			    url = EXCLUDED.url,
			    author = EXCLUDED.author,
			    commit_date = EXCLUDED.commit_date,
			    message = EXCLUDED.message`,
			commit.SHA, repoID, commit.URL, commit.Author, commit.Date.UTC(), commit.Message)
		if err != nil {
			return 0, fmt.Errorf("upsert commit %q: %w", commit.SHA, err)
		}
		written += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return written, nil
}

func (s *Postgres) GetCommits(ctx context.Context, name string, start, end *time.Time) ([]model.Commit, error) {
	repoID, err := s.repoID(ctx, s.pool, name)
	if err != nil {
		var unknown *custom_errors.ErrUnknownRepository
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}

	query := `SELECT sha, url, author, commit_date, message FROM commits WHERE repo_id = $1`
	args := []any{repoID}
	if start != nil {
		args = append(args, start.UTC())
		query += fmt.Sprintf(" AND commit_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, end.UTC())
		query += fmt.Sprintf(" AND commit_date <= $%d", len(args))
	}
	query += " ORDER BY commit_date DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get commits for %q: %w", name, err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

func (s *Postgres) SearchCommits(ctx context.Context, name, substring string) ([]model.Commit, error) {
	repoID, err := s.repoID(ctx, s.pool, name)
	if err != nil {
		var unknown *custom_errors.ErrUnknownRepository
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sha, url, author, commit_date, message
		FROM commits
		WHERE repo_id = $1 AND message ILIKE '%' || $2 || '%'
		ORDER BY commit_date DESC`, repoID, substring)
	if err != nil {
		return nil, fmt.Errorf("search commits for %q: %w", name, err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

// repoID resolves a repository name to its row id. The lookup runs on the
// same dbtx as the caller so writes observe the membership check inside
// their own transaction.
func (s *Postgres) repoID(ctx context.Context, q dbtx, name string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM repos WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &custom_errors.ErrUnknownRepository{Repo: name}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve repository %q: %w", name, err)
	}
	return id, nil
}

func scanCommits(rows pgx.Rows) ([]model.Commit, error) {
	var commits []model.Commit
	for rows.Next() {
		var commit model.Commit
		if err := rows.Scan(&commit.SHA, &commit.URL, &commit.Author, &commit.Date, &commit.Message); err != nil {
			return nil, fmt.Errorf("scan commit row: %w", err)
		}
		commit.Date = commit.Date.UTC()
		commits = append(commits, commit)
	}
	return commits, rows.Err()
}
