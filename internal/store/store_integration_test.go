//go:build integration

// internal/store/store_integration_test.go
package store_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	custom_errors "github-repo-mirror/internal/errors"
	"github-repo-mirror/internal/model"
	"github-repo-mirror/internal/store"
)

// setupTestStore starts a throwaway Postgres container, applies the
// migrations and returns a ready store.
func setupTestStore(t *testing.T) *store.Postgres {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return store.NewPostgres(pool, logger)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestPostgres_Repositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	s := setupTestStore(t)

	repo := model.Repository{
		Name:        "test-owner/test-repo",
		URL:         "https://github.com/test-owner/test-repo",
		Description: strPtr("A test repository"),
		Stars:       42,
	}

	t.Run("upsert then get round-trips every field", func(t *testing.T) {
		require.NoError(t, s.UpsertRepository(ctx, repo))

		got, err := s.GetRepository(ctx, repo.Name)
		require.NoError(t, err)
		assert.Equal(t, repo, got)
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		require.NoError(t, s.UpsertRepository(ctx, repo))
		require.NoError(t, s.UpsertRepository(ctx, repo))

		got, err := s.GetRepository(ctx, repo.Name)
		require.NoError(t, err)
		assert.Equal(t, repo, got)
	})

	t.Run("re-upsert fully replaces the row", func(t *testing.T) {
		updated := model.Repository{
			Name:        repo.Name,
			URL:         "https://example.com/moved",
			Description: nil,
			Stars:       100,
		}
		require.NoError(t, s.UpsertRepository(ctx, updated))

		got, err := s.GetRepository(ctx, repo.Name)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("get of an untracked repository returns ErrNotFound", func(t *testing.T) {
		_, err := s.GetRepository(ctx, "ghost/repo")
		var notFound *custom_errors.ErrNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("delete of an untracked repository is a no-op", func(t *testing.T) {
		assert.NoError(t, s.DeleteRepository(ctx, "ghost/repo"))
	})

	t.Run("delete removes the repository and its dependent rows", func(t *testing.T) {
		require.NoError(t, s.UpsertRepository(ctx, repo))
		require.NoError(t, s.ReplaceIssueStats(ctx, repo.Name, []model.IssueLabelStats{
			{Label: "bug", OpenCount: 1, ClosedCount: 2},
		}))
		_, err := s.UpsertCommits(ctx, repo.Name, []model.Commit{
			{SHA: "cascade1", URL: "u", Author: "a", Date: time.Now().UTC(), Message: "m"},
		})
		require.NoError(t, err)

		require.NoError(t, s.DeleteRepository(ctx, repo.Name))

		_, err = s.GetRepository(ctx, repo.Name)
		var notFound *custom_errors.ErrNotFound
		assert.ErrorAs(t, err, &notFound)

		issueStats, err := s.GetIssueStats(ctx, repo.Name)
		require.NoError(t, err)
		assert.Empty(t, issueStats)

		commits, err := s.GetCommits(ctx, repo.Name, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, commits)
	})
}

func TestPostgres_IssueStats(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	s := setupTestStore(t)

	repoName := "test-owner/test-repo"
	require.NoError(t, s.UpsertRepository(ctx, model.Repository{Name: repoName, URL: "u"}))

	t.Run("replace on an untracked repository fails and writes nothing", func(t *testing.T) {
		err := s.ReplaceIssueStats(ctx, "ghost/repo", []model.IssueLabelStats{
			{Label: "bug", OpenCount: 1},
		})
		var unknown *custom_errors.ErrUnknownRepository
		require.ErrorAs(t, err, &unknown)

		issueStats, err := s.GetIssueStats(ctx, "ghost/repo")
		require.NoError(t, err)
		assert.Empty(t, issueStats)
	})

	t.Run("second replace leaves exactly the new set", func(t *testing.T) {
		first := []model.IssueLabelStats{
			{Label: "bug", OpenCount: 3, ClosedCount: 7},
			{Label: "stale", OpenCount: 1, ClosedCount: 0},
		}
		second := []model.IssueLabelStats{
			{Label: "feature", OpenCount: 2, ClosedCount: 2},
		}
		require.NoError(t, s.ReplaceIssueStats(ctx, repoName, first))
		require.NoError(t, s.ReplaceIssueStats(ctx, repoName, second))

		issueStats, err := s.GetIssueStats(ctx, repoName)
		require.NoError(t, err)
		assert.Equal(t, second, issueStats)
	})

	t.Run("stats come back ordered by total count descending", func(t *testing.T) {
		set := []model.IssueLabelStats{
			{Label: "low", OpenCount: 1, ClosedCount: 0},
			{Label: "high", OpenCount: 5, ClosedCount: 5},
			{Label: "mid", OpenCount: 2, ClosedCount: 2},
		}
		require.NoError(t, s.ReplaceIssueStats(ctx, repoName, set))

		issueStats, err := s.GetIssueStats(ctx, repoName)
		require.NoError(t, err)
		require.Len(t, issueStats, 3)
		assert.Equal(t, "high", issueStats[0].Label)
		assert.Equal(t, "mid", issueStats[1].Label)
		assert.Equal(t, "low", issueStats[2].Label)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		set := []model.IssueLabelStats{
			{Label: "first", OpenCount: 1, ClosedCount: 1},
			{Label: "second", OpenCount: 2, ClosedCount: 0},
		}
		require.NoError(t, s.ReplaceIssueStats(ctx, repoName, set))

		issueStats, err := s.GetIssueStats(ctx, repoName)
		require.NoError(t, err)
		assert.Equal(t, set, issueStats)
	})
}

func TestPostgres_Commits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	s := setupTestStore(t)

	repoName := "test-owner/test-repo"
	require.NoError(t, s.UpsertRepository(ctx, model.Repository{Name: repoName, URL: "u"}))

	commits := []model.Commit{
		{SHA: "abc123", URL: "url1", Author: "Alice", Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Message: "Fix null pointer"},
		{SHA: "def456", URL: "url2", Author: "Bob", Date: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Message: "Add feature"},
		{SHA: "ghi789", URL: "url3", Author: "Carol", Date: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), Message: "fix typo in docs"},
	}

	t.Run("upsert on an untracked repository fails", func(t *testing.T) {
		_, err := s.UpsertCommits(ctx, "ghost/repo", commits)
		var unknown *custom_errors.ErrUnknownRepository
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("upsert stores all commits", func(t *testing.T) {
		n, err := s.UpsertCommits(ctx, repoName, commits)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		got, err := s.GetCommits(ctx, repoName, nil, nil)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// Newest first.
		assert.Equal(t, "ghi789", got[0].SHA)
		assert.Equal(t, "abc123", got[2].SHA)
	})

	t.Run("re-upserting a sha overwrites the row instead of duplicating it", func(t *testing.T) {
		changed := commits[0]
		changed.Message = "Fix null pointer dereference in parser"
		_, err := s.UpsertCommits(ctx, repoName, []model.Commit{changed})
		require.NoError(t, err)

		got, err := s.GetCommits(ctx, repoName, nil, nil)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, changed.Message, got[2].Message)
	})

	t.Run("date range filter is inclusive on both ends", func(t *testing.T) {
		got, err := s.GetCommits(ctx, repoName,
			timePtr(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
			timePtr(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "def456", got[0].SHA)
		assert.Equal(t, "abc123", got[1].SHA)
	})

	t.Run("get for an untracked repository returns an empty list, not an error", func(t *testing.T) {
		got, err := s.GetCommits(ctx, "ghost/repo", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("search matches case-insensitively and excludes non-matches", func(t *testing.T) {
		got, err := s.SearchCommits(ctx, repoName, "fix")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ghi789", got[0].SHA)
		assert.Equal(t, "abc123", got[1].SHA)

		none, err := s.SearchCommits(ctx, repoName, "refactor")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("search on an untracked repository returns an empty list", func(t *testing.T) {
		got, err := s.SearchCommits(ctx, "ghost/repo", "fix")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
