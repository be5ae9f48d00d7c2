//go:build integration

// cmd/ghmirror/integration_test.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-repo-mirror/internal/github"
	"github-repo-mirror/internal/query"
	"github-repo-mirror/internal/store"
	"github-repo-mirror/internal/syncer"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

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

	return pool
}

func TestMirror_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestDatabase(ctx, t)

	// Fake GitHub API covering the repository, issue and commit endpoints.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/test-owner/test-repo":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id": 123, "full_name": "test-owner/test-repo", "html_url": "https://github.com/test-owner/test-repo", "description": "demo", "stargazers_count": 7}`))
		case "/repos/test-owner/test-repo/issues":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[
				{"number": 1, "state": "open", "labels": [{"name": "bug"}]},
				{"number": 2, "state": "closed", "labels": [{"name": "bug"}, {"name": "docs"}]}
			]`))
		case "/repos/test-owner/test-repo/commits":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[
				{"sha": "abc", "html_url": "url1", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "2024-01-01T12:00:00Z"}, "message": "feat: new feature"}},
				{"sha": "def", "html_url": "url2", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "2024-01-02T12:00:00Z"}, "message": "fix: a bug"}}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient := github.NewClient("", logger)
	require.NoError(t, ghClient.WithBaseURL(server.URL))

	st := store.NewPostgres(pool, logger)
	appSyncer := syncer.NewSyncer(st, ghClient, logger)
	queries := query.NewEngine(st, logger)

	// --- ACT ---
	repo, err := appSyncer.AddRepository(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	assert.Equal(t, "test-owner/test-repo", repo.Name)

	n, err := appSyncer.RefreshCommits(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// --- ASSERT ---
	summary, err := queries.RepositorySummary(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Repository.Stars)
	require.Len(t, summary.IssueStats, 2)
	assert.Equal(t, "bug", summary.IssueStats[0].Label, "label with most issues first")
	assert.Equal(t, 1, summary.IssueStats[0].OpenCount)
	assert.Equal(t, 1, summary.IssueStats[0].ClosedCount)

	points, err := queries.CommitFrequency(ctx, "test-owner/test-repo", nil, nil)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Day)
	assert.Equal(t, 1, points[0].Count)

	matches, err := queries.SearchCommitMessages(ctx, "test-owner/test-repo", "FIX")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "def", matches[0].SHA)

	// Refreshing again upserts the same shas without duplicating rows.
	_, err = appSyncer.RefreshCommits(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	commits, err := st.GetCommits(ctx, "test-owner/test-repo", nil, nil)
	require.NoError(t, err)
	assert.Len(t, commits, 2)

	// Removing the repository drops everything.
	require.NoError(t, appSyncer.RemoveRepository(ctx, "test-owner/test-repo"))
	issueStats, err := st.GetIssueStats(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	assert.Empty(t, issueStats)
}
