// internal/store/store.go
package store

import (
	"context"
	"time"

	"github-repo-mirror/internal/model"
)

// Store is the persistence boundary of the application. It is implemented by
// *Postgres and can be replaced with a mock for testing.
type Store interface {
	// UpsertRepository inserts a repository or fully replaces the existing
	// row with the same name.
	UpsertRepository(ctx context.Context, repo model.Repository) error

	// GetRepository returns the repository by its full name, or ErrNotFound.
	GetRepository(ctx context.Context, name string) (model.Repository, error)

	// DeleteRepository removes the repository together with its issue stats
	// and commits. Deleting a repository that is not tracked is a no-op.
	DeleteRepository(ctx context.Context, name string) error

	// ReplaceIssueStats atomically swaps all stored issue-label stats of the
	// repository for the given set. Returns ErrUnknownRepository if the
	// repository has not been added.
	ReplaceIssueStats(ctx context.Context, name string, stats []model.IssueLabelStats) error

	// GetIssueStats returns the stats ordered by total issue count
	// descending. An untracked repository yields an empty slice, not an
	// error.
	GetIssueStats(ctx context.Context, name string) ([]model.IssueLabelStats, error)

	// UpsertCommits inserts the commits, overwriting any existing rows with
	// the same sha, and reports how many rows were written. Returns
	// ErrUnknownRepository if the repository has not been added.
	UpsertCommits(ctx context.Context, name string, commits []model.Commit) (int64, error)

	// GetCommits returns commits ordered by date descending. A nil start or
	// end leaves that side of the range open; both bounds are inclusive. An
	// untracked repository yields an empty slice.
	GetCommits(ctx context.Context, name string, start, end *time.Time) ([]model.Commit, error)

	// SearchCommits returns commits whose message contains the substring,
	// case-insensitively, ordered by date descending.
	SearchCommits(ctx context.Context, name, substring string) ([]model.Commit, error)
}

// Compile-time check that *Postgres satisfies the Store interface.
var _ Store = (*Postgres)(nil)
