// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	custom_errors "github-repo-mirror/internal/errors"
	"github-repo-mirror/internal/model"
	"github-repo-mirror/internal/store"
)

// Remote is the upstream data source consumed by the syncer. It is satisfied
// by *github.Client and can be replaced with a mock for testing.
type Remote interface {
	GetRepository(ctx context.Context, owner, name string) (model.Repository, error)
	GetIssueLabelStats(ctx context.Context, owner, name string) ([]model.IssueLabelStats, error)
	GetCommits(ctx context.Context, owner, name string) ([]model.Commit, error)
}

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

// FullName returns the canonical "owner/name" form.
func (r RepoIdentifier) FullName() string {
	return r.Owner + "/" + r.Name
}

// Syncer orchestrates the fetching and storing of data. Each method performs
// one logical operation: a remote fetch followed by a local write.
type Syncer struct {
	store  store.Store
	remote Remote
	logger *slog.Logger
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(store store.Store, remote Remote, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  store,
		remote: remote,
		logger: logger,
	}
}

// AddRepository fetches repository metadata and issue-label stats from the
// remote source and persists both. The two fetches run concurrently; nothing
// is written locally unless both succeed, so a failed add leaves no partial
// state. Re-adding a repository replaces its metadata and stats in full.
func (s *Syncer) AddRepository(ctx context.Context, repoName string) (model.Repository, error) {
	id, err := ParseRepoIdentifier(repoName)
	if err != nil {
		return model.Repository{}, err
	}

	logger := s.logger.With("owner", id.Owner, "repo", id.Name)
	logger.Info("Adding repository")

	var repo model.Repository
	var stats []model.IssueLabelStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repo, err = s.remote.GetRepository(gctx, id.Owner, id.Name)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.remote.GetIssueLabelStats(gctx, id.Owner, id.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Repository{}, err
	}

	if err := s.store.UpsertRepository(ctx, repo); err != nil {
		return model.Repository{}, err
	}
	if err := s.store.ReplaceIssueStats(ctx, repo.Name, stats); err != nil {
		return model.Repository{}, err
	}

	logger.Info("Repository added", "stars", repo.Stars, "labels", len(stats))
	return repo, nil
}

// RefreshCommits fetches all commits for an already tracked repository and
// upserts them by sha. The local existence check runs before any remote call
// so an untracked repository fails fast with ErrUnknownRepository.
func (s *Syncer) RefreshCommits(ctx context.Context, repoName string) (int64, error) {
	id, err := ParseRepoIdentifier(repoName)
	if err != nil {
		return 0, err
	}

	logger := s.logger.With("owner", id.Owner, "repo", id.Name)

	if _, err := s.store.GetRepository(ctx, id.FullName()); err != nil {
		var notFound *custom_errors.ErrNotFound
		if errors.As(err, &notFound) {
			return 0, &custom_errors.ErrUnknownRepository{Repo: id.FullName()}
		}
		return 0, err
	}

	logger.Info("Fetching commits")
	commits, err := s.remote.GetCommits(ctx, id.Owner, id.Name)
	if err != nil {
		return 0, err
	}
	if len(commits) == 0 {
		logger.Info("No commits found")
		return 0, nil
	}

	n, err := s.store.UpsertCommits(ctx, id.FullName(), commits)
	if err != nil {
		return 0, err
	}
	logger.Info("Commits stored", "count", n)
	return n, nil
}

// RemoveRepository drops the repository and its dependent rows from the
// local store. Removing an untracked repository is a no-op.
func (s *Syncer) RemoveRepository(ctx context.Context, repoName string) error {
	id, err := ParseRepoIdentifier(repoName)
	if err != nil {
		return err
	}
	s.logger.Info("Removing repository", "owner", id.Owner, "repo", id.Name)
	return s.store.DeleteRepository(ctx, id.FullName())
}

// ParseRepoIdentifier splits an 'owner/name' argument into its parts.
func ParseRepoIdentifier(repo string) (RepoIdentifier, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: repo}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}
