// internal/query/query.go
package query

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github-repo-mirror/internal/model"
	"github-repo-mirror/internal/store"
)

// Engine provides the read-only operations over the local mirror. It never
// talks to the remote API.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

// NewEngine creates a new query Engine instance.
func NewEngine(store store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// RepositorySummary returns the repository metadata together with its
// issue-label statistics, or ErrNotFound if the repository is not tracked.
func (e *Engine) RepositorySummary(ctx context.Context, name string) (model.RepositorySummary, error) {
	repo, err := e.store.GetRepository(ctx, name)
	if err != nil {
		return model.RepositorySummary{}, err
	}
	issueStats, err := e.store.GetIssueStats(ctx, name)
	if err != nil {
		return model.RepositorySummary{}, err
	}
	return model.RepositorySummary{
		Repository: repo,
		IssueStats: issueStats,
	}, nil
}

// CommitFrequency buckets the repository's commits in [start, end] by UTC
// calendar day and returns the series in ascending date order. Days without
// commits are omitted.
func (e *Engine) CommitFrequency(ctx context.Context, name string, start, end *time.Time) ([]model.FrequencyPoint, error) {
	commits, err := e.store.GetCommits(ctx, name, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[time.Time]int)
	for _, commit := range commits {
		counts[truncateToDay(commit.Date)]++
	}

	points := make([]model.FrequencyPoint, 0, len(counts))
	for day, count := range counts {
		points = append(points, model.FrequencyPoint{Day: day, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Day.Before(points[j].Day)
	})

	e.logger.Debug("Computed commit frequency", "repo", name, "commits", len(commits), "days", len(points))
	return points, nil
}

// SearchCommitMessages returns commits whose message contains the query as a
// literal, case-insensitive substring, newest first.
func (e *Engine) SearchCommitMessages(ctx context.Context, name, query string) ([]model.Commit, error) {
	return e.store.SearchCommits(ctx, name, query)
}

// Summarize computes descriptive statistics over a frequency series. An
// empty series yields a zero summary.
func Summarize(points []model.FrequencyPoint) model.FrequencySummary {
	if len(points) == 0 {
		return model.FrequencySummary{}
	}

	counts := make([]float64, len(points))
	summary := model.FrequencySummary{Days: len(points)}
	for i, p := range points {
		counts[i] = float64(p.Count)
		summary.Total += p.Count
		if p.Count > summary.Max {
			summary.Max = p.Count
		}
	}

	// stats errors only on empty input, which is excluded above.
	summary.Mean, _ = stats.Mean(counts)
	summary.Median, _ = stats.Median(counts)
	return summary
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
