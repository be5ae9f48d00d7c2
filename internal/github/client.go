// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-repo-mirror/internal/errors"
	"github-repo-mirror/internal/model"
)

// Client is a wrapper around the go-github client. It translates API
// responses into domain records at the boundary and keeps no local state.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token
// yields an unauthenticated client, subject to stricter rate limits.
func NewClient(token string, logger *slog.Logger) *Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(httpClient),
		logger: logger,
	}
}

// WithBaseURL points the client at a different API endpoint, e.g. a GitHub
// Enterprise instance or a test server.
func (c *Client) WithBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// GetRepository fetches repository metadata and translates it to our
// internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (model.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return model.Repository{}, remoteError(owner+"/"+name, err)
	}
	return model.Repository{
		Name:        repo.GetFullName(),
		URL:         repo.GetHTMLURL(),
		Description: repo.Description,
		Stars:       repo.GetStargazersCount(),
	}, nil
}

// GetIssueLabelStats lists every issue of the repository (open and closed)
// and aggregates open/closed counts per label. An issue with several labels
// contributes to each of them; an unlabeled issue contributes to none.
// Labels are returned in first-observed order.
func (c *Client) GetIssueLabelStats(ctx context.Context, owner, name string) ([]model.IssueLabelStats, error) {
	opts := &github.IssueListByRepoOptions{
		State: "all",
		ListOptions: github.ListOptions{
			PerPage: 100, // Max per page
		},
	}

	byLabel := make(map[string]*model.IssueLabelStats)
	var order []string

	for {
		c.logger.Debug("Fetching issues page", "owner", owner, "repo", name, "page", opts.Page)

		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError(owner+"/"+name, err)
		}

		for _, issue := range issues {
			for _, label := range issue.Labels {
				stat, ok := byLabel[label.GetName()]
				if !ok {
					stat = &model.IssueLabelStats{Label: label.GetName()}
					byLabel[label.GetName()] = stat
					order = append(order, label.GetName())
				}
				if issue.GetState() == "open" {
					stat.OpenCount++
				} else {
					stat.ClosedCount++
				}
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	stats := make([]model.IssueLabelStats, 0, len(order))
	for _, label := range order {
		stats = append(stats, *byLabel[label])
	}
	return stats, nil
}

// GetCommits fetches all commits visible via the default commit listing.
// It handles API pagination transparently.
func (c *Client) GetCommits(ctx context.Context, owner, name string) ([]model.Commit, error) {
	var allCommits []model.Commit

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	for {
		c.logger.Debug("Fetching commits page", "owner", owner, "repo", name, "page", opts.Page)

		commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteError(owner+"/"+name, err)
		}

		for _, commit := range commits {
			allCommits = append(allCommits, toInternalCommit(commit))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allCommits, nil
}

// toInternalCommit translates a github.RepositoryCommit to our internal
// model.Commit. The author's display name falls back to the email when
// absent, and the timestamp is normalized to UTC.
func toInternalCommit(c *github.RepositoryCommit) model.Commit {
	author := c.GetCommit().GetAuthor().GetName()
	if author == "" {
		author = c.GetCommit().GetAuthor().GetEmail()
	}
	return model.Commit{
		SHA:     c.GetSHA(),
		URL:     c.GetHTMLURL(),
		Author:  author,
		Date:    c.GetCommit().GetAuthor().GetDate().Time.UTC(),
		Message: c.GetCommit().GetMessage(),
	}
}

// remoteError maps a go-github error to the application taxonomy: a 404 on
// the repository means it does not exist upstream, everything else is a
// retryable transport or server failure.
func remoteError(repo string, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return &custom_errors.ErrRemoteNotFound{Repo: repo}
	}
	return &custom_errors.ErrRemoteUnavailable{Repo: repo, Err: err}
}
