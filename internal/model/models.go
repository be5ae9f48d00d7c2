// internal/model/models.go
package model

import "time"

// Repository represents the locally mirrored metadata of a GitHub repository.
// Name is the full "owner/repo" identifier and is unique in the store.
type Repository struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
	Stars       int     `json:"stars"`
}

// IssueLabelStats holds per-label open/closed issue counts for a repository,
// as of the last refresh. Keyed by (repository, label) in the store.
type IssueLabelStats struct {
	Label       string `json:"label"`
	OpenCount   int    `json:"open_count"`
	ClosedCount int    `json:"closed_count"`
}

// Commit is a single mirrored commit. SHA is the primary key; Date is always
// normalized to UTC before it reaches the store.
type Commit struct {
	SHA     string    `json:"sha"`
	URL     string    `json:"url"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// RepositorySummary bundles a repository with its issue-label statistics for
// the info lookup path.
type RepositorySummary struct {
	Repository Repository        `json:"repository"`
	IssueStats []IssueLabelStats `json:"issue_stats"`
}

// FrequencyPoint is one bucket of the commit-frequency series: a calendar day
// (midnight UTC) and the number of commits authored on it.
type FrequencyPoint struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// FrequencySummary describes a frequency series as a whole. Mean, Median and
// Max are taken over the per-day counts of days that had at least one commit.
type FrequencySummary struct {
	Days   int     `json:"days"`
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    int     `json:"max"`
}
