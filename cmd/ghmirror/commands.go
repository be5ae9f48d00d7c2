// cmd/ghmirror/commands.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github-repo-mirror/internal/model"
	"github-repo-mirror/internal/query"
)

const dateLayout = "2006-01-02"

var addCmd = &cobra.Command{
	Use:   "add <owner/repo>",
	Short: "Fetch a repository's metadata and issue stats and store them locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := a.syncer.AddRepository(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Repository %s saved (%d stars)\n", repo.Name, repo.Stars)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <owner/repo>",
	Short: "Delete a repository and its mirrored data from the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.syncer.RemoveRepository(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Repository %s removed\n", args[0])
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <owner/repo>",
	Short: "Show locally stored metadata and issue-label stats for a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.queries.RepositorySummary(ctx, args[0])
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

var fetchCommitsCmd = &cobra.Command{
	Use:   "fetch-commits <owner/repo>",
	Short: "Fetch all commits for an already added repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.syncer.RefreshCommits(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Stored %d commits for %s\n", n, args[0])
		return nil
	},
}

var searchCommitsCmd = &cobra.Command{
	Use:   "search-commits <owner/repo> <query>",
	Short: "Search stored commit messages for a literal substring",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		repoName := args[0]
		q := joinWords(args[1:])

		commits, err := a.queries.SearchCommitMessages(ctx, repoName, q)
		if err != nil {
			return err
		}
		if len(commits) == 0 {
			fmt.Printf("No commits matching %q in %s\n", q, repoName)
			return nil
		}

		fmt.Printf("Found %d commits matching %q:\n\n", len(commits), q)
		for _, c := range commits {
			printCommit(c)
		}
		return nil
	},
}

var commitStatsCmd = &cobra.Command{
	Use:   "commit-stats <owner/repo>",
	Short: "Show per-day commit counts for a stored repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := parseDateFlag(cmd, "start-date")
		if err != nil {
			return err
		}
		end, err := parseDateFlag(cmd, "end-date")
		if err != nil {
			return err
		}
		if end != nil {
			// Make the end date cover the whole day.
			e := end.Add(24*time.Hour - time.Nanosecond)
			end = &e
		}

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		points, err := a.queries.CommitFrequency(ctx, args[0], start, end)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Printf("No commits for %s in the given period\n", args[0])
			return nil
		}

		for _, p := range points {
			fmt.Printf("%s  %d\n", p.Day.Format(dateLayout), p.Count)
		}
		s := query.Summarize(points)
		fmt.Printf("\n%d commits over %d active days (mean %.1f, median %.1f, max %d per day)\n",
			s.Total, s.Days, s.Mean, s.Median, s.Max)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(fetchCommitsCmd)
	rootCmd.AddCommand(searchCommitsCmd)
	rootCmd.AddCommand(commitStatsCmd)

	commitStatsCmd.Flags().String("start-date", "", "Start date (YYYY-MM-DD)")
	commitStatsCmd.Flags().String("end-date", "", "End date (YYYY-MM-DD), inclusive")
}

func parseDateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func joinWords(words []string) string {
	q := words[0]
	for _, w := range words[1:] {
		q += " " + w
	}
	return q
}

func printSummary(summary model.RepositorySummary) {
	repo := summary.Repository
	desc := ""
	if repo.Description != nil {
		desc = *repo.Description
	}
	fmt.Printf("Name:        %s\n", repo.Name)
	fmt.Printf("URL:         %s\n", repo.URL)
	fmt.Printf("Description: %s\n", desc)
	fmt.Printf("Stars:       %d\n", repo.Stars)

	if len(summary.IssueStats) == 0 {
		fmt.Println("\nNo issue data for this repository")
		return
	}
	fmt.Println("\nIssue stats by label:")
	fmt.Printf("%-25s %-8s %-8s\n", "Label", "Open", "Closed")
	for _, stat := range summary.IssueStats {
		fmt.Printf("%-25s %-8d %-8d\n", stat.Label, stat.OpenCount, stat.ClosedCount)
	}
}

func printCommit(c model.Commit) {
	fmt.Printf("SHA:     %s\n", c.SHA)
	fmt.Printf("Author:  %s\n", c.Author)
	fmt.Printf("Date:    %s\n", c.Date.Format("2006-01-02 15:04:05"))
	fmt.Printf("URL:     %s\n", c.URL)
	fmt.Printf("Message: %s\n", c.Message)
	fmt.Println("--------------------------------------------------")
}
