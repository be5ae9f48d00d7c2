// cmd/ghmirror/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ghmirror",
	Short: "Mirror GitHub repository data into a local store and query it",
	Long: `ghmirror keeps a local copy of GitHub repository metadata, issue-label
statistics and commit history, and answers queries (info lookup, commit
search, commit-frequency stats) from that copy instead of hitting the API
on every invocation.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
