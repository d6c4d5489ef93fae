package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for usercrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usercrawl",
		Short: "Crawl user activity pages and submit the results",
		Long: `usercrawl follows the paginated activity listing of a user, extracts a
(title, link, community) triplet for every post and comment, and submits
the results to a collection server ("mothership").

Each seed URL gets its own worker with its own queue and results; several
seeds can be crawled concurrently with --batch.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
