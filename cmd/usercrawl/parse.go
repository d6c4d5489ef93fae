package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/usercrawl/internal/crawler"
	"github.com/nao1215/usercrawl/internal/model"
	"github.com/spf13/cobra"
)

// parseResult is the JSON output of the parse command.
type parseResult struct {
	Results []model.Triplet `json:"results"`
	Next    string          `json:"next"`
}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract triplets from a saved page without crawling",
		Long: `Parse reads a saved listing page and prints the triplets it contains and
the next page link, exactly as the crawler would see them.

Line terminators are stripped before parsing. Relative links are resolved
against --base. "-" reads the page from standard input.

Examples:
  # Inspect a page saved from the browser
  usercrawl parse user_page.html

  # Print the result as JSON
  curl -s https://old.reddit.com/user/someone | usercrawl parse --json -`,
		Args: cobra.ExactArgs(1),
		RunE: runParseCmd,
	}

	cmd.Flags().String("base", crawler.DefaultBaseURL,
		"Base URL used to resolve relative links")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON instead of text")

	return cmd
}

// runParseCmd executes the parse command.
func runParseCmd(cmd *cobra.Command, args []string) error {
	base, err := cmd.Flags().GetString("base")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	text, err := readPage(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	parser, err := crawler.NewParser(base)
	if err != nil {
		return err
	}
	results, next, err := parser.ParseText(crawler.PrepareText(text))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(parseResult{Results: results, Next: next})
	}

	fmt.Fprintf(out, "%d result(s)\n", len(results))
	for i, t := range results {
		fmt.Fprintf(out, "%3d. %s\n", i+1, t.Label())
		fmt.Fprintf(out, "     link:      %s\n", t.Value())
		fmt.Fprintf(out, "     community: %s\n", t.Metadata())
	}
	if next == "" {
		fmt.Fprintln(out, "next: (none)")
	} else {
		fmt.Fprintf(out, "next: %s\n", next)
	}
	return nil
}

// readPage reads path, or stdin when path is "-".
func readPage(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
