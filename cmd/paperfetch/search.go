// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/source"
)

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Search an academic index for candidate papers",
	Long: `Search queries the configured metadata source for a topic and prints the
candidate papers with their PDF availability. Result order is the source's
own relevance ranking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("backend", "", "metadata source: scholar, arxiv, openalex, semantic_scholar")
	searchCmd.Flags().Int("max-results", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Search.Backend = backend
	}
	limit, _ := cmd.Flags().GetInt("max-results")
	asJSON, _ := cmd.Flags().GetBool("json")

	topic := strings.Join(args, " ")

	b, err := source.New(cfg.Search, httputil.NewClient(cfg.Search.Timeout))
	if err != nil {
		return err
	}

	papers, err := source.Search(cmd.Context(), b, topic, limit, cfg.Search)
	if err != nil {
		return fmt.Errorf("searching %s: %w", b.Name(), err)
	}

	if asJSON {
		return source.FormatJSON(papers, os.Stdout)
	}
	source.FormatTable(papers, os.Stdout)
	return nil
}
