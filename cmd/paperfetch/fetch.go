// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a single PDF to disk",
	Long: `Fetch downloads one PDF from a direct URL, applying the same timeout, size,
and redirect limits as the HTTP service, and writes it to the output
directory under a sanitized filename.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("title", "", "title used to derive the filename (default: URL basename)")
	fetchCmd.Flags().String("out", ".", "output directory")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	title, _ := cmd.Flags().GetString("title")
	outDir, _ := cmd.Flags().GetString("out")

	rawURL := args[0]
	if title == "" {
		base := filepath.Base(rawURL)
		title = base[:len(base)-len(filepath.Ext(base))]
	}

	res, err := fetch.New(cfg.Fetch).Fetch(cmd.Context(), rawURL, title)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	if err := writeFileAtomic(outDir, res.Filename, res.Data); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "saved: %s (%d bytes)\n", filepath.Join(outDir, res.Filename), len(res.Data))
	return nil
}

// writeFileAtomic writes to a temporary file and renames on success, so a
// failed download never leaves a partial PDF behind.
func writeFileAtomic(dir, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".paperfetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
