// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// FormatTable writes records as a human-readable table to w.
func FormatTable(papers []types.PaperRecord, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-30s  %-4s  %s\n",
		"Rank", "Title", "Authors", "Year", "PDF")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for i, p := range papers {
		pdf := "-"
		if p.HasPDF {
			pdf = "yes"
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-30s  %-4s  %s\n",
			i+1, truncate(p.Title, 60), truncate(p.Authors, 30), p.Year, pdf)
	}

	fmt.Fprintf(w, "\n%d results\n", len(papers))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(papers []types.PaperRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
