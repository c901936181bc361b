// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// arXiv endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	arxivAPIBase = "https://export.arxiv.org/api/query"
	arxivPDFBase = "https://arxiv.org/pdf/"
	arxivAbsBase = "https://arxiv.org/abs/"
)

// ArxivBackend queries the arXiv Atom API. Every arXiv paper has a direct
// PDF, so records from this backend always carry a download URL.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries the arXiv API and returns results in relevance order.
func (b *ArxivBackend) Search(ctx context.Context, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	q := "all:" + strings.Join(strings.Fields(topic), "+")
	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", ErrSourceBlocked, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: parsing arXiv response: %v", ErrSourceUnavailable, err)
	}

	var papers []types.PaperRecord
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		var names []string
		for _, a := range entry.Authors {
			names = append(names, strings.TrimSpace(a.Name))
		}

		p := types.PaperRecord{
			Title:       strings.Join(strings.Fields(entry.Title), " "),
			Authors:     strings.Join(names, ", "),
			Year:        "N/A",
			Abstract:    abstractPtr(entry.Summary),
			SourceURL:   arxivAbsBase + arxivID,
			DownloadURL: arxivPDFBase + arxivID,
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Year = strconv.Itoa(t.Year())
		}
		p.Normalize()
		papers = append(papers, p)
	}
	return papers, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
