// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,year,url,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar graph API. The
// openAccessPdf field provides direct PDF links where they exist.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns results in relevance
// order.
func (b *SemanticScholarBackend) Search(ctx context.Context, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	params := url.Values{
		"query":  {topic},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

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

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parsing Semantic Scholar response: %v", ErrSourceUnavailable, err)
	}

	var papers []types.PaperRecord
	for _, paper := range sr.Data {
		var names []string
		for _, a := range paper.Authors {
			names = append(names, a.Name)
		}

		p := types.PaperRecord{
			Title:     paper.Title,
			Authors:   strings.Join(names, ", "),
			Year:      "N/A",
			Abstract:  abstractPtr(paper.Abstract),
			SourceURL: paper.URL,
		}
		if paper.Year > 0 {
			p.Year = strconv.Itoa(paper.Year)
		}
		if paper.OpenAccessPDF != nil {
			p.DownloadURL = paper.OpenAccessPDF.URL
		}
		p.Normalize()
		papers = append(papers, p)
	}
	return papers, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract"`
	Year          int              `json:"year"`
	URL           string           `json:"url"`
	Authors       []semanticAuthor `json:"authors"`
	OpenAccessPDF *semanticOAPDF   `json:"openAccessPdf"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticOAPDF struct {
	URL string `json:"url"`
}
