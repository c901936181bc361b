// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API. Only works with a direct
// open-access PDF location get a download URL; landing pages do not count
// as available.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns results in relevance order.
func (b *OpenAlexBackend) Search(ctx context.Context, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	params := url.Values{
		"search":   {topic},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
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

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("%w: parsing OpenAlex response: %v", ErrSourceUnavailable, err)
	}

	var papers []types.PaperRecord
	for _, work := range oar.Results {
		var names []string
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				names = append(names, authorship.Author.DisplayName)
			}
		}

		p := types.PaperRecord{
			Title:    work.Title,
			Authors:  strings.Join(names, ", "),
			Year:     "N/A",
			Abstract: abstractPtr(reconstructAbstract(work.AbstractInvertedIndex)),
		}
		if work.PublicationYear > 0 {
			p.Year = strconv.Itoa(work.PublicationYear)
		}
		if work.DOI != "" {
			p.SourceURL = work.DOI
		} else {
			p.SourceURL = work.ID
		}
		if work.BestOALocation != nil {
			p.DownloadURL = work.BestOALocation.PDFURL
		}
		p.Normalize()
		papers = append(papers, p)
	}
	return papers, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	BestOALocation        *openAlexLocation    `json:"best_oa_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}
