// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// scholarBase is the Google Scholar search endpoint. Declared as a var so
// tests can substitute an httptest server.
var scholarBase = "https://scholar.google.com/scholar"

// scholarOrigin resolves root-relative links found in result pages.
var scholarOrigin = "https://scholar.google.com"

const (
	scholarPageSize = 10
	// scholarMaxBody bounds how much of a result page we read; real
	// pages are well under this.
	scholarMaxBody = 2 << 20
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// titleMarkers strips leading citation markers such as "[PDF]" or "[BOOK]"
// that Scholar embeds inside the title heading.
var titleMarkers = regexp.MustCompile(`^(\[[A-Z]+\]\s*)+`)

// blockMarkers appear in Scholar's interstitial pages when it decides the
// caller is a bot.
var blockMarkers = []string{"gs_captcha", "unusual traffic", "not a robot"}

// ScholarBackend scrapes Google Scholar result pages. Scholar has no API;
// results come from parsing the gs_r result blocks. A rate limiter spaces
// out page requests so multi-page searches stay polite.
type ScholarBackend struct {
	Client  *http.Client
	limiter *rate.Limiter
}

// NewScholarBackend returns a scraper that waits at least pageDelay between
// consecutive result-page requests.
func NewScholarBackend(client *http.Client, pageDelay time.Duration) *ScholarBackend {
	if pageDelay <= 0 {
		pageDelay = 2 * time.Second
	}
	return &ScholarBackend{
		Client:  client,
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
	}
}

// Name returns the backend identifier.
func (b *ScholarBackend) Name() string { return "scholar" }

// Search scrapes result pages until limit records are collected or results
// run out. Source order is preserved.
func (b *ScholarBackend) Search(ctx context.Context, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	var papers []types.PaperRecord
	pages := (limit + scholarPageSize - 1) / scholarPageSize

	for page := 0; page < pages; page++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}

		batch, err := b.searchPage(ctx, topic, page*scholarPageSize, cfg)
		if err != nil {
			// A failed later page does not discard earlier results.
			if len(papers) > 0 {
				break
			}
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		papers = append(papers, batch...)
		if len(papers) >= limit {
			break
		}
	}

	if len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// searchPage fetches and parses one result page starting at offset.
func (b *ScholarBackend) searchPage(ctx context.Context, topic string, offset int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	params := url.Values{
		"q":      {topic},
		"start":  {fmt.Sprintf("%d", offset)},
		"hl":     {"en"},
		"as_sdt": {"0,5"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scholarBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

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

	body, err := io.ReadAll(io.LimitReader(resp.Body, scholarMaxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	lower := strings.ToLower(string(body))
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return nil, fmt.Errorf("%w: CAPTCHA page", ErrSourceBlocked)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var papers []types.PaperRecord
	doc.Find("div.gs_r").Each(func(_ int, item *goquery.Selection) {
		if item.Find("h3.gs_rt").Length() == 0 {
			return // navigation or ad block, not a result
		}
		papers = append(papers, parseScholarResult(item))
	})
	return papers, nil
}

// parseScholarResult extracts one PaperRecord from a gs_r result block.
func parseScholarResult(item *goquery.Selection) types.PaperRecord {
	p := types.PaperRecord{Title: "Untitled", Authors: "Unknown", Year: "N/A"}

	titleTag := item.Find("h3.gs_rt")
	if t := strings.TrimSpace(titleTag.Text()); t != "" {
		p.Title = titleMarkers.ReplaceAllString(t, "")
	}
	if href, ok := titleTag.Find("a").First().Attr("href"); ok {
		p.SourceURL = resolveScholarLink(href)
	}

	if info := strings.TrimSpace(item.Find("div.gs_a").Text()); info != "" {
		p.Authors = info
		if m := yearPattern.FindString(info); m != "" {
			p.Year = m
		}
	}

	p.Abstract = abstractPtr(item.Find("div.gs_rs").Text())

	// The direct-PDF link lives in the gs_ggs sidebar; fall back to any
	// anchor labeled [PDF]. Only direct-looking links count as available.
	pdfHref, ok := item.Find("div.gs_ggs a").First().Attr("href")
	if !ok {
		item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.Contains(a.Text(), "[PDF]") {
				pdfHref, ok = a.Attr("href")
				return false
			}
			return true
		})
	}
	switch {
	case ok:
		p.DownloadURL = resolveScholarLink(pdfHref)
	case strings.Contains(strings.ToLower(p.SourceURL), ".pdf"):
		p.DownloadURL = p.SourceURL
	}

	p.Normalize()
	return p
}

// resolveScholarLink expands protocol-relative and root-relative hrefs.
func resolveScholarLink(href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return scholarOrigin + href
	default:
		return href
	}
}
