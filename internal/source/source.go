// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries external academic indexes for candidate papers.
// Each backend normalizes its results into types.PaperRecord and reports
// failures as one of two typed conditions so callers can surface a clear
// message instead of retrying.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

var (
	// ErrEmptyTopic marks a search with no topic after trimming.
	ErrEmptyTopic = errors.New("topic is required")

	// ErrSourceUnavailable marks a transport or parsing failure talking
	// to the metadata source.
	ErrSourceUnavailable = errors.New("metadata source unavailable")

	// ErrSourceBlocked marks an explicit block signal (CAPTCHA page,
	// HTTP 403/429) from the metadata source.
	ErrSourceBlocked = errors.New("metadata source blocked the request")
)

// Limit bounds for one search. Requests outside the range are clamped,
// never rejected.
const (
	MinResults = 1
	MaxResults = 20
)

// Backend queries a single academic index. Result order is the source's
// own relevance ranking and must be preserved by implementations.
type Backend interface {
	Name() string
	Search(ctx context.Context, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error)
}

// New returns the backend selected by cfg.Backend. An empty name selects
// the scholar scraper.
func New(cfg types.SearchConfig, client *http.Client) (Backend, error) {
	switch cfg.Backend {
	case "", "scholar":
		return NewScholarBackend(client, cfg.PageDelay), nil
	case "arxiv":
		return &ArxivBackend{Client: client}, nil
	case "openalex":
		return &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail}, nil
	case "semantic_scholar":
		return &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// Search validates the topic, clamps the limit, and queries the backend.
// Validation happens before any network call. Zero results is success.
func Search(ctx context.Context, b Backend, topic string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	limit = ClampLimit(limit, cfg.MaxResults)

	records, err := b.Search(ctx, topic, limit, cfg)
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].Normalize()
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ClampLimit bounds n to [MinResults, MaxResults], further capped by the
// configured maximum when that is lower.
func ClampLimit(n, cfgMax int) int {
	max := MaxResults
	if cfgMax > 0 && cfgMax < max {
		max = cfgMax
	}
	if n < MinResults {
		return MinResults
	}
	if n > max {
		return max
	}
	return n
}

// abstractPtr returns a pointer to the trimmed abstract, or nil when the
// source provided none. The distinction lets clients render a placeholder.
func abstractPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
