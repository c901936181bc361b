// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the metadata search component.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the metadata source: scholar, arxiv, openalex,
	// or semantic_scholar (default scholar).
	Backend string `json:"backend" yaml:"backend"`

	// MaxResults caps the number of results per search (default 20).
	// Requests above the cap are clamped, not rejected.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageDelay is the minimum interval between consecutive result-page
	// requests against the scholar source (default 2s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// FetchConfig holds settings for proxied PDF downloads.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxBytes caps the size of a single downloaded PDF (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// MaxRedirects caps the redirect chain per download (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`
}

// ArchiveConfig holds settings for batch archive builds.
type ArchiveConfig struct {
	// Concurrency is the number of simultaneous outbound fetches
	// during an archive build (default 6, capped at 8).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// BuildTimeout bounds the wall-clock time of one archive build
	// (default 60s). Entries still pending when it fires are recorded
	// as failed.
	BuildTimeout time.Duration `json:"build_timeout" yaml:"build_timeout"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr"`

	// ShutdownGrace is how long in-flight requests get on shutdown.
	ShutdownGrace time.Duration `json:"shutdown_grace" yaml:"shutdown_grace"`
}

// Config groups all component configurations.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// Defaults returns the configuration used when no file or flags override it.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":5000",
			ShutdownGrace: 10 * time.Second,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: defaultBrowserAgent,
			},
			Backend:    "scholar",
			MaxResults: 20,
			PageDelay:  2 * time.Second,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: defaultBrowserAgent,
			},
			MaxBytes:     50 << 20,
			MaxRedirects: 5,
		},
		Archive: ArchiveConfig{
			Concurrency:  6,
			BuildTimeout: 60 * time.Second,
		},
	}
}

// defaultBrowserAgent mirrors a desktop browser; several PDF hosts refuse
// obvious bot agents outright.
const defaultBrowserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
