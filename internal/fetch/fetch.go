// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch proxies single PDF downloads from external hosts, bounding
// time, size, and redirect chains per request. Nothing is persisted; the
// bytes go straight back to the caller.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Typed fetch failures. Batch callers record these per item; single-download
// callers map them to HTTP statuses.
var (
	// ErrInvalidURL marks a download URL that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid download URL")

	// ErrTooManyRedirects marks a redirect chain past the configured cap.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrPayloadTooLarge marks a response past the configured size cap.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUpstreamTimeout marks an upstream that did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timed out")

	// ErrNotPDF marks a response whose body does not start with the PDF
	// magic bytes. Hosts routinely serve HTML error pages with 200.
	ErrNotPDF = errors.New("URL does not serve a PDF")
)

// UpstreamError reports a non-2xx upstream response with its status code.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.Status)
}

var pdfMagic = []byte("%PDF")

// Result is one successfully proxied download.
type Result struct {
	// Data is the raw PDF bytes.
	Data []byte

	// Filename is the sanitized attachment name, extension included.
	Filename string
}

// Fetcher downloads PDFs from arbitrary external URLs on behalf of clients.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
}

// New returns a Fetcher enforcing the limits in cfg. Zero values fall back
// to the package defaults.
func New(cfg types.FetchConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= cfg.MaxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
	}
}

// Fetch downloads rawURL and returns its bytes plus a filename derived from
// suggestedTitle. The upstream's declared content type is ignored; many PDF
// hosts mislabel it. The returned bytes always begin with %PDF.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, suggestedTitle string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyRedirects):
			return Result{}, ErrTooManyRedirects
		case httputil.IsTimeout(err):
			return Result{}, ErrUpstreamTimeout
		default:
			return Result{}, fmt.Errorf("requesting %s: %w", rawURL, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &UpstreamError{Status: resp.StatusCode}
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return Result{}, ErrPayloadTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		if httputil.IsTimeout(err) {
			return Result{}, ErrUpstreamTimeout
		}
		return Result{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return Result{}, ErrPayloadTooLarge
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return Result{}, ErrNotPDF
	}

	name := SanitizeFilename(suggestedTitle)
	if name == "" {
		name = "paper"
	}
	return Result{Data: data, Filename: name + ".pdf"}, nil
}
