// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func pdfBody(n int) []byte {
	body := append([]byte("%PDF-1.4\n"), make([]byte, n)...)
	return body
}

func testConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "paperfetch-test"},
		MaxBytes:     1 << 20,
		MaxRedirects: 5,
	}
}

func TestFetch_Success(t *testing.T) {
	body := pdfBody(1024)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Deliberately wrong content type: the fetcher must not care.
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	defer ts.Close()

	f := New(testConfig())
	res, err := f.Fetch(context.Background(), ts.URL, "My Paper: A Study")
	require.NoError(t, err)
	assert.Equal(t, "My_Paper_A_Study.pdf", res.Filename)
	// Byte length must round-trip exactly.
	assert.Len(t, res.Data, len(body))
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New(testConfig())
	for _, raw := range []string{"", "ftp://example.com/a.pdf", "not a url", "file:///etc/passwd"} {
		_, err := f.Fetch(context.Background(), raw, "t")
		assert.ErrorIs(t, err, ErrInvalidURL, "url %q", raw)
	}
}

func TestFetch_UpstreamRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.Status)
}

func TestFetch_NotPDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "<html>paywall</html>")
	}))
	defer ts.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestFetch_PayloadTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdfBody(2 << 20))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxBytes = 64 << 10
	f := New(cfg)
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestFetch_PayloadTooLargeByContentLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10485760")
		w.Write(pdfBody(8))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxBytes = 64 << 10
	f := New(cfg)
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+"/again", http.StatusFound)
	}))
	defer ts.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetch_UpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond
	f := New(cfg)

	start := time.Now()
	_, err := f.Fetch(context.Background(), ts.URL, "t")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	// The fetch must abort, not hang until the handler returns.
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	f := New(testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, ts.URL, "t")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestFetch_EmptyTitleFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdfBody(8))
	}))
	defer ts.Close()

	f := New(testConfig())
	res, err := f.Fetch(context.Background(), ts.URL, "   ")
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", res.Filename)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), url, "t")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidURL))
}
