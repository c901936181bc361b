// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/internal/fetch"
	"github.com/pdiddy/paperfetch/pkg/types"
)

func testFetcher() *fetch.Fetcher {
	return fetch.New(types.FetchConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "paperfetch-test"},
		MaxBytes:     1 << 20,
		MaxRedirects: 5,
	})
}

func testBuilder(concurrency int) *Builder {
	return New(testFetcher(), types.ArchiveConfig{
		Concurrency:  concurrency,
		BuildTimeout: 5 * time.Second,
	})
}

// pdfServer serves a valid tiny PDF on /ok* paths and 404 elsewhere.
func pdfServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ok") {
			w.Write([]byte("%PDF-1.4\ncontent of " + r.URL.Path))
			return
		}
		http.NotFound(w, r)
	}))
}

// readZip returns member name → contents.
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	members := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		members[f.Name] = string(b)
	}
	return members
}

func TestBuild_PartialFailure(t *testing.T) {
	ts := pdfServer()
	defer ts.Close()

	entries := []types.ArchiveEntry{
		{Title: "Paper A", Authors: "A Smith", Year: "2021", DownloadURL: ts.URL + "/ok-a"},
		{Title: "Paper B", DownloadURL: ts.URL + "/missing"},
		{Title: "Paper C", Abstract: "Long abstract.", DownloadURL: ts.URL + "/ok-c"},
	}

	res, err := testBuilder(4).Build(context.Background(), entries, "KNN nanorods")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "KNN_nanorods_papers.zip", res.Filename)

	members := readZip(t, res.Data)
	assert.Contains(t, members, "Paper_A.pdf")
	assert.Contains(t, members, "Paper_C.pdf")
	assert.NotContains(t, members, "Paper_B.pdf")

	manifest := members["metadata_report.txt"]
	require.NotEmpty(t, manifest)
	assert.Contains(t, manifest, "[2] Paper B")
	assert.Contains(t, manifest, "failed: host returned HTTP 404")
	assert.Contains(t, manifest, "Downloaded PDFs: 2")

	// Manifest blocks reproduce input order.
	posA := strings.Index(manifest, "[1] Paper A")
	posB := strings.Index(manifest, "[2] Paper B")
	posC := strings.Index(manifest, "[3] Paper C")
	require.True(t, posA >= 0 && posB >= 0 && posC >= 0)
	assert.Less(t, posA, posB)
	assert.Less(t, posB, posC)

	assert.Contains(t, members, "metadata.yaml")
	assert.Contains(t, members["metadata.yaml"], "KNN nanorods")
}

func TestBuild_AllFailed(t *testing.T) {
	ts := pdfServer()
	defer ts.Close()

	entries := []types.ArchiveEntry{
		{Title: "Paper A", DownloadURL: ts.URL + "/gone"},
		{Title: "Paper B", DownloadURL: ts.URL + "/also-gone"},
	}
	_, err := testBuilder(4).Build(context.Background(), entries, "topic")
	assert.ErrorIs(t, err, ErrAllDownloadsFailed)
}

func TestBuild_NoDownloadableEntries(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	_, err := testBuilder(4).Build(context.Background(), nil, "topic")
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = testBuilder(4).Build(context.Background(), []types.ArchiveEntry{
		{Title: "no link"},
		{Title: "bad link", DownloadURL: "not a url"},
	}, "topic")
	assert.ErrorIs(t, err, ErrNoEntries)
	assert.Zero(t, atomic.LoadInt32(&hits), "validation must run before any fetch")
}

func TestBuild_CollidingTitles(t *testing.T) {
	ts := pdfServer()
	defer ts.Close()

	entries := []types.ArchiveEntry{
		{Title: "Study", DownloadURL: ts.URL + "/ok-1"},
		{Title: "Study!!", DownloadURL: ts.URL + "/ok-2"},
		{Title: "Study", DownloadURL: ts.URL + "/ok-3"},
	}
	res, err := testBuilder(4).Build(context.Background(), entries, "t")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)

	members := readZip(t, res.Data)
	pdfs := 0
	for name := range members {
		if strings.HasSuffix(name, ".pdf") {
			pdfs++
		}
	}
	// Both "Study" and "Study!!" sanitize to similar stems; no member may
	// overwrite another.
	assert.Equal(t, 3, pdfs)
	assert.Contains(t, members, "Study.pdf")
	assert.Contains(t, members, "Study!!.pdf")
	assert.Contains(t, members, "Study_2.pdf")
}

func TestBuild_EntriesWithoutLinksGoToManifest(t *testing.T) {
	ts := pdfServer()
	defer ts.Close()

	entries := []types.ArchiveEntry{
		{Title: "Has PDF", DownloadURL: ts.URL + "/ok"},
		{Title: "No PDF at all"},
	}
	res, err := testBuilder(4).Build(context.Background(), entries, "t")
	require.NoError(t, err)

	manifest := readZip(t, res.Data)["metadata_report.txt"]
	assert.Contains(t, manifest, "[2] No PDF at all")
	assert.Contains(t, manifest, "failed: no PDF link available")
	assert.Contains(t, manifest, "PDF URL  : N/A")
}

func TestBuild_BoundedConcurrency(t *testing.T) {
	const limit = 2
	var inFlight, peak int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte("%PDF-1.4\nx"))
	}))
	defer ts.Close()

	var entries []types.ArchiveEntry
	for i := 0; i < 8; i++ {
		entries = append(entries, types.ArchiveEntry{
			Title:       fmt.Sprintf("Paper %d", i),
			DownloadURL: fmt.Sprintf("%s/ok-%d", ts.URL, i),
		})
	}

	res, err := testBuilder(limit).Build(context.Background(), entries, "t")
	require.NoError(t, err)
	assert.Equal(t, 8, res.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
}

func TestBuild_OuterTimeoutFoldsPendingIntoManifest(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fast" {
			w.Write([]byte("%PDF-1.4\nfast"))
			return
		}
		<-release
	}))
	defer ts.Close()
	defer close(release)

	b := New(testFetcher(), types.ArchiveConfig{
		Concurrency:  4,
		BuildTimeout: 300 * time.Millisecond,
	})
	entries := []types.ArchiveEntry{
		{Title: "Fast", DownloadURL: ts.URL + "/fast"},
		{Title: "Hangs", DownloadURL: ts.URL + "/hang"},
	}

	start := time.Now()
	res, err := b.Build(context.Background(), entries, "t")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "build must not wait for the hanging host")
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	manifest := readZip(t, res.Data)["metadata_report.txt"]
	assert.Contains(t, manifest, "failed: download timed out")
}

func TestUniqueName(t *testing.T) {
	seen := make(map[string]bool)
	assert.Equal(t, "Study", uniqueName(seen, "Study"))
	assert.Equal(t, "Study_2", uniqueName(seen, "Study"))
	assert.Equal(t, "Study_3", uniqueName(seen, "Study"))
	// A literal "Study_2" arriving later must not clash with the suffixed one.
	assert.Equal(t, "Study_2_2", uniqueName(seen, "Study_2"))
}
