// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive bundles a batch of selected papers into one zip: each
// entry is fetched independently with bounded parallelism, successes become
// archive members, and failures are recorded in a manifest instead of
// aborting the build.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/internal/fetch"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var (
	// ErrNoEntries marks a request with no downloadable papers. Checked
	// before any network activity starts.
	ErrNoEntries = errors.New("no downloadable papers in request")

	// ErrAllDownloadsFailed marks a build in which not a single PDF could
	// be fetched. No archive is produced in that case.
	ErrAllDownloadsFailed = errors.New("all downloads failed")
)

const (
	manifestName = "metadata_report.txt"
	metadataName = "metadata.yaml"

	defaultConcurrency = 6
	maxConcurrency     = 8
)

// Result is one completed archive build.
type Result struct {
	// Data is the zip archive bytes.
	Data []byte

	// Filename is the suggested attachment name for the archive.
	Filename string

	// Succeeded and Failed count per-entry outcomes.
	Succeeded int
	Failed    int
}

// Builder assembles archives from remote PDFs through a shared Fetcher.
type Builder struct {
	fetcher *fetch.Fetcher
	cfg     types.ArchiveConfig
}

// New returns a Builder with cfg's limits. Zero values fall back to the
// package defaults.
func New(fetcher *fetch.Fetcher, cfg types.ArchiveConfig) *Builder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Concurrency > maxConcurrency {
		cfg.Concurrency = maxConcurrency
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 60 * time.Second
	}
	return &Builder{fetcher: fetcher, cfg: cfg}
}

// outcome records one entry's fetch result, indexed by input position so
// the archive listing stays deterministic regardless of completion order.
type outcome struct {
	res fetch.Result
	err error
}

// Build fetches every downloadable entry and assembles the archive. One
// entry's failure never aborts the others; entries still pending when the
// build timeout fires are recorded as timed out. Archive members and the
// manifest reproduce input order.
func (b *Builder) Build(ctx context.Context, entries []types.ArchiveEntry, label string) (Result, error) {
	downloadable := 0
	for _, e := range entries {
		if e.Downloadable() {
			downloadable++
		}
	}
	if downloadable == 0 {
		return Result{}, ErrNoEntries
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.BuildTimeout)
	defer cancel()

	outcomes := make([]outcome, len(entries))
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(b.cfg.Concurrency, func(arg any) {
		i := arg.(int)
		defer wg.Done()
		res, fetchErr := b.fetcher.Fetch(ctx, entries[i].DownloadURL, entries[i].Title)
		outcomes[i] = outcome{res: res, err: fetchErr}
	})
	if err != nil {
		return Result{}, fmt.Errorf("creating fetch pool: %w", err)
	}
	defer pool.Release()

	for i, e := range entries {
		if !e.Downloadable() {
			outcomes[i] = outcome{err: fetch.ErrInvalidURL}
			continue
		}
		wg.Add(1)
		if invokeErr := pool.Invoke(i); invokeErr != nil {
			wg.Done()
			outcomes[i] = outcome{err: invokeErr}
		}
	}
	wg.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		return Result{}, ErrAllDownloadsFailed
	}

	data, err := b.assemble(entries, outcomes, label, succeeded)
	if err != nil {
		return Result{}, err
	}

	base := fetch.SanitizeFilename(label)
	if base == "" {
		base = "research"
	}
	return Result{
		Data:      data,
		Filename:  base + "_papers.zip",
		Succeeded: succeeded,
		Failed:    len(entries) - succeeded,
	}, nil
}

// assemble writes members, manifest, and metadata in input order.
func (b *Builder) assemble(entries []types.ArchiveEntry, outcomes []outcome, label string, succeeded int) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]bool)
	memberNames := make([]string, len(entries))
	for i := range entries {
		if outcomes[i].err != nil {
			continue
		}
		base := strings.TrimSuffix(outcomes[i].res.Filename, ".pdf")
		name := uniqueName(seen, base) + ".pdf"
		memberNames[i] = name

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating archive member %s: %w", name, err)
		}
		if _, err := w.Write(outcomes[i].res.Data); err != nil {
			return nil, fmt.Errorf("writing archive member %s: %w", name, err)
		}
	}

	mw, err := zw.Create(manifestName)
	if err != nil {
		return nil, fmt.Errorf("creating manifest: %w", err)
	}
	if _, err := mw.Write([]byte(buildManifest(entries, outcomes, memberNames, label, succeeded))); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	meta, err := yaml.Marshal(struct {
		Topic  string               `yaml:"topic"`
		Papers []types.ArchiveEntry `yaml:"papers"`
	}{Topic: label, Papers: entries})
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	yw, err := zw.Create(metadataName)
	if err != nil {
		return nil, fmt.Errorf("creating metadata: %w", err)
	}
	if _, err := yw.Write(meta); err != nil {
		return nil, fmt.Errorf("writing metadata: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// uniqueName reserves base, suffixing _2, _3… when an earlier entry already
// claimed the same sanitized title.
func uniqueName(seen map[string]bool, base string) string {
	name := base
	for i := 2; seen[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	seen[name] = true
	return name
}

// buildManifest renders the plain-text report included in every archive,
// one block per entry in input order.
func buildManifest(entries []types.ArchiveEntry, outcomes []outcome, memberNames []string, label string, succeeded int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research Paper Download Report\n")
	fmt.Fprintf(&sb, "Topic : %s\n", label)
	fmt.Fprintf(&sb, "Papers: %d\n", len(entries))
	fmt.Fprintf(&sb, "Downloaded PDFs: %d\n", succeeded)
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i, e := range entries {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, orNA(e.Title))
		fmt.Fprintf(&sb, "    Authors  : %s\n", orNA(e.Authors))
		fmt.Fprintf(&sb, "    Year     : %s\n", orNA(e.Year))
		fmt.Fprintf(&sb, "    Abstract : %s\n", orNA(truncateRunes(e.Abstract, 200)))
		fmt.Fprintf(&sb, "    PDF URL  : %s\n", orNA(e.DownloadURL))
		if outcomes[i].err != nil {
			fmt.Fprintf(&sb, "    Status   : failed: %s\n", failureReason(outcomes[i].err))
		} else {
			fmt.Fprintf(&sb, "    Status   : saved as %s\n", memberNames[i])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// failureReason maps a fetch error to the short human-readable form used
// in the manifest.
func failureReason(err error) string {
	var ue *fetch.UpstreamError
	switch {
	case errors.Is(err, fetch.ErrInvalidURL):
		return "no PDF link available"
	case errors.Is(err, fetch.ErrUpstreamTimeout):
		return "download timed out"
	case errors.Is(err, fetch.ErrPayloadTooLarge):
		return "file exceeds size limit"
	case errors.Is(err, fetch.ErrTooManyRedirects):
		return "too many redirects"
	case errors.Is(err, fetch.ErrNotPDF):
		return "URL does not serve a PDF"
	case errors.As(err, &ue):
		return fmt.Sprintf("host returned HTTP %d", ue.Status)
	default:
		return err.Error()
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
