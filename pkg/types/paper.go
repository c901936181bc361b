// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperfetch service.
package types

import "net/url"

// PaperRecord is the normalized metadata for one discovered publication.
// Records are created by a metadata source and are not mutated afterwards;
// selection and download state live with the client.
type PaperRecord struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors is the source's byline text, possibly empty.
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year extracted from the byline, or "N/A".
	Year string `json:"year" yaml:"year"`

	// Abstract is the paper abstract. A nil pointer means the source did
	// not provide one, which is distinct from an empty abstract.
	Abstract *string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SourceURL points at the canonical landing page, when known.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// DownloadURL points at a detected direct-PDF resource. Its presence
	// is the sole determinant of PDF availability.
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`

	// HasPDF is derived from DownloadURL; see Normalize.
	HasPDF bool `json:"has_pdf" yaml:"has_pdf"`
}

// Normalize derives HasPDF from DownloadURL and clears a URL that is not
// usable. After Normalize, HasPDF is true iff DownloadURL is a well-formed
// http(s) URL.
func (p *PaperRecord) Normalize() {
	if !IsFetchableURL(p.DownloadURL) {
		p.DownloadURL = ""
	}
	p.HasPDF = p.DownloadURL != ""
}

// IsFetchableURL reports whether raw parses as an absolute http or https URL.
func IsFetchableURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ArchiveEntry is one client-selected paper submitted for batch retrieval.
// The client resubmits the fields it received in the PaperRecord; the
// server holds no copy between requests.
type ArchiveEntry struct {
	Title       string `json:"title" yaml:"title"`
	Authors     string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year        string `json:"year,omitempty" yaml:"year,omitempty"`
	Abstract    string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
}

// Downloadable reports whether the entry carries a usable PDF URL.
func (e ArchiveEntry) Downloadable() bool {
	return IsFetchableURL(e.DownloadURL)
}
