// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_HasPDFDerivation(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantURL  string
		wantPDF  bool
	}{
		{"https url", "https://example.com/paper.pdf", "https://example.com/paper.pdf", true},
		{"http url", "http://example.com/paper.pdf", "http://example.com/paper.pdf", true},
		{"empty", "", "", false},
		{"ftp scheme", "ftp://example.com/paper.pdf", "", false},
		{"relative path", "/papers/1.pdf", "", false},
		{"scheme only", "https://", "", false},
		{"garbage", "::::", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PaperRecord{Title: "T", DownloadURL: tt.url}
			p.Normalize()
			assert.Equal(t, tt.wantURL, p.DownloadURL)
			assert.Equal(t, tt.wantPDF, p.HasPDF)
			// HasPDF must never be true without a usable URL.
			if p.HasPDF {
				assert.True(t, IsFetchableURL(p.DownloadURL))
			}
		})
	}
}

func TestArchiveEntryDownloadable(t *testing.T) {
	assert.True(t, ArchiveEntry{DownloadURL: "https://x.org/a.pdf"}.Downloadable())
	assert.False(t, ArchiveEntry{Title: "no link"}.Downloadable())
	assert.False(t, ArchiveEntry{DownloadURL: "scholar.google.com/x"}.Downloadable())
}
