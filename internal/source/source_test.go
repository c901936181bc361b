// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// recordingBackend captures the arguments Search received.
type recordingBackend struct {
	gotTopic string
	gotLimit int
	results  []types.PaperRecord
	err      error
	calls    int
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Search(_ context.Context, topic string, limit int, _ types.SearchConfig) ([]types.PaperRecord, error) {
	b.calls++
	b.gotTopic = topic
	b.gotLimit = limit
	return b.results, b.err
}

func TestSearch_EmptyTopicBeforeNetwork(t *testing.T) {
	b := &recordingBackend{}
	for _, topic := range []string{"", "   ", "\t\n"} {
		_, err := Search(context.Background(), b, topic, 10, types.SearchConfig{})
		assert.ErrorIs(t, err, ErrEmptyTopic, "topic %q", topic)
	}
	assert.Equal(t, 0, b.calls, "no backend call may happen for an empty topic")
}

func TestSearch_ZeroResultsIsSuccess(t *testing.T) {
	b := &recordingBackend{}
	papers, err := Search(context.Background(), b, "quantum dots", 10, types.SearchConfig{})
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSearch_NormalizesRecords(t *testing.T) {
	b := &recordingBackend{results: []types.PaperRecord{
		{Title: "A", DownloadURL: "https://x.org/a.pdf"},
		{Title: "B", DownloadURL: "not-a-url", HasPDF: true},
	}}
	papers, err := Search(context.Background(), b, "t", 10, types.SearchConfig{})
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.True(t, papers[0].HasPDF)
	assert.False(t, papers[1].HasPDF)
	assert.Empty(t, papers[1].DownloadURL)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		cfgMax int
		want   int
	}{
		{"in range", 10, 0, 10},
		{"zero", 0, 0, 1},
		{"negative", -5, 0, 1},
		{"above cap", 100, 0, 20},
		{"at cap", 20, 0, 20},
		{"config lowers cap", 15, 12, 12},
		{"config above hard cap", 30, 50, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.n, tt.cfgMax))
		})
	}
}

func TestSearch_LimitClampedNotErrored(t *testing.T) {
	b := &recordingBackend{}
	_, err := Search(context.Background(), b, "t", 500, types.SearchConfig{})
	require.NoError(t, err)
	assert.Equal(t, MaxResults, b.gotLimit)

	_, err = Search(context.Background(), b, "t", -1, types.SearchConfig{})
	require.NoError(t, err)
	assert.Equal(t, MinResults, b.gotLimit)
}

func TestNew_BackendSelection(t *testing.T) {
	client := &http.Client{}
	tests := []struct {
		backend string
		want    string
	}{
		{"", "scholar"},
		{"scholar", "scholar"},
		{"arxiv", "arxiv"},
		{"openalex", "openalex"},
		{"semantic_scholar", "semantic_scholar"},
	}
	for _, tt := range tests {
		b, err := New(types.SearchConfig{Backend: tt.backend}, client)
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.Name())
	}

	_, err := New(types.SearchConfig{Backend: "bing"}, client)
	assert.Error(t, err)
}
