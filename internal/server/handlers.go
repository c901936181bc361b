// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/paperfetch/internal/archive"
	"github.com/pdiddy/paperfetch/internal/fetch"
	"github.com/pdiddy/paperfetch/internal/source"
	"github.com/pdiddy/paperfetch/pkg/types"
)

const defaultNumResults = 10

type searchRequest struct {
	Topic      string `json:"topic"`
	NumResults int    `json:"num_results"`
}

type searchResponse struct {
	Papers []types.PaperRecord `json:"papers"`
	Count  int                 `json:"count"`
	Topic  string              `json:"topic,omitempty"`
	Error  string              `json:"error,omitempty"`
}

type downloadRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type zipRequest struct {
	Papers []types.ArchiveEntry `json:"papers"`
	Topic  string               `json:"topic"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}

// handleSearch maps source failures to HTTP 200 with an embedded error
// field: the client branches on data.error alongside data.papers, never on
// the status code. Only malformed input gets a 400.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.NumResults == 0 {
		req.NumResults = defaultNumResults
	}

	papers, err := source.Search(r.Context(), s.backend, req.Topic, req.NumResults, s.cfg.Search)
	switch {
	case err == nil:
	case errors.Is(err, source.ErrEmptyTopic):
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	case errors.Is(err, source.ErrSourceBlocked):
		s.log.Warnw("search blocked", "backend", s.backend.Name(), "err", err)
		writeJSON(w, http.StatusOK, searchResponse{
			Papers: []types.PaperRecord{},
			Error:  "The metadata source is blocking automated requests. Try again later.",
		})
		return
	case errors.Is(err, source.ErrSourceUnavailable):
		s.log.Warnw("search unavailable", "backend", s.backend.Name(), "err", err)
		writeJSON(w, http.StatusOK, searchResponse{
			Papers: []types.PaperRecord{},
			Error:  "The metadata source is unreachable. Try again later.",
		})
		return
	default:
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	if papers == nil {
		papers = []types.PaperRecord{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Papers: papers,
		Count:  len(papers),
		Topic:  req.Topic,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	res, err := s.fetcher.Fetch(r.Context(), req.URL, req.Title)
	if err != nil {
		s.log.Warnw("download failed", "url", req.URL, "err", err)
		writeError(w, downloadStatus(err), fmt.Sprintf("Download failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(res.Data)))
	w.Write(res.Data)
}

func (s *Server) handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	var req zipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Topic == "" {
		req.Topic = "research_papers"
	}

	res, err := s.builder.Build(r.Context(), req.Papers, req.Topic)
	switch {
	case err == nil:
	case errors.Is(err, archive.ErrNoEntries):
		writeError(w, http.StatusBadRequest, "No downloadable papers provided")
		return
	case errors.Is(err, archive.ErrAllDownloadsFailed):
		writeError(w, http.StatusBadGateway, "All downloads failed")
		return
	default:
		s.log.Errorw("archive build failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Archive build failed")
		return
	}

	s.log.Infow("archive built",
		"topic", req.Topic,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"bytes", len(res.Data),
	)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(res.Data)))
	w.Write(res.Data)
}

// downloadStatus maps a fetch failure to the response status for single
// downloads. Caller mistakes are 4xx; upstream trouble is 5xx.
func downloadStatus(err error) int {
	var ue *fetch.UpstreamError
	switch {
	case errors.Is(err, fetch.ErrInvalidURL), errors.Is(err, fetch.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, fetch.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &ue),
		errors.Is(err, fetch.ErrPayloadTooLarge),
		errors.Is(err, fetch.ErrTooManyRedirects):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
