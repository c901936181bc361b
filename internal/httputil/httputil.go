// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// NewClient returns a client with a total request timeout. Retrieval is
// deliberately retry-free; a failed call is reported to the caller rather
// than repeated.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// IsTimeout reports whether err represents a timeout, either from a
// request context deadline or from the transport.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
