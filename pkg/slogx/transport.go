package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dailydigest/pkg/idx"
)

// Transport wraps an http.RoundTripper and logs every outbound request with
// the logger found in the request context (falling back to Base).
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport returns a logging Transport around base. A nil base means
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	// Generate a request ID if not provided via X-Request-ID header
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = idx.New().String()
		r = r.Clone(r.Context())
		r.Header.Set("X-Request-ID", reqID)
	}

	logger := t.logger(r).With(
		"req_id", reqID,
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
	)

	resp, err := t.base().RoundTrip(r)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_client_request",
			"duration_ms", duration,
			"error", err,
		)
		return nil, err
	}

	logger.Debug("http_client_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger(r *http.Request) *slog.Logger {
	if _, ok := r.Context().Value(ctxKey{}).(*slog.Logger); ok {
		return FromContext(r.Context())
	}
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
