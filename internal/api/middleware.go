// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/uday68/mindhangar-sub001/internal/logging"
	"github.com/uday68/mindhangar-sub001/internal/metrics"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID attaches a request id to the context and the X-Request-ID
// response header. An incoming X-Request-ID header is honored so traces can
// span callers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// requestID returns the request id from the request context, if any.
func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger logs each request with latency and status, and records the
// HTTP Prometheus metrics keyed by the chi route pattern so cardinality
// stays bounded.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(elapsed.Seconds())

		logging.Debug().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", elapsed).
			Int("bytes", ww.BytesWritten()).
			Msg("http request")
	})
}
