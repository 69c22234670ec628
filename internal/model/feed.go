// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/uday68/mindhangar-sub001/internal/logging"
	"github.com/uday68/mindhangar-sub001/internal/metrics"
)

// maxFeedBytes caps the registry feed response size.
const maxFeedBytes = 16 << 20

// FeedConfig configures the registry feed client.
type FeedConfig struct {
	// URL is the registry feed endpoint returning a JSON metadata array.
	// Empty disables remote updates; CheckForUpdates degrades to "none".
	URL string

	// Timeout bounds a single fetch. Default: 15s.
	Timeout time.Duration
}

// Feed fetches the latest artifact metadata from the remote registry.
//
// Fetches go through a circuit breaker so a flapping registry endpoint does
// not pile up slow requests. When the breaker is open or the network is
// unavailable, callers degrade to "no updates available" rather than
// surfacing an error to the user.
type Feed struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]Metadata]
}

// NewFeed creates a registry feed client.
func NewFeed(cfg FeedConfig) *Feed {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cbName := "registry-feed"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Metadata](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("registry feed breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &Feed{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
	}
}

// Fetch retrieves the current registry feed. Returns nil, nil when no feed
// URL is configured.
func (f *Feed) Fetch(ctx context.Context) ([]Metadata, error) {
	if f.url == "" {
		return nil, nil
	}

	entries, err := f.cb.Execute(func() ([]Metadata, error) {
		return f.fetch(ctx)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "circuit_open"
		}
		metrics.RegistryFeedFetchesTotal.WithLabelValues(result).Inc()
		return nil, err
	}

	metrics.RegistryFeedFetchesTotal.WithLabelValues("ok").Inc()
	return entries, nil
}

// fetch performs a single feed request.
func (f *Feed) fetch(ctx context.Context) ([]Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch registry feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry feed status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read registry feed: %w", err)
	}

	var entries []Metadata
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode registry feed: %w", err)
	}

	return entries, nil
}

// breakerStateValue maps a breaker state to its metric value.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
