// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// maxArtifactBytes caps a single artifact payload.
const maxArtifactBytes = 4 << 30

// downloadChunkBytes is the read granularity for progress and rate limiting.
const downloadChunkBytes = 256 << 10

// ProgressFunc receives fractional load progress in [0, 1]. Reported values
// are strictly increasing; 1.0 is always reported on completion.
type ProgressFunc func(fraction float64)

// LoaderConfig configures the artifact loader.
type LoaderConfig struct {
	// Timeout bounds a single artifact fetch. Default: 5m.
	Timeout time.Duration

	// BandwidthBytesPerSec caps download throughput. Zero means unlimited.
	BandwidthBytesPerSec int
}

// Loader turns ArtifactMetadata into a ready-to-use in-memory Artifact.
//
// Loads are coalesced per artifact id: when a load for an id is already in
// flight, concurrent callers share the same pending result instead of
// starting a second fetch. Progress callbacks are delivered to the first
// caller's callback only, which is the Manager's status updater in practice.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewLoader creates an artifact loader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(cfg LoaderConfig, logger zerolog.Logger) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	var limiter *rate.Limiter
	if cfg.BandwidthBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BandwidthBytesPerSec), downloadChunkBytes)
	}

	return &Loader{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.With().Str("component", "loader").Logger(),
	}
}

// Load fetches or locally instantiates the artifact described by meta.
// onProgress may be nil. Concurrent calls for the same metadata id share one
// underlying fetch and resolve to the same result, success or failure.
func (l *Loader) Load(ctx context.Context, meta Metadata, onProgress ProgressFunc) (*Artifact, error) {
	result, err, shared := l.group.Do(string(meta.ID), func() (interface{}, error) {
		return l.load(ctx, meta, onProgress)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		l.logger.Debug().
			Str("artifact", meta.ID.String()).
			Msg("load coalesced with in-flight fetch")
	}

	return result.(*Artifact), nil
}

// load performs a single uncoalesced load.
func (l *Loader) load(ctx context.Context, meta Metadata, onProgress ProgressFunc) (*Artifact, error) {
	start := time.Now()

	strategy, err := strategyFor(meta.Format)
	if err != nil {
		return nil, err
	}

	progress := newProgressTracker(onProgress)

	var data []byte
	if meta.SourceURL != "" {
		data, err = l.download(ctx, meta, progress)
		if err != nil {
			return nil, &LoadError{ID: meta.ID, Err: err}
		}
		if err := verifyChecksum(meta, data); err != nil {
			return nil, &LoadError{ID: meta.ID, Err: err}
		}
	} else {
		data, err = instantiateLocal(meta)
		if err != nil {
			return nil, &LoadError{ID: meta.ID, Err: err}
		}
	}

	artifact, err := strategy.Instantiate(meta, data)
	if err != nil {
		return nil, &LoadError{ID: meta.ID, Err: err}
	}

	// Completion is always reported, even when the transport gave no
	// incremental progress (no content length: single 0 -> 1 jump).
	progress.Complete()

	l.logger.Info().
		Str("artifact", meta.ID.String()).
		Str("format", meta.Format.String()).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("artifact loaded")

	return artifact, nil
}

// download streams the artifact payload, reporting content-length-based
// progress and honoring the bandwidth cap.
func (l *Loader) download(ctx context.Context, meta Metadata, progress *progressTracker) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.SourceURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact fetch status: %d %s", resp.StatusCode, resp.Status)
	}

	total := resp.ContentLength
	if total > maxArtifactBytes {
		return nil, fmt.Errorf("artifact size %d exceeds limit", total)
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, downloadChunkBytes)
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			if l.limiter != nil {
				if err := l.limiter.WaitN(ctx, n); err != nil {
					return nil, err
				}
			}
			buf.Write(chunk[:n])
			read += int64(n)
			if read > maxArtifactBytes {
				return nil, fmt.Errorf("artifact exceeded %d bytes", int64(maxArtifactBytes))
			}
			if total > 0 {
				progress.Report(float64(read) / float64(total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read artifact stream: %w", readErr)
		}
	}

	return buf.Bytes(), nil
}

// instantiateLocal builds a payload for artifacts with no source location.
// These are small locally-derived models; the payload is a deterministic
// header so repeated instantiations are identical.
func instantiateLocal(meta Metadata) ([]byte, error) {
	header := fmt.Sprintf("%s/%s@%s", meta.Format, meta.ID, meta.Version)
	return []byte(header), nil
}

// verifyChecksum compares the payload digest against the declared checksum.
// Metadata without a checksum skips verification.
func verifyChecksum(meta Metadata, data []byte) error {
	if meta.Checksum == "" {
		return nil
	}

	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, meta.Checksum) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, meta.Checksum, got)
	}
	return nil
}

// progressTracker enforces the progress contract: strictly increasing
// fractions in [0, 1] with a guaranteed terminal 1.0.
type progressTracker struct {
	fn   ProgressFunc
	last float64
	done bool
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

// Report forwards a fraction if it strictly exceeds the previous one.
// Values are clamped to [0, 1); the terminal 1.0 comes from Complete.
func (p *progressTracker) Report(fraction float64) {
	if p.fn == nil || p.done {
		return
	}
	if fraction >= 1 {
		fraction = 0.999
	}
	if fraction <= p.last {
		return
	}
	p.last = fraction
	p.fn(fraction)
}

// Complete reports the terminal 1.0 exactly once.
func (p *progressTracker) Complete() {
	if p.fn == nil || p.done {
		return
	}
	p.done = true
	p.fn(1.0)
}

// loadStrategy instantiates an Artifact from a raw payload for one format.
type loadStrategy interface {
	Instantiate(meta Metadata, data []byte) (*Artifact, error)
}

// strategyFor dispatches to the format-specific loading strategy.
func strategyFor(format Format) (loadStrategy, error) {
	switch format {
	case FormatONNX, FormatTFLite, FormatGGUF, FormatSafetensors:
		return rawStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// rawStrategy wraps the payload without further decoding. Runtime-specific
// deserialization happens at inference time, outside this subsystem.
type rawStrategy struct{}

func (rawStrategy) Instantiate(meta Metadata, data []byte) (*Artifact, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact %q: empty payload", meta.ID)
	}
	return &Artifact{
		Meta:     meta,
		Data:     data,
		LoadedAt: time.Now(),
	}, nil
}
