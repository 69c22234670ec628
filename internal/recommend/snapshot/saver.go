// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/uday68/mindhangar-sub001/internal/recommend"
)

// ErrNoSnapshot is returned by Load when the store holds no snapshots.
var ErrNoSnapshot = errors.New("no snapshot available")

// SaverConfig configures the periodic snapshot saver.
type SaverConfig struct {
	// Interval between snapshot writes.
	Interval time.Duration
}

// DefaultSaverConfig returns sensible saver defaults.
func DefaultSaverConfig() SaverConfig {
	return SaverConfig{Interval: 5 * time.Minute}
}

// Saver periodically exports the interaction matrix to the store. It runs
// as a supervised service and writes one final snapshot on shutdown.
type Saver struct {
	store    *Store
	matrix   *recommend.Matrix
	interval time.Duration
	logger   zerolog.Logger

	// lastCount skips writes when nothing changed since the last save.
	lastCount int
}

// NewSaver creates a snapshot saver.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSaver(store *Store, matrix *recommend.Matrix, cfg SaverConfig, logger zerolog.Logger) *Saver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSaverConfig().Interval
	}
	return &Saver{
		store:     store,
		matrix:    matrix,
		interval:  interval,
		logger:    logger.With().Str("component", "snapshot-saver").Logger(),
		lastCount: -1,
	}
}

// Serve runs the periodic save loop until ctx is canceled, then attempts
// one final save so recent interactions survive the restart.
func (s *Saver) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Snapshot saver started")

	for {
		select {
		case <-ctx.Done():
			s.save()
			s.logger.Info().Msg("Snapshot saver stopped")
			return ctx.Err()
		case <-ticker.C:
			s.save()
		}
	}
}

// String implements suture's service naming.
func (s *Saver) String() string {
	return "snapshot-saver"
}

func (s *Saver) save() {
	records := s.matrix.Export()
	if len(records) == s.lastCount {
		return
	}

	meta, err := s.store.Save(records)
	if err != nil {
		s.logger.Error().Err(err).Msg("Snapshot save failed")
		return
	}

	s.lastCount = len(records)
	s.logger.Debug().
		Int("version", meta.Version).
		Int("records", meta.RecordCount).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Snapshot saved")
}

// RestoreLatest loads the newest snapshot into the matrix. A missing
// snapshot is not an error; the matrix simply starts empty.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func RestoreLatest(store *Store, matrix *recommend.Matrix, logger zerolog.Logger) error {
	records, meta, err := store.Load(0)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			logger.Info().Msg("No interaction snapshot found, starting empty")
			return nil
		}
		return err
	}

	matrix.Restore(records)
	logger.Info().
		Int("version", meta.Version).
		Int("records", meta.RecordCount).
		Time("saved_at", meta.SavedAt).
		Msg("Interaction snapshot restored")
	return nil
}
