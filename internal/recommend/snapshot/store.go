// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package snapshot persists interaction matrix state across restarts.
//
// Snapshots are gob-encoded, gzip-compressed files with a SHA-256 checksum
// over the uncompressed payload. Each save writes a new monotonically
// increasing version; loading with version 0 picks the latest. Old versions
// are pruned on save so the directory stays bounded.
//
// # File Format
//
//	filename: interactions_v{version}.gob.gz
//
//	structure (single gob stream):
//	  - Metadata (checksum, counts, timestamps)
//	  - CompressedData (gzip-compressed gob-encoded records)
package snapshot

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/uday68/mindhangar-sub001/internal/recommend"
)

const snapshotName = "interactions"

// Metadata describes one stored snapshot.
type Metadata struct {
	// Version is the snapshot version, monotonically increasing.
	Version int

	// SavedAt is when the snapshot was written.
	SavedAt time.Time

	// RecordCount is the number of interaction records stored.
	RecordCount int

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string

	// SizeBytes is the compressed payload size.
	SizeBytes int64
}

// storedFile is the on-disk snapshot format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store manages snapshot files in a single directory.
type Store struct {
	baseDir string
	keep    int

	mu     sync.Mutex
	latest int
}

// NewStore creates a snapshot store rooted at baseDir, creating the
// directory if needed. keep bounds how many versions survive a save;
// values below 1 are treated as 1.
func NewStore(baseDir string, keep int) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for snapshot storage
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if keep < 1 {
		keep = 1
	}

	s := &Store{baseDir: baseDir, keep: keep}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan snapshot directory: %w", err)
	}
	return s, nil
}

// scan finds the highest existing version on disk.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, ok := parseVersion(entry.Name())
		if ok && v > s.latest {
			s.latest = v
		}
	}
	return nil
}

// parseVersion extracts the version from a filename like
// "interactions_v3.gob.gz".
func parseVersion(name string) (int, bool) {
	var v int
	n, err := fmt.Sscanf(name, snapshotName+"_v%d.gob.gz", &v)
	if err != nil || n != 1 || v < 1 {
		return 0, false
	}
	return v, true
}

// LatestVersion returns the newest stored version, or 0 when the store
// is empty.
func (s *Store) LatestVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Save writes the records as a new snapshot version and prunes old ones.
// It returns the metadata of the written snapshot.
func (s *Store) Save(records []recommend.InteractionRecord) (*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(records); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	version := s.latest + 1
	meta := Metadata{
		Version:     version,
		SavedAt:     time.Now(),
		RecordCount: len(records),
		Checksum:    hex.EncodeToString(hash[:]),
		SizeBytes:   int64(compressed.Len()),
	}

	f, err := os.Create(s.path(version)) //nolint:gosec // path is built from the store directory and an integer version
	if err != nil {
		return nil, fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after a successful encode is not actionable

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		return nil, fmt.Errorf("write snapshot file: %w", err)
	}

	s.latest = version
	s.prune()
	return &meta, nil
}

// Load reads a snapshot by version. Version 0 loads the latest. An empty
// store returns ErrNoSnapshot.
func (s *Store) Load(version int) ([]recommend.InteractionRecord, *Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version == 0 {
		if s.latest == 0 {
			return nil, nil, ErrNoSnapshot
		}
		version = s.latest
	}

	f, err := os.Open(s.path(version)) //nolint:gosec // path is built from the store directory and an integer version
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNoSnapshot
		}
		return nil, nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("read snapshot file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close error after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed snapshot: %w", err)
	}

	hash := sha256.Sum256(raw)
	checksum := hex.EncodeToString(hash[:])
	if checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("snapshot checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	var records []recommend.InteractionRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return records, &sf.Metadata, nil
}

// prune deletes everything but the newest keep versions. Caller holds the
// lock.
func (s *Store) prune() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, ok := parseVersion(entry.Name())
		if !ok {
			continue
		}
		if v <= s.latest-s.keep {
			_ = os.Remove(filepath.Join(s.baseDir, entry.Name())) //nolint:errcheck // best-effort cleanup of old versions
		}
	}
}

func (s *Store) path(version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d.gob.gz", snapshotName, version))
}
