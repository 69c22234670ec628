// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package model implements the artifact lifecycle: registry metadata, the
// loader that turns metadata into in-memory artifacts, the persistent
// BadgerDB-backed cache, and the lifecycle manager that mediates between them.
//
// All shared state (registry table, status table, loaded handles) is owned by
// the Manager and mutated only through its methods. Other packages read model
// handles via Manager.Get and never touch lifecycle state.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactID uniquely identifies a registered model artifact.
type ArtifactID string

// String returns the raw identifier.
func (id ArtifactID) String() string { return string(id) }

// Format identifies the serialized artifact format. The set is closed:
// unknown formats are rejected at registration time, not at load time.
type Format int

const (
	// FormatUnknown is the zero value and never valid for registration.
	FormatUnknown Format = iota
	// FormatONNX is an ONNX graph.
	FormatONNX
	// FormatTFLite is a TensorFlow Lite flatbuffer.
	FormatTFLite
	// FormatGGUF is a GGUF quantized model file.
	FormatGGUF
	// FormatSafetensors is a safetensors weight bundle.
	FormatSafetensors
)

// String returns the wire name of the format.
func (f Format) String() string {
	switch f {
	case FormatONNX:
		return "onnx"
	case FormatTFLite:
		return "tflite"
	case FormatGGUF:
		return "gguf"
	case FormatSafetensors:
		return "safetensors"
	default:
		return "unknown"
	}
}

// ParseFormat converts a wire name to a Format.
// Unrecognized names return FormatUnknown and an error.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onnx":
		return FormatONNX, nil
	case "tflite":
		return FormatTFLite, nil
	case "gguf":
		return FormatGGUF, nil
	case "safetensors":
		return FormatSafetensors, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// MarshalJSON encodes the format as its wire name.
func (f Format) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name, rejecting unknown values.
func (f *Format) UnmarshalJSON(b []byte) error {
	parsed, err := ParseFormat(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Quantization describes the numeric precision of the artifact weights.
type Quantization int

const (
	// QuantNone means full-precision weights.
	QuantNone Quantization = iota
	// QuantFloat16 is half precision.
	QuantFloat16
	// QuantInt8 is 8-bit integer quantization.
	QuantInt8
	// QuantInt4 is 4-bit integer quantization.
	QuantInt4
)

// String returns the wire name of the quantization level.
func (q Quantization) String() string {
	switch q {
	case QuantFloat16:
		return "f16"
	case QuantInt8:
		return "int8"
	case QuantInt4:
		return "int4"
	default:
		return "none"
	}
}

// ParseQuantization converts a wire name to a Quantization.
// Unrecognized names default to QuantNone.
func ParseQuantization(s string) Quantization {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f16", "fp16", "float16":
		return QuantFloat16
	case "int8", "q8":
		return QuantInt8
	case "int4", "q4":
		return QuantInt4
	default:
		return QuantNone
	}
}

// DeploymentTag describes where the artifact is intended to run.
type DeploymentTag string

const (
	// DeployEdge artifacts run on-device.
	DeployEdge DeploymentTag = "edge"
	// DeployCloud artifacts run server-side.
	DeployCloud DeploymentTag = "cloud"
	// DeployHybrid artifacts run in either location.
	DeployHybrid DeploymentTag = "hybrid"
)

// Metadata is the immutable descriptor for a registered artifact.
// Records are replaced wholesale on update and never mutated in place.
type Metadata struct {
	// ID is the unique artifact identifier.
	ID ArtifactID `json:"id"`

	// Name is the human-readable artifact name.
	Name string `json:"name"`

	// Version is a semantic version string.
	Version string `json:"version"`

	// SizeBytes is the declared payload size.
	SizeBytes uint64 `json:"size_bytes"`

	// Format is the serialized artifact format.
	Format Format `json:"format"`

	// Quantization is the weight precision.
	Quantization Quantization `json:"quantization"`

	// Accuracy is the declared accuracy in [0, 1].
	Accuracy float64 `json:"accuracy"`

	// LatencyMS is the declared inference latency in milliseconds.
	LatencyMS int `json:"latency_ms"`

	// Deployment indicates the intended runtime location.
	Deployment DeploymentTag `json:"deployment"`

	// LastUpdated is when this descriptor was published.
	LastUpdated time.Time `json:"last_updated"`

	// Checksum is the hex-encoded SHA-256 of the payload.
	Checksum string `json:"checksum"`

	// SourceURL is where the payload is fetched from. Empty means the
	// artifact is instantiated locally.
	SourceURL string `json:"source_url,omitempty"`
}

// Validate checks descriptor invariants enforced at registration time.
func (m *Metadata) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("artifact id is required")
	}
	if m.Format == FormatUnknown {
		return fmt.Errorf("%w: artifact %q", ErrUnsupportedFormat, m.ID)
	}
	if m.SizeBytes == 0 {
		return fmt.Errorf("artifact %q: size_bytes must be positive", m.ID)
	}
	if m.Accuracy < 0 || m.Accuracy > 1 {
		return fmt.Errorf("artifact %q: accuracy %v outside [0,1]", m.ID, m.Accuracy)
	}
	return nil
}

// Status is the mutable per-artifact lifecycle state. One instance exists per
// registered artifact id, created at registration and updated throughout the
// artifact's lifetime.
type Status struct {
	// Loaded reports whether an in-memory handle exists.
	Loaded bool `json:"is_loaded"`

	// Loading reports whether a load is in flight. While true, no second
	// load is started; callers await the in-flight one.
	Loading bool `json:"is_loading"`

	// Progress is the fractional load progress in [0, 1].
	Progress float64 `json:"load_progress"`

	// Error holds the last load failure message, if any.
	Error string `json:"error,omitempty"`

	// LastUsed is when the handle was last requested.
	LastUsed time.Time `json:"last_used,omitzero"`

	// MemoryBytes is the approximate memory held by the loaded handle.
	MemoryBytes uint64 `json:"memory_usage,omitempty"`
}

// Artifact is a loaded, usable in-memory model instance.
type Artifact struct {
	// Meta is the descriptor snapshot the artifact was loaded from.
	Meta Metadata `json:"metadata"`

	// Data is the raw payload.
	Data []byte `json:"-"`

	// LoadedAt is when the handle was created.
	LoadedAt time.Time `json:"loaded_at"`
}

// CachedArtifact is the persisted cache record for an artifact.
type CachedArtifact struct {
	// Meta is the descriptor snapshot taken at cache time.
	Meta Metadata `json:"metadata"`

	// Data is the raw payload.
	Data []byte `json:"data"`

	// CachedAt is when the record was first written.
	CachedAt time.Time `json:"cached_at"`

	// LastAccessed is updated on every cache hit.
	LastAccessed time.Time `json:"last_accessed"`

	// AccessCount is incremented on every cache hit.
	AccessCount int64 `json:"access_count"`
}

// HealthStatus is a census over all registered artifact statuses.
type HealthStatus struct {
	// Healthy counts artifacts that are loaded or idle without error.
	Healthy int `json:"healthy"`

	// Loading counts artifacts with a load in flight.
	Loading int `json:"loading"`

	// Failed counts artifacts whose last load recorded an error.
	Failed int `json:"failed"`

	// Total is the number of registered artifacts.
	Total int `json:"total"`
}

// MemoryUsage approximates memory held by loaded artifacts, summing declared
// metadata sizes rather than probing live allocations.
type MemoryUsage struct {
	// TotalBytes is the sum over all loaded artifacts.
	TotalBytes uint64 `json:"total"`

	// ByModel breaks the total down per artifact id.
	ByModel map[ArtifactID]uint64 `json:"by_model"`
}

// CacheStats summarizes the persistent cache contents.
type CacheStats struct {
	// TotalModels is the number of cached records.
	TotalModels int `json:"total_models"`

	// TotalSize is the payload byte sum of all records.
	TotalSize uint64 `json:"total_size"`

	// OldestCache is the earliest CachedAt among records.
	OldestCache time.Time `json:"oldest_cache,omitzero"`

	// NewestCache is the latest CachedAt among records.
	NewestCache time.Time `json:"newest_cache,omitzero"`
}

// CacheUsage reports storage consumption against the configured quota.
// All fields are zero when the store cannot report usage; that is not an
// error condition.
type CacheUsage struct {
	// Used is the bytes consumed by the store.
	Used uint64 `json:"used"`

	// Quota is the configured storage budget.
	Quota uint64 `json:"quota"`

	// Percentage is Used/Quota*100, zero when Quota is zero.
	Percentage float64 `json:"percentage"`
}
