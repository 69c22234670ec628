// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered is returned when an operation names an unknown
	// artifact id. A caller error; the operation is not retried.
	ErrNotRegistered = errors.New("artifact not registered")

	// ErrUnsupportedFormat is returned when metadata carries a format no
	// loading strategy exists for. Fatal for that artifact until the
	// metadata is corrected.
	ErrUnsupportedFormat = errors.New("unsupported artifact format")

	// ErrLoadTimeout is returned when a wait for an in-flight load exceeds
	// its budget. The underlying load may still complete later.
	ErrLoadTimeout = errors.New("artifact load wait timed out")

	// ErrChecksumMismatch is returned when a downloaded payload does not
	// match the declared checksum. Treated as a load failure (retryable).
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")
)

// LoadError wraps a network or decode failure during artifact loading.
// It is retryable: a subsequent load call starts from scratch.
type LoadError struct {
	ID  ArtifactID
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load artifact %q: %v", e.ID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }
