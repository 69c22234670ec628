// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testMeta(id ArtifactID, url string) Metadata {
	return Metadata{
		ID:        id,
		Name:      "test artifact",
		Version:   "1.0.0",
		SizeBytes: 64,
		Format:    FormatONNX,
		SourceURL: url,
	}
}

func checksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestLoaderDownload(t *testing.T) {
	payload := []byte("model weights payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	loader := NewLoader(LoaderConfig{}, zerolog.Nop())
	meta := testMeta("dl-1", srv.URL)
	meta.Checksum = checksumOf(payload)

	artifact, err := loader.Load(context.Background(), meta, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(artifact.Data) != string(payload) {
		t.Errorf("payload mismatch: %q", artifact.Data)
	}
	if artifact.Meta.ID != "dl-1" {
		t.Errorf("artifact meta id = %s", artifact.Meta.ID)
	}
	if artifact.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestLoaderChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tampered payload"))
	}))
	defer srv.Close()

	loader := NewLoader(LoaderConfig{}, zerolog.Nop())
	meta := testMeta("bad-sum", srv.URL)
	meta.Checksum = checksumOf([]byte("expected payload"))

	_, err := loader.Load(context.Background(), meta, nil)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load error = %v, want ErrChecksumMismatch", err)
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.ID != "bad-sum" {
		t.Errorf("error should be a LoadError for bad-sum, got %v", err)
	}
}

func TestLoaderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := NewLoader(LoaderConfig{}, zerolog.Nop())
	_, err := loader.Load(context.Background(), testMeta("srv-err", srv.URL), nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	loader := NewLoader(LoaderConfig{}, zerolog.Nop())
	meta := testMeta("weird", "")
	meta.Format = FormatUnknown

	_, err := loader.Load(context.Background(), meta, nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoaderLocalInstantiation(t *testing.T) {
	loader := NewLoader(LoaderConfig{}, zerolog.Nop())

	first, err := loader.Load(context.Background(), testMeta("local-1", ""), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(first.Data) == 0 {
		t.Fatal("local artifact has empty payload")
	}

	second, err := loader.Load(context.Background(), testMeta("local-1", ""), nil)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if string(first.Data) != string(second.Data) {
		t.Error("local instantiation is not deterministic")
	}
}

func TestLoaderProgressContract(t *testing.T) {
	payload := make([]byte, 2<<20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	loader := NewLoader(LoaderConfig{}, zerolog.Nop())

	var mu sync.Mutex
	var reported []float64
	_, err := loader.Load(context.Background(), testMeta("prog-1", srv.URL), func(f float64) {
		mu.Lock()
		reported = append(reported, f)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] <= reported[i-1] {
			t.Errorf("progress not strictly increasing at %d: %f then %f", i, reported[i-1], reported[i])
		}
	}
	if last := reported[len(reported)-1]; last != 1.0 {
		t.Errorf("terminal progress = %f, want 1.0", last)
	}
}

func TestLoaderCoalescesConcurrentLoads(t *testing.T) {
	var requests int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requests, 1)
		<-release
		_, _ = w.Write([]byte("shared payload"))
	}))
	defer srv.Close()

	loader := NewLoader(LoaderConfig{}, zerolog.Nop())
	meta := testMeta("shared", srv.URL)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Artifact, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = loader.Load(context.Background(), meta, nil)
		}(i)
	}

	// Give every goroutine time to join the in-flight load.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("server saw %d requests, want 1 coalesced fetch", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d error: %v", i, errs[i])
		}
		if results[i] == nil || string(results[i].Data) != "shared payload" {
			t.Errorf("caller %d got wrong artifact", i)
		}
	}
}

func TestProgressTracker(t *testing.T) {
	var got []float64
	p := newProgressTracker(func(f float64) { got = append(got, f) })

	p.Report(0.2)
	p.Report(0.1) // regression, dropped
	p.Report(0.2) // duplicate, dropped
	p.Report(0.8)
	p.Report(1.5) // clamped below 1, beats 0.8
	p.Complete()
	p.Report(0.9) // after completion, dropped
	p.Complete()  // second terminal, dropped

	want := []float64{0.2, 0.8, 0.999, 1.0}
	if len(got) != len(want) {
		t.Fatalf("reported %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestProgressTrackerNilCallback(t *testing.T) {
	p := newProgressTracker(nil)
	p.Report(0.5)
	p.Complete()
}
