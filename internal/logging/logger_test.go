// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DISABLED", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: false, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("artifact", "m1").Msg("load complete")

	out := buf.String()
	if !strings.Contains(out, `"artifact":"m1"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"load complete"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestComponentChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Timestamp: false, Output: &buf})
	defer Init(DefaultConfig())

	logger := With().Str("component", "model").Logger()
	logger.Debug().Msg("registered")

	if !strings.Contains(buf.String(), `"component":"model"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestSlogHandlerRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Timestamp: false, Output: &buf})
	defer Init(DefaultConfig())

	slogger := slog.New(&SlogHandler{logger: Logger()})
	slogger.Warn("supervisor backoff", slog.String("service", "janitor"))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got %q", out)
	}
	if !strings.Contains(out, `"service":"janitor"`) {
		t.Errorf("expected attribute passthrough, got %q", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Timestamp: false, Output: &buf})
	defer Init(DefaultConfig())

	slogger := slog.New(&SlogHandler{logger: Logger()}).WithGroup("suture")
	slogger.Info("service started", slog.String("name", "http"))

	if !strings.Contains(buf.String(), `"suture.name":"http"`) {
		t.Errorf("expected group-prefixed key, got %q", buf.String())
	}
}
