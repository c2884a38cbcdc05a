// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package logging

import (
	"bytes"
	"context"
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
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{}) // restore defaults for other tests

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected structured field in output, got %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestCtx_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(Config{})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	Ctx(ctx).Info().Msg("with id")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("expected request_id in output, got %s", buf.String())
	}
}

func TestCtx_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(Config{})

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("did not expect request_id in output, got %s", buf.String())
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty request ID, got %q", id)
	}
}
