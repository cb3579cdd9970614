// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{name: "nil context", ctx: nil, id: "req-123"},
		{name: "background context", ctx: context.Background(), id: "req-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.id)
			if got := RequestIDFromContext(ctx); got != tt.id {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.id)
			}
		})
	}
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "nil context", ctx: nil},
		{name: "context without request ID", ctx: context.Background()},
		{name: "context with wrong type", ctx: context.WithValue(context.Background(), requestIDKey, 123)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestIDFromContext(tt.ctx); got != "" {
				t.Errorf("RequestIDFromContext() = %q, want empty", got)
			}
		})
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	l := WithContext(ctx, base)
	l.Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v, want req-1", line[FieldRequestID])
	}
	if line[FieldCorrelationID] != "corr-1" {
		t.Errorf("correlation_id = %v, want corr-1", line[FieldCorrelationID])
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("plain")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := line[FieldRequestID]; ok {
		t.Error("unexpected request_id field")
	}
}

func TestFromContextFallsBackToBase(t *testing.T) {
	if l := FromContext(nil); l == nil { //nolint:staticcheck // nil context is part of the contract
		t.Fatal("FromContext(nil) returned nil")
	}
	if l := FromContext(context.Background()); l == nil {
		t.Fatal("FromContext(background) returned nil")
	}
}
