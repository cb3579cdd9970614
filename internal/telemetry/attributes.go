// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by memorec spans.
const (
	RegistryOpKey     = "registry.op"
	RegistryKeyKey    = "registry.key"
	RegistryCountKey  = "registry.count"
	RecordingLocKey   = "recording.location"
	CaptureHandleKey  = "capture.handle"
	CaptureBackendKey = "capture.backend"
	StoreBackendKey   = "store.backend"
	ErrorKey          = "error"
	ErrorTypeKey      = "error.type"
)

// RegistryAttributes describes a registry operation on a persisted key.
func RegistryAttributes(op, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RegistryOpKey, op),
		attribute.String(RegistryKeyKey, key),
	}
}

// RecordingAttributes describes the entry an operation touches. Empty
// values are omitted.
func RecordingAttributes(location string, count int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if location != "" {
		attrs = append(attrs, attribute.String(RecordingLocKey, location))
	}
	if count >= 0 {
		attrs = append(attrs, attribute.Int(RegistryCountKey, count))
	}
	return attrs
}

// CaptureAttributes describes a capture session.
func CaptureAttributes(handle, backend string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if handle != "" {
		attrs = append(attrs, attribute.String(CaptureHandleKey, handle))
	}
	if backend != "" {
		attrs = append(attrs, attribute.String(CaptureBackendKey, backend))
	}
	return attrs
}

// ErrorAttributes marks a span as failed with a short error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
