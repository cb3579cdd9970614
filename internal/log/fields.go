// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldHandle        = "handle"
	FieldUsername      = "username"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "op"

	// Recording fields
	FieldLocation = "location"
	FieldName     = "name"
	FieldCount    = "count"

	// Storage fields
	FieldBackend = "backend"
	FieldKey     = "key"
	FieldPath    = "path"
)
