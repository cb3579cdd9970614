// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/memorec/internal/account"
	"github.com/ManuGH/memorec/internal/capture"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/recorder"
	"github.com/ManuGH/memorec/internal/recordings"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// errorBody is the JSON error envelope. SavedLocally and Entry are only set
// when a recordings mutation was applied in memory but not persisted.
type errorBody struct {
	Error        string            `json:"error"`
	Detail       string            `json:"detail,omitempty"`
	SavedLocally bool              `json:"savedLocally,omitempty"`
	Entry        *recordings.Entry `json:"entry,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, detail string) {
	writeJSON(w, code, errorBody{Error: errCode, Detail: detail})
}

// decodeJSON reads a bounded JSON body into dst. It writes the 400 response
// itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", fmt.Sprintf("request body: %v", err))
		return false
	}
	return true
}

// statusFor maps a service error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, recordings.ErrInvalidLocation):
		return http.StatusBadRequest, "invalid_location"
	case errors.Is(err, recordings.ErrDuplicateLocation):
		return http.StatusConflict, "duplicate_location"
	case errors.Is(err, recordings.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, recordings.ErrPersistence):
		return http.StatusInternalServerError, "persistence_failed"
	case errors.Is(err, recordings.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"

	case errors.Is(err, account.ErrMissingFields), errors.Is(err, account.ErrPasswordTooLong):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, account.ErrNoAccount):
		return http.StatusNotFound, "no_account"
	case errors.Is(err, account.ErrUnknownUser):
		return http.StatusNotFound, "unknown_user"

	case errors.Is(err, recorder.ErrAlreadyRecording):
		return http.StatusConflict, "already_recording"
	case errors.Is(err, recorder.ErrNotRecording):
		return http.StatusConflict, "not_recording"
	case errors.Is(err, capture.ErrNoOutput):
		return http.StatusInternalServerError, "capture_failed"

	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeServiceError answers with the mapped status. entry is echoed for
// persistence failures so the client knows what is held in memory.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, entry *recordings.Entry) {
	code, errCode := statusFor(err)
	body := errorBody{Error: errCode, Detail: err.Error()}
	if errors.Is(err, recordings.ErrPersistence) {
		var pe *recordings.PersistenceError
		if errors.As(err, &pe) && pe.Mutated {
			body.SavedLocally = true
			body.Entry = entry
		}
	}
	if code >= http.StatusInternalServerError {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "api.request_failed").
			Str(xglog.FieldPath, r.URL.Path).
			Str("code", errCode).
			Msg("request failed")
		if body.Error == "internal" {
			body.Detail = "an unexpected error occurred"
		}
	}
	writeJSON(w, code, body)
}
