// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
)

type stopRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCaptureStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recorder.Status())
}

func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Start(r.Context()); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.recorder.Status())
}

// POST /api/v1/capture/stop with an optional {"name": "..."} body.
func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.recorder.Stop(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err, &entry)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
