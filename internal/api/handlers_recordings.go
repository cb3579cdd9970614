// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ManuGH/memorec/internal/fsutil"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/recordings"
)

// GET /api/v1/recordings?q=
func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Search(r.URL.Query().Get("q")))
}

// POST /api/v1/recordings
func (s *Server) handleAddRecording(w http.ResponseWriter, r *http.Request) {
	var intent recordings.Intent
	if !decodeJSON(w, r, &intent) {
		return
	}
	entry, err := s.registry.Add(r.Context(), intent)
	if err != nil {
		writeServiceError(w, r, err, &entry)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DELETE /api/v1/recordings?location=
func (s *Server) handleRemoveRecording(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "invalid_location", "location query parameter is required")
		return
	}
	entry, err := s.registry.Remove(r.Context(), location)
	if err != nil {
		writeServiceError(w, r, err, &entry)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// POST /api/v1/recordings/sync
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Sync(r.Context()); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/recordings/audio?location=
//
// Streams the audio of a registered entry. Only files under the recordings
// directory are served.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	entry, ok := s.registry.Lookup(location)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no recording with that location")
		return
	}

	path, err := fsutil.LocationToPath(entry.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_location", err.Error())
		return
	}
	realPath, err := fsutil.ConfineAbsPath(s.cfg.RecordingsDir, path)
	if err != nil {
		if errors.Is(err, fsutil.ErrOutsideRoot) {
			logger := xglog.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(xglog.FieldEvent, "api.audio_outside_root").
				Str(xglog.FieldLocation, entry.Location).
				Msg("refusing to serve file outside recordings dir")
			writeError(w, http.StatusForbidden, "forbidden", "recording is outside the recordings directory")
			return
		}
		writeError(w, http.StatusNotFound, "file_missing", "recording file does not exist")
		return
	}
	if err := fsutil.IsRegularFile(realPath); err != nil {
		writeError(w, http.StatusNotFound, "file_missing", "recording file does not exist")
		return
	}

	f, err := os.Open(realPath) // #nosec G304 -- confined to RecordingsDir above
	if err != nil {
		writeError(w, http.StatusNotFound, "file_missing", "recording file does not exist")
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("inline", map[string]string{"filename": entry.Name + filepath.Ext(realPath)}))
	http.ServeContent(w, r, realPath, info.ModTime(), f)
}
