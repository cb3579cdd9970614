// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package daemon

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/memorec/internal/fsutil"
)

const fakeRecorderScript = `trap 'exit 0' INT TERM; echo audio > "$1"; while :; do sleep 0.05; done`

func TestBootstrap_ActiveCaptureSavedOnShutdown(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{"MEMOREC_CAPTURE_STOP_GRACE": "2s"})
	cfg.CaptureCommand = []string{"sh", "-c", fakeRecorderScript, "sh", "{output}"}

	app := startApp(t, cfg)
	resp, err := http.Post(app.base+"/api/v1/capture/start", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		files, _ := filepath.Glob(filepath.Join(cfg.RecordingsDir, "*."+cfg.CaptureExtension))
		return len(files) == 1
	}, 5*time.Second, 20*time.Millisecond)

	app.stop(t)

	var stored []map[string]string
	require.NoError(t, json.Unmarshal([]byte(readStoredEntries(t, cfg)), &stored))
	require.Len(t, stored, 1)
	assert.Contains(t, stored[0]["name"], "Recording - ")

	path, err := fsutil.LocationToPath(stored[0]["uri"])
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio\n", string(data))
}
