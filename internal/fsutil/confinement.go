// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil resolves recording locations to files and keeps file access
// inside the recordings directory.
package fsutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoot: the resolved path is not under the root directory.
	ErrOutsideRoot = errors.New("fsutil: path escapes root")
	// ErrNotRegular: the path exists but is not a regular file.
	ErrNotRegular = errors.New("fsutil: not a regular file")
	// ErrUnsupportedLocation: the location is neither a file:// URI nor an absolute path.
	ErrUnsupportedLocation = errors.New("fsutil: unsupported location")
)

// LocationToPath turns a recording location into an absolute filesystem
// path. Both "file:///abs/path" URIs and plain absolute paths are accepted.
func LocationToPath(location string) (string, error) {
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedLocation, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote host %q", ErrUnsupportedLocation, u.Host)
		}
		location = u.Path
	}
	if strings.Contains(location, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrUnsupportedLocation, location)
	}
	if !filepath.IsAbs(location) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocation, location)
	}
	return filepath.Clean(location), nil
}

// PathToLocation is the inverse of LocationToPath for paths the daemon creates.
func PathToLocation(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// ConfineAbsPath resolves targetAbs, following symlinks, and checks that the
// result is under the resolved root. It returns the resolved path.
func ConfineAbsPath(root, targetAbs string) (string, error) {
	if !filepath.IsAbs(targetAbs) {
		return "", fmt.Errorf("target path must be absolute: %s", targetAbs)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	realPath, err := resolve(filepath.Clean(targetAbs))
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideRoot, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, realPath)
	}
	return realPath, nil
}

// resolve follows symlinks in path. A missing final element is allowed as
// long as its parent resolves.
func resolve(path string) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		rp, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return rp, nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// IsRegularFile returns nil if path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}
