// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials for remote asset fetches from a
// directory of plain-text files. Each file is one HTTP header: the filename
// is the header name and the trimmed file contents are its value.
//
// Typical files: Cookie, Authorization.
package secrets

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LoadHeaders reads all files in dir and returns them as request headers.
// A missing directory is not an error; LoadHeaders returns an empty header
// set. Unreadable files are logged and skipped.
func LoadHeaders(dir string, log *slog.Logger) (http.Header, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	headers := make(http.Header)
	if dir == "" {
		return headers, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return headers, nil
		}
		return nil, fmt.Errorf("reading headers directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read header file", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			headers.Set(name, value)
		}
	}

	return headers, nil
}

// Names returns the canonical header names in h, for logging without
// exposing values.
func Names(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	return names
}
