// Package cache stores lz4-compressed snapshots of device attendance logs
// on disk, keyed by device serial number. The "logs-all" command writes a
// snapshot after each full download; it does not read one back, so every
// run downloads the full log again.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

// Entry is one cached attendance snapshot, keyed by device serial number.
type Entry struct {
	SerialNumber string    `json:"serial_number"`
	FetchedAt    time.Time `json:"fetched_at"`
	Records      []byte    `json:"records"` // caller-defined serialization (e.g. JSON-encoded []rbzk.Attendance)
}

// Dir returns the cache directory, honoring $XDG_CACHE_HOME and falling
// back to $HOME/.cache/rbzk.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "rbzk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(home, ".cache", "rbzk"), nil
}

func pathFor(dir, serialNumber string) string {
	return filepath.Join(dir, serialNumber+".lz4")
}

// Save lz4-compresses and writes e to the cache directory, creating it if
// necessary.
func Save(e Entry) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("compress cache entry: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush cache entry: %w", err)
	}

	return os.WriteFile(pathFor(dir, e.SerialNumber), buf.Bytes(), 0o644)
}

// Load reads and decompresses the cached entry for serialNumber. It returns
// os.ErrNotExist (wrapped) if no cache entry exists yet.
func Load(serialNumber string) (Entry, error) {
	dir, err := Dir()
	if err != nil {
		return Entry{}, err
	}

	f, err := os.Open(pathFor(dir, serialNumber))
	if err != nil {
		return Entry{}, fmt.Errorf("open cache entry: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return Entry{}, fmt.Errorf("decompress cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return e, nil
}
