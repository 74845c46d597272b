// Package publish writes the aggregated snapshot artifact.
//
// Readers (the static frontend, the bot) are uncoordinated external
// processes, so the only safe discipline is write-to-temp plus atomic
// rename: they either see the previous complete snapshot or the new one,
// never a partial file.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

// SnapshotSource tags published snapshots with their producer.
const SnapshotSource = "multi-parser"

// Publisher serializes match lists to a versioned JSON artifact.
type Publisher struct {
	path string
	now  func() time.Time
}

// NewPublisher creates a publisher targeting the live artifact path.
func NewPublisher(path string) *Publisher {
	return &Publisher{path: path, now: time.Now}
}

// Publish builds the snapshot envelope, writes it to a temp file in the
// target directory and atomically replaces the previous artifact.
// Returns the published record count.
func (p *Publisher) Publish(matches []models.Match) (int, error) {
	if matches == nil {
		matches = []models.Match{}
	}

	snapshot := models.Snapshot{
		LastUpdate: p.now().UTC().Format("2006-01-02 15:04:05"),
		Source:     SnapshotSource,
		Total:      len(matches),
		Matches:    matches,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	// Temp file must live in the same directory as the target so the
	// rename stays within one filesystem and remains atomic.
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to replace snapshot: %w", err)
	}

	slog.Info("Snapshot published", "path", p.path, "matches", len(matches))
	return len(matches), nil
}
