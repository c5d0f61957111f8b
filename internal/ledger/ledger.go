// Package ledger tracks which events and markets previous runs already
// covered. The ledger is not a separate store: it is reconstructed on every
// run by scanning the snapshot artifacts in the results directory, so
// deleting a snapshot file forgets its entries and nothing else has to be
// kept in sync.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

const snapshotGlob = "polyscout_*.json"

// Seen is the union of event and market ids found across all snapshots.
type Seen struct {
	Events  map[string]struct{}
	Markets map[string]struct{}
}

// HasEvent reports whether the event appeared in any prior snapshot.
func (s *Seen) HasEvent(id string) bool {
	_, ok := s.Events[id]
	return ok
}

// Ledger reads and writes snapshot artifacts under a results directory.
type Ledger struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Ledger {
	return &Ledger{
		dir:    dir,
		logger: logger.With(slog.String("component", "ledger")),
	}
}

// Dir returns the results directory the ledger scans and writes.
func (l *Ledger) Dir() string { return l.dir }

// Scan reads every snapshot in the results directory and returns the union
// of ids it has seen. A missing directory is an empty ledger. Files that
// cannot be read or parsed are logged and skipped; a corrupt snapshot must
// not block new runs.
func (l *Ledger) Scan() (*Seen, error) {
	seen := &Seen{
		Events:  make(map[string]struct{}),
		Markets: make(map[string]struct{}),
	}

	matches, err := filepath.Glob(filepath.Join(l.dir, snapshotGlob))
	if err != nil {
		return nil, fmt.Errorf("ledger: scan %s: %w", l.dir, err)
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable snapshot",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			l.logger.Warn("skipping malformed snapshot",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, s := range snap.Suggestions {
			if s.EventID != "" {
				seen.Events[s.EventID] = struct{}{}
			}
			if s.MarketID != "" {
				seen.Markets[s.MarketID] = struct{}{}
			}
		}
		for _, p := range snap.Processed {
			if p.EventID != "" {
				seen.Events[p.EventID] = struct{}{}
			}
			if p.MarketID != "" {
				seen.Markets[p.MarketID] = struct{}{}
			}
		}
	}

	if len(seen.Events) > 0 {
		l.logger.Info("loaded previously analyzed ids",
			slog.Int("events", len(seen.Events)),
			slog.Int("markets", len(seen.Markets)),
			slog.Int("snapshots", len(matches)),
		)
	}
	return seen, nil
}

// WriteSnapshot persists the snapshot atomically: the JSON is written to a
// temp file in the same directory and renamed into place, so the scanner
// never observes a partially written artifact. Write failures are returned
// to the caller; a run whose snapshot cannot be persisted must not count as
// analyzed.
func (l *Ledger) WriteSnapshot(snap *domain.Snapshot) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("ledger: create results dir: %w", err)
	}

	name := fmt.Sprintf("polyscout_%s.json", snap.Timestamp.UTC().Format("20060102_150405"))
	path := filepath.Join(l.dir, name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ledger: marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("ledger: create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ledger: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ledger: close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ledger: rename snapshot: %w", err)
	}

	l.logger.Info("snapshot written",
		slog.String("path", path),
		slog.Int("suggestions", snap.TotalSuggestions),
		slog.Int("processed", len(snap.Processed)),
	)
	return path, nil
}

// NewSnapshot stamps a snapshot for the given run.
func NewSnapshot(runID string, suggestions []domain.Suggestion, processed []domain.ProcessedMarket) *domain.Snapshot {
	return &domain.Snapshot{
		RunID:            runID,
		Timestamp:        time.Now().UTC(),
		TotalSuggestions: len(suggestions),
		Suggestions:      suggestions,
		Processed:        processed,
	}
}

// ErrNoSnapshots is returned by Latest when the directory holds none.
var ErrNoSnapshots = errors.New("ledger: no snapshots found")

// Latest returns the path of the most recent snapshot by filename, which
// sorts chronologically because of the timestamp format.
func (l *Ledger) Latest() (string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, snapshotGlob))
	if err != nil {
		return "", fmt.Errorf("ledger: scan %s: %w", l.dir, err)
	}
	if len(matches) == 0 {
		return "", ErrNoSnapshots
	}
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}
