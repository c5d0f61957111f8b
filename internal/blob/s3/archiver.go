package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Archiver mirrors result snapshots into an S3-compatible bucket. Archival
// is best-effort from the pipeline's point of view: the local snapshot on
// disk remains the source of truth and a failed upload never fails a run.
type Archiver struct {
	writer *Writer
	reader *Reader
	prefix string
	logger *slog.Logger
}

// NewArchiver creates an archiver. prefix is the key prefix under which
// snapshots are stored, e.g. "snapshots".
func NewArchiver(c *Client, prefix string, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: NewWriter(c),
		reader: NewReader(c),
		prefix: prefix,
		logger: logger.With(slog.String("component", "s3archiver")),
	}
}

// key maps a local snapshot filename to its object key, partitioned by the
// snapshot timestamp so listings stay cheap as history grows.
func (a *Archiver) key(snap *domain.Snapshot, filename string) string {
	return fmt.Sprintf("%s/%s/%s", a.prefix, snap.Timestamp.UTC().Format("2006/01"), filename)
}

// ArchiveSnapshot uploads a single snapshot as JSON. The object key mirrors
// the local filename so backfills can detect already-archived runs.
func (a *Archiver) ArchiveSnapshot(ctx context.Context, snap *domain.Snapshot, localPath string) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal snapshot %s: %w", snap.RunID, err)
	}

	key := a.key(snap, filepath.Base(localPath))
	if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", err
	}

	a.logger.Info("snapshot archived",
		slog.String("key", key),
		slog.String("run_id", snap.RunID),
	)
	return key, nil
}

// Restore downloads archived snapshots that are missing from the local
// results directory. Run before Backfill on a fresh host, it rebuilds the
// ledger history from the bucket so a redeployed watcher does not re-analyze
// events its predecessor already covered.
func (a *Archiver) Restore(ctx context.Context, dir string) (int, error) {
	infos, err := a.reader.List(ctx, a.prefix+"/")
	if err != nil {
		return 0, fmt.Errorf("s3blob: restore list: %w", err)
	}
	if len(infos) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("s3blob: restore dir %s: %w", dir, err)
	}

	restored := 0
	for _, info := range infos {
		name := filepath.Base(info.Path)
		local := filepath.Join(dir, name)
		if _, err := os.Stat(local); err == nil {
			continue
		}

		body, err := a.reader.Get(ctx, info.Path)
		if err != nil {
			a.logger.Warn("restore: download failed",
				slog.String("key", info.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			a.logger.Warn("restore: read failed",
				slog.String("key", info.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return restored, fmt.Errorf("s3blob: restore write %s: %w", local, err)
		}
		restored++
	}

	if restored > 0 {
		a.logger.Info("restore complete", slog.Int("restored", restored))
	}
	return restored, nil
}

// Backfill uploads any local snapshot that is missing from the bucket.
// It is run once at startup so snapshots written while the object store was
// unreachable still make it to the archive. Individual failures are logged
// and skipped; the next start retries them.
func (a *Archiver) Backfill(ctx context.Context, dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "polyscout_*.json"))
	if err != nil {
		return 0, fmt.Errorf("s3blob: backfill scan %s: %w", dir, err)
	}

	uploaded := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			a.logger.Warn("backfill: skipping unreadable snapshot",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			a.logger.Warn("backfill: skipping malformed snapshot",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}

		key := a.key(&snap, filepath.Base(path))
		exists, err := a.reader.Exists(ctx, key)
		if err != nil {
			return uploaded, err
		}
		if exists {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			a.logger.Warn("backfill: open snapshot",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		err = a.writer.PutMultipart(ctx, key, f, 0)
		f.Close()
		if err != nil {
			a.logger.Warn("backfill: upload failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		uploaded++
	}

	if uploaded > 0 {
		a.logger.Info("backfill complete", slog.Int("uploaded", uploaded))
	}
	return uploaded, nil
}
