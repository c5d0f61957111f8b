package s3blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testBucket = "polyscout-results"

// fakeS3 is a minimal S3-compatible server: path-style object PUT/GET/HEAD
// plus ListObjectsV2, enough to drive the archiver against the real SDK.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func (f *fakeS3) keys(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2" {
		f.serveList(w, r.URL.Query().Get("prefix"))
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/"+testBucket+"/")
	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		f.put(key, data)
	case http.MethodHead:
		if _, ok := f.get(key); !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodGet:
		data, ok := f.get(key)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) serveList(w http.ResponseWriter, prefix string) {
	keys := f.keys(prefix)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix>", testBucket, prefix)
	fmt.Fprintf(&b, "<KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys>", len(keys))
	b.WriteString("<IsTruncated>false</IsTruncated>")
	for _, k := range keys {
		data, _ := f.get(k)
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size>", k, len(data))
		b.WriteString("<LastModified>2026-08-01T12:00:00.000Z</LastModified></Contents>")
	}
	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, b.String())
}

func testArchiver(t *testing.T) (*Archiver, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), ClientConfig{
		Endpoint:       srv.URL,
		Region:         "us-east-1",
		Bucket:         testBucket,
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewArchiver(client, "snapshots", testLogger()), fake
}

func testSnapshot(stamp time.Time) (*domain.Snapshot, string, []byte) {
	snap := &domain.Snapshot{
		RunID:     "run-1",
		Timestamp: stamp,
		Processed: []domain.ProcessedMarket{{EventID: "e1", MarketID: "m1"}},
	}
	name := fmt.Sprintf("polyscout_%s.json", stamp.UTC().Format("20060102_150405"))
	data, _ := json.MarshalIndent(snap, "", "  ")
	return snap, name, data
}

func TestArchiveSnapshot(t *testing.T) {
	a, fake := testArchiver(t)
	stamp := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	snap, name, _ := testSnapshot(stamp)

	key, err := a.ArchiveSnapshot(context.Background(), snap, filepath.Join("results", name))
	if err != nil {
		t.Fatalf("ArchiveSnapshot: %v", err)
	}
	want := "snapshots/2026/08/" + name
	if key != want {
		t.Errorf("key = %q, want %q", key, want)
	}

	data, ok := fake.get(want)
	if !ok {
		t.Fatal("object not uploaded")
	}
	var got domain.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("uploaded body: %v", err)
	}
	if got.RunID != "run-1" || len(got.Processed) != 1 {
		t.Errorf("uploaded snapshot = %+v", got)
	}
}

func TestBackfillUploadsOnlyMissing(t *testing.T) {
	a, fake := testArchiver(t)
	dir := t.TempDir()

	stampA := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stampB := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	_, nameA, dataA := testSnapshot(stampA)
	_, nameB, dataB := testSnapshot(stampB)

	for name, data := range map[string][]byte{nameA: dataA, nameB: dataB} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// The first snapshot is already archived; only the second should upload.
	fake.put("snapshots/2026/08/"+nameA, dataA)

	uploaded, err := a.Backfill(context.Background(), dir)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if uploaded != 1 {
		t.Errorf("uploaded = %d, want 1", uploaded)
	}
	if _, ok := fake.get("snapshots/2026/08/" + nameB); !ok {
		t.Error("missing snapshot was not uploaded")
	}
}

func TestRestoreDownloadsOnlyMissing(t *testing.T) {
	a, fake := testArchiver(t)
	dir := t.TempDir()

	stampA := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stampB := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	_, nameA, dataA := testSnapshot(stampA)
	_, nameB, dataB := testSnapshot(stampB)

	fake.put("snapshots/2026/08/"+nameA, dataA)
	fake.put("snapshots/2026/08/"+nameB, dataB)

	// The first snapshot is already local; only the second should download.
	if err := os.WriteFile(filepath.Join(dir, nameA), dataA, 0o644); err != nil {
		t.Fatalf("write %s: %v", nameA, err)
	}

	restored, err := a.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}

	data, err := os.ReadFile(filepath.Join(dir, nameB))
	if err != nil {
		t.Fatalf("restored file: %v", err)
	}
	var got domain.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("restored body: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("restored snapshot = %+v", got)
	}
}

func TestRestoreEmptyBucket(t *testing.T) {
	a, _ := testArchiver(t)

	restored, err := a.Restore(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored != 0 {
		t.Errorf("restored = %d, want 0", restored)
	}
}
