package metacache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediatree/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache", "metadata.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleMetadata() *media.Metadata {
	return &media.Metadata{
		Duration:    90 * time.Minute,
		VideoCodec:  "h264",
		Width:       1920,
		Height:      1080,
		AudioTracks: []media.AudioTrack{{ID: 1, Lang: "eng", Codec: "ac3", Channels: 6}},
		SubtitleTracks: []media.SubtitleTrack{
			{ID: 2, Lang: "deu", Format: "srt"},
		},
	}
}

func TestLookupRequiresMatchingMtime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mtime := time.Unix(1700000000, 123456789)

	if _, ok := store.Lookup(ctx, "/films/a.mkv", mtime); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := store.Store(ctx, "/films/a.mkv", mtime, sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	md, ok := store.Lookup(ctx, "/films/a.mkv", mtime)
	if !ok {
		t.Fatal("expected hit")
	}
	if md.Duration != 90*time.Minute || len(md.AudioTracks) != 1 || md.SubtitleTracks[0].Lang != "deu" {
		t.Fatalf("unexpected cached metadata: %+v", md)
	}
	if _, ok := store.Lookup(ctx, "/films/a.mkv", mtime.Add(time.Second)); ok {
		t.Fatal("expected miss when mtime moved")
	}
}

func TestStoreReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := time.Unix(100, 0)
	second := time.Unix(200, 0)

	if err := store.Store(ctx, "/a.mkv", first, sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Store(ctx, "/a.mkv", second, &media.Metadata{VideoCodec: "vp9"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Metadata.VideoCodec != "vp9" || !entries[0].ModTime.Equal(second) {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestCorruptRowIsDroppedAsMiss(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mtime := time.Unix(500, 0)
	if _, err := store.db.Exec(
		"INSERT INTO metadata (path, mtime_ns, payload, probed_at) VALUES (?, ?, ?, ?)",
		"/broken.mkv", mtime.UnixNano(), "{not json", time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	if _, ok := store.Lookup(ctx, "/broken.mkv", mtime); ok {
		t.Fatal("expected corrupt row to be a miss")
	}
	var count int
	if err := store.db.QueryRow("SELECT COUNT(1) FROM metadata").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected corrupt row to be deleted, %d remain", count)
	}
}

func TestSchemaMismatchRecreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Store(context.Background(), "/a.mkv", time.Unix(1, 0), sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatalf("downgrade version: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected stale rows to be dropped, got %d", len(entries))
	}
}

func TestPruneAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	kept := filepath.Join(dir, "kept.mkv")
	moved := filepath.Join(dir, "moved.mkv")
	for _, p := range []string{kept, moved} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	keptInfo, _ := os.Stat(kept)
	if err := store.Store(ctx, kept, keptInfo.ModTime(), sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Store(ctx, moved, time.Unix(1, 0), sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Store(ctx, filepath.Join(dir, "gone.mkv"), time.Unix(1, 0), sampleMetadata()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	removed, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", removed)
	}
	if _, ok := store.Lookup(ctx, kept, keptInfo.ModTime()); !ok {
		t.Fatal("expected unchanged file to stay cached")
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared row, got %d", cleared)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  ", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}
