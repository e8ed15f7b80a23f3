package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	w := zip.NewWriter(f)
	for name, body := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, body); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
	return path
}

func testOptions(seekMax int64) Options {
	return Options{
		Extensions: map[string]struct{}{"mkv": {}, "mp3": {}},
		SeekMax:    seekMax,
	}
}

func discover(t *testing.T, archivePath string, opts Options) (*resource.Tree, []*resource.Node) {
	t.Helper()
	tree := resource.NewTree(nil, nil)
	folder := NewFolderNode(tree, archivePath, opts)
	if err := folder.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("DiscoverChildren: %v", err)
	}
	return tree, folder.Children()
}

func TestFolderListsMediaEntriesInNaturalOrder(t *testing.T) {
	path := writeZip(t, map[string]string{
		"ep10.mkv":      "ten",
		"ep2.mkv":       "two",
		"notes.txt":     "skip me",
		"music/one.mp3": "song",
	})
	_, children := discover(t, path, testOptions(1<<20))

	var names []string
	for _, c := range children {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "ep2.mkv,ep10.mkv,music/one.mp3" {
		t.Fatalf("unexpected entries %v", names)
	}
	first := children[0]
	if !first.Resolved() || first.Metadata().Size != 3 || first.Metadata().MimeType != "video/x-matroska" {
		t.Fatalf("unexpected entry metadata %+v", first.Metadata())
	}
}

func TestEntryPushStreamsBytes(t *testing.T) {
	payload := strings.Repeat("frame", 10000)
	path := writeZip(t, map[string]string{"movie.mkv": payload})
	_, children := discover(t, path, testOptions(1))

	rc, err := children[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(data, []byte(payload)) {
		t.Fatalf("payload mismatch: got %d bytes", len(data))
	}
	if children[0].Seekable() {
		t.Fatal("entry above the seek budget must be forward-only")
	}
}

func TestEntrySeekableWithinBudget(t *testing.T) {
	path := writeZip(t, map[string]string{"small.mp3": "abc"})
	_, children := discover(t, path, testOptions(1024))
	if !children[0].Seekable() {
		t.Fatal("expected small entry to be seekable")
	}
}

func TestEntryOpenWithinBudgetSupportsSeeking(t *testing.T) {
	path := writeZip(t, map[string]string{"clip.mkv": "0123456789"})
	_, children := discover(t, path, testOptions(1024))

	rc, err := children[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	seeker, ok := rc.(io.ReadSeeker)
	if !ok {
		t.Fatalf("expected a seekable body, got %T", rc)
	}
	if _, err := seeker.Seek(6, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	tail, err := io.ReadAll(seeker)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(tail) != "6789" {
		t.Fatalf("unexpected tail %q", tail)
	}
}

func TestEntryOpenAboveBudgetIsForwardOnly(t *testing.T) {
	path := writeZip(t, map[string]string{"clip.mkv": "0123456789"})
	_, children := discover(t, path, testOptions(4))

	rc, err := children[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if _, ok := rc.(io.Seeker); ok {
		t.Fatalf("expected a forward-only body, got %T", rc)
	}
}

func TestEntryExtractRejectsDataBeyondLimit(t *testing.T) {
	path := writeZip(t, map[string]string{"clip.mkv": "0123456789"})
	entry := &Entry{archive: path, name: "clip.mkv", logger: logging.NewNop()}

	var buf bytes.Buffer
	if err := entry.extract(context.Background(), &buf, 4); !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	buf.Reset()
	if err := entry.extract(context.Background(), &buf, 10); err != nil {
		t.Fatalf("extract at limit: %v", err)
	}
	if buf.String() != "0123456789" {
		t.Fatalf("unexpected data %q", buf.String())
	}
}

type recordingSink struct {
	bytes.Buffer
	closed   int
	closeErr error
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func (s *recordingSink) CloseWithError(err error) error {
	s.closeErr = err
	return s.Close()
}

func TestEntryWorkerClosesSinkOnFailure(t *testing.T) {
	path := writeZip(t, map[string]string{"movie.mkv": "data"})
	entry := &Entry{archive: path, name: "missing.mkv", logger: logging.NewNop()}

	sink := &recordingSink{}
	entry.stream(context.Background(), sink)
	if sink.closed != 1 {
		t.Fatalf("expected sink closed once, got %d", sink.closed)
	}
	if !errors.Is(sink.closeErr, services.ErrExtraction) {
		t.Fatalf("expected extraction error on sink, got %v", sink.closeErr)
	}
}

func TestEntryToleratesEarlyClientDisconnect(t *testing.T) {
	path := writeZip(t, map[string]string{"movie.mkv": strings.Repeat("x", 1<<20)})
	_, children := discover(t, path, testOptions(0))

	rc, err := children[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 16)
	if _, err := io.ReadFull(rc, buf); err != nil {
		t.Fatalf("read head: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sink := &recordingSink{}
	entry := children[0].Provider().(*Entry)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entry.stream(ctx, sink)
	if sink.closed != 1 || sink.closeErr != nil {
		t.Fatalf("canceled stream should close cleanly, closed=%d err=%v", sink.closed, sink.closeErr)
	}
}

func TestNewEntryNode(t *testing.T) {
	path := writeZip(t, map[string]string{"a.mkv": "a"})
	tree := resource.NewTree(nil, nil)
	n, err := NewEntryNode(tree, path, "a.mkv", testOptions(10))
	if err != nil {
		t.Fatalf("NewEntryNode: %v", err)
	}
	if got := n.Provider().(*Entry).Payload(); got != path+PayloadSeparator+"a.mkv" {
		t.Fatalf("unexpected payload %q", got)
	}
	if _, err := NewEntryNode(tree, path, "b.mkv", testOptions(10)); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
