package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/resource"
	"mediatree/internal/services"
	"mediatree/internal/textutil"
)

// PayloadSeparator joins the archive path and entry name in list payloads.
const PayloadSeparator = "::"

// Options configures archive containers.
type Options struct {
	Extensions map[string]struct{}
	SeekMax    int64
	Logger     *slog.Logger
}

// Folder lists the media entries of one zip file.
type Folder struct {
	path string
	opts Options
}

// NewFolderNode returns an unregistered container for the archive at path.
func NewFolderNode(tree *resource.Tree, archivePath string, opts Options) *resource.Node {
	opts.Logger = logging.NewComponentLogger(opts.Logger, "archive")
	n := tree.NewNode(&Folder{path: archivePath, opts: opts}, filepath.Base(archivePath))
	if info, err := os.Stat(archivePath); err == nil {
		n.SetLastModified(info.ModTime())
	}
	return n
}

func (f *Folder) Kind() string   { return "zip" }
func (f *Folder) IsFolder() bool { return true }

// Discover lists the archive's media entries in natural order.
func (f *Folder) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	r, err := zip.OpenReader(f.path)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "archive", "open", f.path, err)
	}
	defer r.Close()

	tree := n.Tree()
	var children []*resource.Node
	for _, file := range sortedFiles(r.File) {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		if file.FileInfo().IsDir() || !f.wanted(file.Name) {
			continue
		}
		entry := &Entry{
			archive: f.path,
			name:    file.Name,
			size:    int64(file.UncompressedSize64),
			seekMax: f.opts.SeekMax,
			logger:  f.opts.Logger,
		}
		child := tree.NewNode(entry, file.Name)
		child.SetLastModified(file.Modified)
		children = append(children, child)
	}
	return children, nil
}

// RefreshNeeded follows the archive file's mtime.
func (f *Folder) RefreshNeeded(_ *resource.Node, since time.Time) bool {
	info, err := os.Stat(f.path)
	return err != nil || info.ModTime().After(since)
}

func (f *Folder) wanted(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	_, ok := f.opts.Extensions[ext]
	return ok
}

func sortedFiles(files []*zip.File) []*zip.File {
	out := append([]*zip.File(nil), files...)
	slices.SortFunc(out, func(a, b *zip.File) int { return textutil.NaturalCompare(a.Name, b.Name) })
	return out
}

// Entry is one archived file exposed as a push-stream leaf.
type Entry struct {
	archive string
	name    string
	size    int64
	seekMax int64
	logger  *slog.Logger
}

// NewEntryNode returns an unregistered leaf for name inside archivePath.
func NewEntryNode(tree *resource.Tree, archivePath, name string, opts Options) (*resource.Node, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "archive", "open", archivePath, err)
	}
	defer r.Close()
	for _, file := range r.File {
		if file.Name == name {
			entry := &Entry{
				archive: archivePath,
				name:    name,
				size:    int64(file.UncompressedSize64),
				seekMax: opts.SeekMax,
				logger:  logging.NewComponentLogger(opts.Logger, "archive"),
			}
			return tree.NewNode(entry, name), nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "archive", "lookup", fmt.Sprintf("%s in %s", name, archivePath), nil)
}

func (e *Entry) Kind() string   { return "zip-entry" }
func (e *Entry) IsFolder() bool { return false }

// Archive returns the containing archive path.
func (e *Entry) Archive() string { return e.archive }

// Name returns the stored entry path.
func (e *Entry) Name() string { return e.name }

// Payload renders the entry for persisted lists.
func (e *Entry) Payload() string { return e.archive + PayloadSeparator + e.name }

// Resolve describes the entry from its header without decompressing it.
func (e *Entry) Resolve(context.Context, *resource.Node) (*media.Metadata, error) {
	return &media.Metadata{
		Container: strings.ToLower(strings.TrimPrefix(path.Ext(e.name), ".")),
		MimeType:  media.MimeType(e.name),
		Size:      e.size,
		Title:     textutil.TitleFromFileName(path.Base(e.name)),
	}, nil
}

// Seekable reports whether the entry fits the seek budget.
func (e *Entry) Seekable(*resource.Node) bool {
	return e.seekMax > 0 && e.size <= e.seekMax
}

// Open buffers an entry within the seek budget so range requests can be
// served from memory. Larger entries stream through the push worker.
func (e *Entry) Open(ctx context.Context, n *resource.Node) (io.ReadCloser, error) {
	if !e.Seekable(n) {
		pr, pw := io.Pipe()
		e.Push(ctx, n, pw)
		return pr, nil
	}
	var buf bytes.Buffer
	buf.Grow(int(e.size))
	if err := e.extract(ctx, &buf, e.seekMax); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, e.fail(err, "request fails before any bytes are sent")
	}
	return bufferedEntry{bytes.NewReader(buf.Bytes())}, nil
}

// Push starts the worker that streams the entry into sink.
func (e *Entry) Push(ctx context.Context, _ *resource.Node, sink io.WriteCloser) {
	go e.stream(ctx, sink)
}

func (e *Entry) stream(ctx context.Context, sink io.WriteCloser) {
	var streamErr error
	defer func() {
		if streamErr != nil {
			if cw, ok := sink.(interface{ CloseWithError(error) error }); ok {
				_ = cw.CloseWithError(streamErr)
				return
			}
		}
		_ = sink.Close()
	}()

	err := e.extract(ctx, sink, 0)
	switch {
	case err == nil:
	case errors.Is(err, io.ErrClosedPipe), errors.Is(err, context.Canceled):
		e.logger.Debug("archive stream ended by client",
			logging.Path(e.archive),
			logging.String("entry", e.name),
		)
	default:
		streamErr = e.fail(err, "client receives a truncated transfer")
	}
}

// extract decompresses the entry into w. A positive limit rejects entries
// whose data outgrows it, whatever the header claims.
func (e *Entry) extract(ctx context.Context, w io.Writer, limit int64) error {
	r, err := zip.OpenReader(e.archive)
	if err != nil {
		return services.Wrap(services.ErrExtraction, "archive", "open archive", e.Payload(), err)
	}
	defer r.Close()

	var file *zip.File
	for _, f := range r.File {
		if f.Name == e.name {
			file = f
			break
		}
	}
	if file == nil {
		return services.Wrap(services.ErrExtraction, "archive", "locate entry", e.Payload(), os.ErrNotExist)
	}
	rc, err := file.Open()
	if err != nil {
		return services.Wrap(services.ErrExtraction, "archive", "open entry", e.Payload(), err)
	}
	defer rc.Close()

	var src io.Reader = &contextReader{ctx: ctx, r: rc}
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	written, err := io.Copy(w, src)
	if err != nil {
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExtraction, "archive", "copy entry", e.Payload(), err)
	}
	if limit > 0 && written > limit {
		return services.Wrap(services.ErrExtraction, "archive", "buffer entry", e.Payload(),
			fmt.Errorf("entry exceeds %d bytes", limit))
	}
	return nil
}

func (e *Entry) fail(err error, impact string) error {
	logging.WarnWithContext(e.logger, "archive extraction failed", "archive_extract_failed",
		logging.Path(e.archive),
		logging.String("entry", e.name),
		logging.Error(err),
		logging.String(logging.FieldImpact, impact),
		logging.String(logging.FieldErrorHint, "verify the archive with 'unzip -t'"),
	)
	return err
}

// bufferedEntry is an in-memory entry body; it satisfies io.ReadSeeker.
type bufferedEntry struct {
	*bytes.Reader
}

func (bufferedEntry) Close() error { return nil }

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
