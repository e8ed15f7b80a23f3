package library

import (
	"context"
	"io"
	"os"

	"mediatree/internal/media"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// File is a media file leaf.
type File struct {
	path   string
	prober media.Prober
}

func (f *File) Kind() string   { return "file" }
func (f *File) IsFolder() bool { return false }

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Resolve probes the file.
func (f *File) Resolve(ctx context.Context, _ *resource.Node) (*media.Metadata, error) {
	if f.prober == nil {
		return &media.Metadata{MimeType: media.MimeType(f.path)}, nil
	}
	md, err := f.prober.Probe(ctx, f.path)
	if err != nil {
		return nil, err
	}
	if md.MimeType == "" {
		clone := *md
		clone.MimeType = media.MimeType(f.path)
		md = &clone
	}
	return md, nil
}

// Open opens the file for reading.
func (f *File) Open(_ context.Context, _ *resource.Node) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "library", "open", f.path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "library", "open", f.path, err)
	}
	return file, nil
}
