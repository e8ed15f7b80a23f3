package media

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Tags holds the embedded audio tags used when ffprobe reports none.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// TagReader reads embedded tags from an audio file.
type TagReader interface {
	ReadTags(path string) (Tags, error)
}

// FileTagReader reads ID3, MP4, FLAC and Ogg tags.
type FileTagReader struct{}

// ReadTags opens path and parses its embedded tags.
func (FileTagReader) ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, fmt.Errorf("read tags %s: %w", path, err)
	}
	return Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}
