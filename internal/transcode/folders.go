package transcode

import (
	"context"
	"fmt"
	"time"

	"mediatree/internal/media"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// FolderPrefix marks the synthetic container listing a source's variants.
const FolderPrefix = "#--TRANSCODE--#"

// Folder is the container whose children are the variants of one source.
type Folder struct {
	generator *Generator
	source    *resource.Node
}

// NewFolder returns the provider for source's transcode folder.
func NewFolder(generator *Generator, source *resource.Node) *Folder {
	return &Folder{generator: generator, source: source}
}

// FolderName returns the display name for the transcode folder of a file.
func FolderName(sourceName string) string {
	return FolderPrefix + " " + sourceName
}

func (f *Folder) Kind() string   { return "transcode-folder" }
func (f *Folder) IsFolder() bool { return true }

// Source returns the node whose variants the folder lists.
func (f *Folder) Source() *resource.Node { return f.source }

// Discover generates the variants of the source.
func (f *Folder) Discover(ctx context.Context, _ *resource.Node) ([]*resource.Node, error) {
	return f.generator.Generate(ctx, f.source)
}

// RefreshNeeded follows the source file.
func (f *Folder) RefreshNeeded(_ *resource.Node, since time.Time) bool {
	return f.source.LastModified().After(since)
}

// ChapterFolder lists fixed-interval split-range duplicates of one variant.
type ChapterFolder struct {
	variant  *resource.Node
	interval time.Duration
}

func (c *ChapterFolder) Kind() string   { return "chapter-folder" }
func (c *ChapterFolder) IsFolder() bool { return true }

// Resolve reads the full duration from the variant, resolving it first if
// it has not been probed yet.
func (c *ChapterFolder) Resolve(ctx context.Context, _ *resource.Node) (*media.Metadata, error) {
	if err := c.variant.Resolve(ctx); err != nil {
		return nil, err
	}
	md := c.variant.Metadata()
	if md == nil {
		return nil, services.Wrap(services.ErrProbe, "transcode", "chapters", "variant has no metadata", nil)
	}
	return md, nil
}

// Discover derives one open-ended chapter per interval and closes the ranges
// against the variant's duration.
func (c *ChapterFolder) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	if err := n.Resolve(ctx); err != nil {
		return nil, err
	}
	total := n.Duration()
	if total <= c.interval || c.interval <= 0 {
		return nil, nil
	}
	tree := n.Tree()
	count := int((total + c.interval - 1) / c.interval)
	children := make([]*resource.Node, 0, count)
	for i := range count {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		start := time.Duration(i) * c.interval
		child, err := tree.Derive(c.variant, resource.DeriveOptions{
			Name:  chapterName(i+1, start),
			Split: &resource.SplitRange{Start: start, End: resource.OpenEnd},
		})
		if err != nil {
			return children, err
		}
		children = append(children, child)
	}
	resource.ResolveSplitEnds(children, total)
	return children, nil
}

func chapterName(index int, start time.Duration) string {
	h := int(start / time.Hour)
	m := int(start/time.Minute) % 60
	s := int(start/time.Second) % 60
	return fmt.Sprintf("Chapter %02d [%02d:%02d:%02d]", index, h, m, s)
}
