package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/services"
)

// Cache is the persistent metadata store consulted before probing. Lookup
// must only report a hit when the stored modification time equals mtime.
type Cache interface {
	Lookup(ctx context.Context, path string, mtime time.Time) (*Metadata, bool)
	Store(ctx context.Context, path string, mtime time.Time, md *Metadata) error
}

// CachedProber consults a Cache before delegating to a Prober and stores
// fresh results back. Sidecar subtitles are attached after the cache so a
// subtitle file added later shows up without the video changing.
type CachedProber struct {
	cache  Cache
	prober Prober
	logger *slog.Logger
}

// NewCachedProber wraps prober with cache. A nil cache disables caching.
func NewCachedProber(cache Cache, prober Prober, logger *slog.Logger) *CachedProber {
	return &CachedProber{
		cache:  cache,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "probe"),
	}
}

// Probe returns cached metadata when the file is unchanged, otherwise probes.
func (c *CachedProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "probe", "stat", path, err)
		}
		return nil, services.Wrap(services.ErrProbe, "probe", "stat", path, err)
	}
	mtime := info.ModTime()
	if c.cache != nil {
		if md, ok := c.cache.Lookup(ctx, path, mtime); ok {
			return WithExternalSubtitles(md, path), nil
		}
	}
	md, err := c.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Store(ctx, path, mtime, md); err != nil {
			logging.WarnWithContext(c.logger, "metadata cache write failed", "cache_store_failed",
				logging.Path(path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file will be probed again next time"),
				logging.String(logging.FieldErrorHint, "check cache_dir permissions and free space"),
			)
		}
	}
	return WithExternalSubtitles(md, path), nil
}
