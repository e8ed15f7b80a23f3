package testsupport

import (
	"testing"

	"mediatree/internal/config"
	"mediatree/internal/metacache"
)

// MustOpenCache opens the metadata cache configured in cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *metacache.Store {
	t.Helper()

	store, err := metacache.Open(cfg.CacheDBPath(), nil)
	if err != nil {
		t.Fatalf("metacache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
