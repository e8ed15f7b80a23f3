package registry

import (
	"log/slog"
	"sync"

	"mediatree/internal/logging"
)

// RootID is the identifier remote clients use for the tree root.
const RootID = 0

const (
	// searchFloorMin is the table size above which the tombstone lower bound
	// narrows the binary search window.
	searchFloorMin = 64
	// compactMin is the number of in-slice tombstones tolerated before a
	// compaction is considered.
	compactMin = 1024
)

// Identifiable is implemented by anything the registry can name.
type Identifiable interface {
	ID() int
	SetID(id int)
}

type entry struct {
	id   int
	item Identifiable
}

// Registry is the process-wide identity table. The zero value is not usable;
// construct with New.
type Registry struct {
	logger *slog.Logger

	mu         sync.RWMutex
	entries    []entry
	nextID     int
	tombstones int
	dead       int
}

// New constructs an empty registry whose first identifier is 1.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logging.NewComponentLogger(logger, "registry"),
		nextID: 1,
	}
}

// Add assigns a fresh identifier to item and records it. An item that already
// holds an identifier has its old entry removed first.
func (r *Registry) Add(item Identifiable) int {
	if item == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old := item.ID(); old > 0 {
		r.removeLocked(old)
	}
	id := r.nextID
	r.nextID++
	r.entries = append(r.entries, entry{id: id, item: item})
	item.SetID(id)
	r.maybeCompactLocked()
	return id
}

// Get returns the item registered under id.
func (r *Registry) Get(id int) (Identifiable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexLocked(id)
	if idx < 0 || r.entries[idx].item == nil {
		return nil, false
	}
	return r.entries[idx].item, true
}

// Exists reports whether id is currently registered.
func (r *Registry) Exists(id int) bool {
	_, ok := r.Get(id)
	return ok
}

// Remove tombstones the entry for id. It reports whether a live entry was removed.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries) - r.dead
}

// Tombstones returns the number of entries ever removed.
func (r *Registry) Tombstones() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tombstones
}

func (r *Registry) removeLocked(id int) bool {
	idx := r.indexLocked(id)
	if idx < 0 || r.entries[idx].item == nil {
		return false
	}
	r.entries[idx].item = nil
	r.tombstones++
	r.dead++
	return true
}

// indexLocked binary-searches for id. Ids are 1-based and issued without gaps,
// so id k sits at index k-1 at most, and at least k-1-tombstones because no
// more entries than were ever removed can be missing below it.
func (r *Registry) indexLocked(id int) int {
	n := len(r.entries)
	if id <= 0 || n == 0 {
		return -1
	}
	hi := min(id-1, n-1)
	lo := 0
	if n > searchFloorMin {
		lo = max(0, hi-r.tombstones)
	}
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch got := r.entries[mid].id; {
		case got == id:
			return mid
		case got < id:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}

func (r *Registry) maybeCompactLocked() {
	if r.dead < compactMin || r.dead*2 < len(r.entries) {
		return
	}
	live := make([]entry, 0, len(r.entries)-r.dead)
	for _, e := range r.entries {
		if e.item != nil {
			live = append(live, e)
		}
	}
	r.logger.Debug("compacted identity table",
		logging.Int("dropped", r.dead),
		logging.Int("live", len(live)),
	)
	r.entries = live
	r.dead = 0
}
