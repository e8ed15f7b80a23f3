package lists

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"mediatree/internal/fileutil"
	"mediatree/internal/logging"
	"mediatree/internal/services"
	"mediatree/internal/textutil"
)

const (
	// Extension is the file suffix of persisted lists.
	Extension = ".list"
	// HistoryName is the list that records streamed items.
	HistoryName = "history"
	// DefaultLimit caps how many entries a list keeps.
	DefaultLimit = 100
)

const fileHeader = "mediatree list\nformat: <tag>;[resume:<ms>;][sub:<lang>,<source>;][player:<name>;]<payload>"

// Store reads and writes list files inside one directory.
type Store struct {
	dir    string
	limit  int
	logger *slog.Logger

	mu sync.Mutex
}

// NewStore returns a store rooted at dir. A non-positive limit uses
// DefaultLimit.
func NewStore(dir string, limit int, logger *slog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{dir: dir, limit: limit, logger: logging.NewComponentLogger(logger, "lists")}
}

// Dir returns the directory holding the list files.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing the named list.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, textutil.SanitizeFileName(name)+Extension)
}

// Names returns the lists present on disk, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "lists", "read dir", s.dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Extension))
	}
	slices.SortFunc(names, textutil.NaturalCompare)
	return names, nil
}

// Load returns the entries of the named list in file order, oldest first.
// A missing list is empty.
func (s *Store) Load(name string) ([]Entry, []Skipped, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(name)
}

// ModTime returns the list file's modification time, zero when absent.
func (s *Store) ModTime(name string) time.Time {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Append records e as the newest entry. An older entry for the same item is
// dropped and the oldest entries beyond the limit are trimmed.
func (s *Store) Append(name string, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := s.loadLocked(name)
	if err != nil {
		return err
	}
	entries = slices.DeleteFunc(entries, e.Same)
	entries = append(entries, e)
	if over := len(entries) - s.limit; over > 0 {
		entries = entries[over:]
	}
	return s.saveLocked(name, entries)
}

// Save replaces the named list.
func (s *Store) Save(name string, entries []Entry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(name, entries)
}

// Clear removes the named list.
func (s *Store) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrTransient, "lists", "remove", s.Path(name), err)
	}
	return nil
}

func (s *Store) loadLocked(name string) ([]Entry, []Skipped, error) {
	path := s.Path(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, services.Wrap(services.ErrTransient, "lists", "open", path, err)
	}
	defer f.Close()

	entries, skipped, err := Read(f)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "lists", "read", path, err)
	}
	for _, sk := range skipped {
		logging.WarnWithContext(s.logger, "skipping malformed list line", "list_line_malformed",
			logging.Path(path),
			logging.Int("line", sk.Line),
			logging.Error(sk.Err),
			logging.String(logging.FieldImpact, "entry omitted from the list"),
			logging.String(logging.FieldErrorHint, "fix or delete the line"),
		)
	}
	return entries, skipped, nil
}

func (s *Store) saveLocked(name string, entries []Entry) error {
	var buf bytes.Buffer
	if err := Write(&buf, fileHeader, entries); err != nil {
		return fmt.Errorf("encode list %s: %w", name, err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(name), buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "lists", "write", s.Path(name), err)
	}
	return nil
}
