// Package collections keeps an in-memory index over the collection
// documents stored under a base directory.
//
// The Manager owns two caches: collections by file path, and requests by
// name. Disk is the source of truth. Each cache has its own lock and a
// load or save updates them one after the other, so a concurrent reader
// can briefly see one without the other; lookups treat that as a miss.
//
// By default the request index is additive: entries for requests that
// were removed or renamed in a later version of a collection stay until
// ClearIndex. WithRequestIndexPruning rebuilds a collection's entries on
// every load and save instead.
package collections

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artpar/colldex/internal/core"
	"github.com/artpar/colldex/internal/interfaces"
	"github.com/artpar/colldex/internal/storage/filesystem"
)

// Manager presents a collection-oriented API over a DocumentStore and
// caches what it loads and saves.
type Manager struct {
	basePath string
	store    interfaces.DocumentStore
	logger   *slog.Logger
	now      func() time.Time

	pruneRequests bool
	watchMode     WatchMode
	pollInterval  time.Duration
	eventBuffer   int

	collections *lockedIndex[string, core.Collection]
	requests    *lockedIndex[string, requestRef]

	watchMu sync.RWMutex
	watcher *watcher
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for batch failures and watcher events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStore replaces the filesystem document store.
func WithStore(store interfaces.DocumentStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithRequestIndexPruning makes every load and save drop the request
// index entries previously recorded for that collection path.
func WithRequestIndexPruning(prune bool) Option {
	return func(m *Manager) {
		m.pruneRequests = prune
	}
}

// WithWatchMode selects the file watching backend.
func WithWatchMode(mode WatchMode) Option {
	return func(m *Manager) {
		m.watchMode = mode
	}
}

// WithPollInterval sets how often the polling watcher rescans.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithEventBuffer sets how many change events may queue before the
// watcher blocks on the handler.
func WithEventBuffer(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.eventBuffer = n
		}
	}
}

// WithClock overrides the time source used for migration timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager for the collections under basePath.
func NewManager(basePath string, opts ...Option) (*Manager, error) {
	m := &Manager{
		basePath:     basePath,
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
		watchMode:    WatchAuto,
		pollInterval: DefaultPollInterval,
		eventBuffer:  DefaultEventBuffer,
		collections:  newLockedIndex[string, core.Collection]("collection index"),
		requests:     newLockedIndex[string, requestRef]("request index"),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		store, err := filesystem.NewDocumentStore(basePath)
		if err != nil {
			return nil, err
		}
		m.store = store
	}

	return m, nil
}

// BasePath returns the directory the manager scans.
func (m *Manager) BasePath() string {
	return m.basePath
}

// Store returns the underlying document store.
func (m *Manager) Store() interfaces.DocumentStore {
	return m.store
}

// LoadCollection reads the collection at path and indexes it.
func (m *Manager) LoadCollection(path string) (core.Collection, error) {
	c, err := m.store.LoadCollection(path)
	if err != nil {
		return core.Collection{}, err
	}

	if err := m.addToIndex(path, c); err != nil {
		return core.Collection{}, err
	}
	return c, nil
}

// SaveCollection writes c as <filename>.collection.yaml and indexes it
// under the returned path.
func (m *Manager) SaveCollection(c core.Collection, filename string) (string, error) {
	path, err := m.store.SaveCollection(c, filename)
	if err != nil {
		return "", err
	}

	if err := m.addToIndex(path, c); err != nil {
		return "", err
	}
	return path, nil
}

// ScanCollections returns every collection document under the base
// directory at any depth. Order follows directory enumeration.
func (m *Manager) ScanCollections() ([]string, error) {
	return scanDirectory(m.basePath, filesystem.CollectionSuffix)
}

// ScanRequests returns every request document under the base directory
// at any depth.
func (m *Manager) ScanRequests() ([]string, error) {
	return scanDirectory(m.basePath, filesystem.RequestSuffix)
}

// LoadAllCollections loads every scanned collection and returns how many
// loaded. A file that fails to load is logged and skipped.
func (m *Manager) LoadAllCollections() (int, error) {
	paths, err := m.ScanCollections()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, path := range paths {
		if _, err := m.LoadCollection(path); err != nil {
			if errors.Is(err, ErrIndexPoisoned) {
				return count, err
			}
			m.logger.Warn("failed to load collection", "path", path, "error", err)
			continue
		}
		count++
	}

	m.logger.Debug("loaded collections", "count", count, "scanned", len(paths))
	return count, nil
}

// FindCollectionByName returns the first indexed collection called name.
// Which one is first is unspecified when several share a name.
func (m *Manager) FindCollectionByName(name string) (core.Collection, error) {
	var (
		found core.Collection
		ok    bool
	)

	err := m.collections.read(func(items map[string]core.Collection) {
		for _, c := range items {
			if c.Name == name {
				found, ok = c.Clone(), true
				return
			}
		}
	})
	if err != nil {
		return core.Collection{}, err
	}

	if !ok {
		return core.Collection{}, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return found, nil
}

// FindRequestByName resolves name through the request index and returns
// the request at the recorded position of the recorded collection.
func (m *Manager) FindRequestByName(name string) (core.Request, error) {
	var (
		ref requestRef
		ok  bool
	)

	err := m.requests.read(func(items map[string]requestRef) {
		ref, ok = items[name]
	})
	if err != nil {
		return core.Request{}, err
	}
	if !ok {
		return core.Request{}, fmt.Errorf("request %q: %w", name, ErrNotFound)
	}

	var req core.Request
	ok = false
	err = m.collections.read(func(items map[string]core.Collection) {
		c, exists := items[ref.Path]
		if !exists || ref.Position < 0 || ref.Position >= len(c.Requests) {
			return
		}
		req, ok = c.Requests[ref.Position].Clone(), true
	})
	if err != nil {
		return core.Request{}, err
	}

	if !ok {
		return core.Request{}, fmt.Errorf("request %q: %w", name, ErrNotFound)
	}
	return req, nil
}

// GetAllCollections returns copies of every indexed collection in no
// particular order.
func (m *Manager) GetAllCollections() ([]core.Collection, error) {
	var result []core.Collection

	err := m.collections.read(func(items map[string]core.Collection) {
		result = make([]core.Collection, 0, len(items))
		for _, c := range items {
			result = append(result, c.Clone())
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Indexed pairs an index key with the collection cached under it.
type Indexed struct {
	Path       string
	Collection core.Collection
}

// IndexedCollections returns copies of every indexed collection with its
// path, ordered by path.
func (m *Manager) IndexedCollections() ([]Indexed, error) {
	var entries []Indexed

	err := m.collections.read(func(items map[string]core.Collection) {
		entries = make([]Indexed, 0, len(items))
		for p, c := range items {
			entries = append(entries, Indexed{Path: p, Collection: c.Clone()})
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// CollectionCount returns the number of indexed collections.
func (m *Manager) CollectionCount() (int, error) {
	return m.collections.len()
}

// RequestIndexSize returns the number of names in the request index.
func (m *Manager) RequestIndexSize() (int, error) {
	return m.requests.len()
}

// ClearIndex empties both indices. Files are not touched.
func (m *Manager) ClearIndex() error {
	errCollections := m.collections.write(func(items map[string]core.Collection) {
		clear(items)
	})
	errRequests := m.requests.write(func(items map[string]requestRef) {
		clear(items)
	})
	return errors.Join(errCollections, errRequests)
}

// DeleteCollection drops path from the collection index and then deletes
// the file. The index entry is removed even when the file delete fails;
// the delete error is still returned.
func (m *Manager) DeleteCollection(path string) error {
	key := m.indexKey(path)

	errIndex := m.collections.write(func(items map[string]core.Collection) {
		delete(items, key)
	})

	if m.pruneRequests && errIndex == nil {
		errIndex = m.requests.write(func(items map[string]requestRef) {
			pruneRefs(items, key)
		})
	}

	errFile := m.store.DeleteFile(path)
	return errors.Join(errIndex, errFile)
}

// CheckIntegrity loads the collection at path and reports its validation
// issues without fixing them. A load failure becomes the only issue.
func (m *Manager) CheckIntegrity(path string) []string {
	c, err := m.store.LoadCollection(path)
	if err != nil {
		return []string{fmt.Sprintf("Failed to load collection: %v", err)}
	}

	_, issues := ValidateAndFixCollection(c, false)
	return issues
}

// Internal helpers

func (m *Manager) addToIndex(path string, c core.Collection) error {
	key := m.indexKey(path)
	stored := c.Clone()

	if err := m.collections.write(func(items map[string]core.Collection) {
		items[key] = stored
	}); err != nil {
		return err
	}

	return m.requests.write(func(items map[string]requestRef) {
		if m.pruneRequests {
			pruneRefs(items, key)
		}
		for i, r := range stored.Requests {
			items[r.Name] = requestRef{Path: key, Position: i}
		}
	})
}

// indexKey normalizes path so relative and absolute spellings of the same
// document share one index entry.
func (m *Manager) indexKey(path string) string {
	return filepath.Clean(m.store.Resolve(path))
}

// filenameFor returns the filename argument SaveCollection needs to
// write back to path.
func (m *Manager) filenameFor(path string) (string, error) {
	rel, err := m.relToBase(m.indexKey(path))
	if err != nil {
		return "", err
	}

	if stem, ok := strings.CutSuffix(rel, filesystem.CollectionSuffix); ok {
		return stem, nil
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)), nil
}

func pruneRefs(items map[string]requestRef, path string) {
	for name, ref := range items {
		if ref.Path == path {
			delete(items, name)
		}
	}
}

func scanDirectory(dir, suffix string) ([]string, error) {
	files := make([]string, 0)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return files, nil
	}

	err := walkTree(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &filesystem.Error{Kind: filesystem.ErrRead, Path: dir, Err: err}
	}
	return files, nil
}

// walkTree is filepath.WalkDir that also follows root when root is a
// symlink. Paths passed to fn stay under root as given.
func walkTree(root string, fn fs.WalkDirFunc) error {
	target, err := filepath.EvalSymlinks(root)
	if err != nil || target == filepath.Clean(root) {
		return filepath.WalkDir(root, fn)
	}

	return filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if rel, relErr := filepath.Rel(target, path); relErr == nil {
			path = filepath.Join(root, rel)
		}
		return fn(path, d, err)
	})
}
