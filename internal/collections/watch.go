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
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/artpar/colldex/internal/storage/filesystem"
)

// Watcher defaults.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultEventBuffer  = 64
)

// ChangeType classifies a file system change.
type ChangeType int

const (
	Created ChangeType = iota + 1
	Modified
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// FileChange is one change to a collection document. Path is relative to
// the base directory when possible.
type FileChange struct {
	Path string
	Type ChangeType
}

// ChangeHandler receives changes one at a time on a dedicated goroutine.
type ChangeHandler func(path string, change ChangeType)

// WatchMode selects how changes are detected.
type WatchMode string

const (
	// WatchAuto uses native notifications and falls back to polling when
	// they are unavailable.
	WatchAuto   WatchMode = "auto"
	WatchNative WatchMode = "native"
	WatchPoll   WatchMode = "poll"
)

// ParseWatchMode parses a watch mode name.
func ParseWatchMode(s string) (WatchMode, error) {
	switch mode := WatchMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case WatchAuto, WatchNative, WatchPoll:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown watch mode %q (want auto, native or poll)", s)
	}
}

// StartWatching begins delivering changes to collection documents under
// the base directory to handler. A previous watch is stopped first.
//
// handler may call back into the manager, but must not call StartWatching
// or StopWatching synchronously; do that from a new goroutine.
func (m *Manager) StartWatching(handler ChangeHandler) error {
	if handler == nil {
		return errors.New("watch handler is nil")
	}

	w, err := m.newWatcher(handler)
	if err != nil {
		return err
	}

	m.watchMu.Lock()
	previous := m.watcher
	m.watcher = w
	m.watchMu.Unlock()

	if previous != nil {
		previous.shutdown()
		m.logger.Info("replaced collection watcher", "session", previous.id)
	}

	w.start()
	m.logger.Info("watching collections", "session", w.id, "mode", w.mode, "path", m.basePath)
	return nil
}

// StopWatching stops the current watch, if any. No handler call starts
// after it returns.
func (m *Manager) StopWatching() {
	m.watchMu.Lock()
	w := m.watcher
	m.watcher = nil
	m.watchMu.Unlock()

	if w == nil {
		return
	}

	w.shutdown()
	m.logger.Info("stopped watching collections", "session", w.id)
}

// WatchSession returns the id of the current watch, or "" when not
// watching. Log records from the watcher carry it as "session".
func (m *Manager) WatchSession() string {
	m.watchMu.RLock()
	defer m.watchMu.RUnlock()
	if m.watcher == nil {
		return ""
	}
	return m.watcher.id
}

// IsWatching reports whether a watch is installed.
func (m *Manager) IsWatching() bool {
	m.watchMu.RLock()
	defer m.watchMu.RUnlock()
	return m.watcher != nil
}

// changeSource produces raw changes for absolute paths until stop closes.
type changeSource interface {
	run(stop <-chan struct{}, emit func(path string, change ChangeType))
	close() error
}

// watcher pairs a change source with a buffered queue drained by a
// consumer goroutine that calls the handler.
type watcher struct {
	id       string
	mode     WatchMode
	base     string
	realBase string
	logger   *slog.Logger
	source   changeSource
	handler  ChangeHandler

	events       chan FileChange
	stop         chan struct{}
	producerDone chan struct{}
	consumerDone chan struct{}
}

func (m *Manager) newWatcher(handler ChangeHandler) (*watcher, error) {
	id := uuid.NewString()
	logger := m.logger.With("session", id)

	source, mode, err := m.newChangeSource(logger)
	if err != nil {
		return nil, err
	}

	realBase, err := filepath.EvalSymlinks(m.basePath)
	if err != nil {
		realBase = m.basePath
	}

	return &watcher{
		id:           id,
		mode:         mode,
		base:         m.basePath,
		realBase:     realBase,
		logger:       logger,
		source:       source,
		handler:      handler,
		events:       make(chan FileChange, m.eventBuffer),
		stop:         make(chan struct{}),
		producerDone: make(chan struct{}),
		consumerDone: make(chan struct{}),
	}, nil
}

func (m *Manager) newChangeSource(logger *slog.Logger) (changeSource, WatchMode, error) {
	switch m.watchMode {
	case WatchPoll:
		return newPollSource(m.basePath, m.pollInterval), WatchPoll, nil

	case WatchNative:
		source, err := newNativeSource(m.basePath, logger)
		if err != nil {
			return nil, "", &filesystem.Error{Kind: filesystem.ErrRead, Path: m.basePath, Err: err}
		}
		return source, WatchNative, nil

	default:
		source, err := newNativeSource(m.basePath, logger)
		if err == nil {
			return source, WatchNative, nil
		}
		logger.Warn("native file watching unavailable, polling instead",
			"error", err, "interval", m.pollInterval)
		return newPollSource(m.basePath, m.pollInterval), WatchPoll, nil
	}
}

func (w *watcher) start() {
	go func() {
		defer close(w.producerDone)
		w.source.run(w.stop, w.emit)
	}()

	go func() {
		defer close(w.consumerDone)
		for change := range w.events {
			select {
			case <-w.stop:
				continue
			default:
			}
			w.handler(change.Path, change.Type)
		}
	}()
}

func (w *watcher) shutdown() {
	close(w.stop)
	if err := w.source.close(); err != nil {
		w.logger.Warn("failed to close change source", "error", err)
	}
	<-w.producerDone
	close(w.events)
	<-w.consumerDone
}

// emit filters to collection documents, relativizes the path and queues
// the change. It gives up when the watcher is stopping.
func (w *watcher) emit(path string, change ChangeType) {
	if !strings.HasSuffix(filepath.Base(path), filesystem.CollectionSuffix) {
		return
	}

	for _, base := range []string{w.base, w.realBase} {
		rel, err := filepath.Rel(base, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			path = rel
			break
		}
	}

	w.logger.Debug("collection changed", "path", path, "change", change)

	select {
	case w.events <- FileChange{Path: path, Type: change}:
	case <-w.stop:
	}
}

// Native notifications

type nativeSource struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

func newNativeSource(base string, logger *slog.Logger) (*nativeSource, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	s := &nativeSource{fsw: fsw, logger: logger}
	if err := s.addTree(base, nil); err != nil {
		fsw.Close()
		return nil, err
	}
	return s, nil
}

func (s *nativeSource) run(stop <-chan struct{}, emit func(string, ChangeType)) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handle(event, emit)

		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (s *nativeSource) handle(event fsnotify.Event, emit func(string, ChangeType)) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			// Files can land in a new directory before its watch exists.
			if err := s.addTree(event.Name, emit); err != nil {
				s.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
		emit(event.Name, Created)

	case event.Has(fsnotify.Remove):
		emit(event.Name, Deleted)

	case event.Has(fsnotify.Write), event.Has(fsnotify.Rename), event.Has(fsnotify.Chmod):
		emit(event.Name, Modified)
	}
}

// addTree watches root and every directory below it. When emit is set,
// files already present are reported as created.
func (s *nativeSource) addTree(root string, emit func(string, ChangeType)) error {
	return walkTree(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := s.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if emit != nil && d.Type().IsRegular() {
			emit(path, Created)
		}
		return nil
	})
}

func (s *nativeSource) close() error {
	return s.fsw.Close()
}

// Polling

type fileStamp struct {
	modTime time.Time
	size    int64
}

// pollSource diffs (mtime, size) snapshots of the collection documents.
// Two writes within one interval that leave both unchanged go unnoticed.
type pollSource struct {
	base     string
	interval time.Duration
	last     map[string]fileStamp
}

func newPollSource(base string, interval time.Duration) *pollSource {
	return &pollSource{
		base:     base,
		interval: interval,
		last:     snapshot(base),
	}
}

func (s *pollSource) run(stop <-chan struct{}, emit func(string, ChangeType)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			current := snapshot(s.base)
			for _, change := range diffSnapshots(s.last, current) {
				emit(change.Path, change.Type)
			}
			s.last = current
		}
	}
}

func (s *pollSource) close() error {
	return nil
}

func snapshot(base string) map[string]fileStamp {
	stamps := make(map[string]fileStamp)

	_ = walkTree(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable or vanished entries are skipped
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), filesystem.CollectionSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stamps[path] = fileStamp{modTime: info.ModTime(), size: info.Size()}
		return nil
	})

	return stamps
}

func diffSnapshots(before, after map[string]fileStamp) []FileChange {
	var changes []FileChange

	for path, stamp := range after {
		prev, ok := before[path]
		switch {
		case !ok:
			changes = append(changes, FileChange{Path: path, Type: Created})
		case !prev.modTime.Equal(stamp.modTime) || prev.size != stamp.size:
			changes = append(changes, FileChange{Path: path, Type: Modified})
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			changes = append(changes, FileChange{Path: path, Type: Deleted})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}
		return changes[i].Type < changes[j].Type
	})
	return changes
}
