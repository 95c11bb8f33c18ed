// Package requeststore holds ad hoc requests by name, independent of any
// collection. Nothing is persisted.
package requeststore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/colldex/internal/core"
)

var (
	ErrEmptyName = errors.New("Request name cannot be empty")
	ErrExists    = errors.New("request already exists")
	ErrNotFound  = errors.New("request not found")
)

// NameError ties ErrExists or ErrNotFound to the name involved.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	switch e.Err {
	case ErrExists:
		return fmt.Sprintf("Request with name '%s' already exists", e.Name)
	case ErrNotFound:
		return fmt.Sprintf("Request with name '%s' not found", e.Name)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *NameError) Unwrap() error {
	return e.Err
}

// Entry is a named request as returned by List.
type Entry struct {
	Name    string
	Request core.Request
}

// Store is a concurrency safe map of request name to request.
type Store struct {
	requests map[string]core.Request
	mu       sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		requests: make(map[string]core.Request),
	}
}

// Add stores r under name. The name must be new.
func (s *Store) Add(name string, r core.Request) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[name]; ok {
		return &NameError{Name: name, Err: ErrExists}
	}
	s.requests[name] = r.Clone()
	return nil
}

// Update replaces the request stored under name.
func (s *Store) Update(name string, r core.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[name]; !ok {
		return &NameError{Name: name, Err: ErrNotFound}
	}
	s.requests[name] = r.Clone()
	return nil
}

// Delete removes the request stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[name]; !ok {
		return &NameError{Name: name, Err: ErrNotFound}
	}
	delete(s.requests, name)
	return nil
}

// Get returns a copy of the request stored under name.
func (s *Store) Get(name string) (core.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[name]
	if !ok {
		return core.Request{}, false
	}
	return r.Clone(), true
}

// Contains reports whether name is in use.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.requests[name]
	return ok
}

// List returns a snapshot of all entries sorted by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.requests))
	for name, r := range s.requests {
		entries = append(entries, Entry{Name: name, Request: r.Clone()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.requests)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

// IsEmpty reports whether the store has no entries.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}
