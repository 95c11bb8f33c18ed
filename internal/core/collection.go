package core

import (
	"fmt"
	"time"
)

// DefaultVersion is the metadata version given to new collections.
const DefaultVersion = "1.0.0"

// Metadata holds optional bookkeeping for a collection.
// Empty strings mean the value is absent.
type Metadata struct {
	Version   string
	Author    string
	CreatedAt string
	UpdatedAt string
}

// DefaultMetadata returns metadata with only the version set.
func DefaultMetadata() Metadata {
	return Metadata{Version: DefaultVersion}
}

// HasTimestamps reports whether both timestamps are present.
func (m Metadata) HasTimestamps() bool {
	return m.CreatedAt != "" && m.UpdatedAt != ""
}

// Collection is an ordered group of requests persisted as one document.
// Request names are not required to be unique; see the validator in
// the collections package.
type Collection struct {
	Name        string
	Requests    []Request
	Description string
	Metadata    Metadata
}

// NewCollection creates an empty collection with default metadata.
func NewCollection(name string) Collection {
	return Collection{
		Name:     name,
		Requests: make([]Request, 0),
		Metadata: DefaultMetadata(),
	}
}

// WithDescription returns a copy of c with the description set.
func (c Collection) WithDescription(desc string) Collection {
	clone := c.Clone()
	clone.Description = desc
	return clone
}

// WithAuthor returns a copy of c with the metadata author set.
func (c Collection) WithAuthor(author string) Collection {
	clone := c.Clone()
	clone.Metadata.Author = author
	return clone
}

// AddRequest returns a copy of c with r appended.
func (c Collection) AddRequest(r Request) Collection {
	clone := c.Clone()
	clone.Requests = append(clone.Requests, r.Clone())
	return clone
}

// Touch returns a copy of c with timestamps stamped at now. CreatedAt is
// only set when absent.
func (c Collection) Touch(now time.Time) Collection {
	clone := c.Clone()
	ts := FormatTimestamp(now)
	if clone.Metadata.CreatedAt == "" {
		clone.Metadata.CreatedAt = ts
	}
	clone.Metadata.UpdatedAt = ts
	return clone
}

// Len returns the number of requests.
func (c Collection) Len() int {
	return len(c.Requests)
}

// IsEmpty reports whether the collection has no requests.
func (c Collection) IsEmpty() bool {
	return len(c.Requests) == 0
}

// FindRequest returns the first request called name.
func (c Collection) FindRequest(name string) (Request, bool) {
	for _, r := range c.Requests {
		if r.Name == name {
			return r.Clone(), true
		}
	}
	return Request{}, false
}

// Clone creates a deep copy of the collection.
func (c Collection) Clone() Collection {
	requests := make([]Request, len(c.Requests))
	for i, r := range c.Requests {
		requests[i] = r.Clone()
	}
	c.Requests = requests
	return c
}

func (c Collection) String() string {
	s := fmt.Sprintf("Collection '%s' (%d request(s))", c.Name, len(c.Requests))
	if c.Description != "" {
		s += ": " + c.Description
	}
	return s
}

// FormatTimestamp renders t the way collection metadata stores it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
