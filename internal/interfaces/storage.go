package interfaces

import "github.com/artpar/colldex/internal/core"

// DocumentStore persists collection and request documents.
// Paths may be absolute or relative to the store's base directory.
type DocumentStore interface {
	// BasePath returns the directory documents live under.
	BasePath() string

	// Resolve maps a relative path onto the base directory.
	Resolve(path string) string

	// SaveCollection writes c as <filename>.collection.yaml and returns its path.
	SaveCollection(c core.Collection, filename string) (string, error)

	// LoadCollection reads a collection document.
	LoadCollection(path string) (core.Collection, error)

	// SaveRequest writes r as <filename>.request.yaml and returns its path.
	SaveRequest(r core.Request, filename string) (string, error)

	// LoadRequest reads and validates a request document.
	LoadRequest(path string) (core.Request, error)

	// DeleteFile removes a document.
	DeleteFile(path string) error

	// ListFilesWithSuffix lists direct children of the base directory.
	ListFilesWithSuffix(suffix string) ([]string, error)
}
