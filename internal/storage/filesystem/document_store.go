package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/colldex/internal/core"
	"github.com/natefinch/atomic"
)

// File name suffixes for the two document kinds.
const (
	CollectionSuffix = ".collection.yaml"
	RequestSuffix    = ".request.yaml"
)

const (
	dirPerms  = 0755
	filePerms = 0644
)

// DocumentStore reads and writes collection and request documents under a
// base directory. It does no caching.
type DocumentStore struct {
	basePath string
}

// NewDocumentStore creates a store rooted at basePath, creating the
// directory if needed.
func NewDocumentStore(basePath string) (*DocumentStore, error) {
	if err := os.MkdirAll(basePath, dirPerms); err != nil {
		return nil, readError(basePath, fmt.Errorf("failed to create base directory: %w", err))
	}

	return &DocumentStore{
		basePath: basePath,
	}, nil
}

// BasePath returns the directory the store is rooted at.
func (s *DocumentStore) BasePath() string {
	return s.basePath
}

// Resolve returns path unchanged when absolute, otherwise joined to the
// base directory.
func (s *DocumentStore) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.basePath, path)
}

// SaveCollection writes c to <base>/<filename>.collection.yaml and returns
// the path written.
func (s *DocumentStore) SaveCollection(c core.Collection, filename string) (string, error) {
	path, err := s.documentPath(filename, CollectionSuffix)
	if err != nil {
		return "", err
	}

	content, err := EncodeCollection(c)
	if err != nil {
		return "", serializeError(path, err)
	}

	if err := writeAtomic(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// LoadCollection reads a collection document. No validation is applied.
func (s *DocumentStore) LoadCollection(path string) (core.Collection, error) {
	fullPath, content, err := s.read(path)
	if err != nil {
		return core.Collection{}, err
	}

	c, err := DecodeCollection(content)
	if err != nil {
		return core.Collection{}, serializeError(fullPath, err)
	}
	return c, nil
}

// SaveRequest writes r to <base>/<filename>.request.yaml and returns the
// path written.
func (s *DocumentStore) SaveRequest(r core.Request, filename string) (string, error) {
	path, err := s.documentPath(filename, RequestSuffix)
	if err != nil {
		return "", err
	}

	content, err := EncodeRequest(r)
	if err != nil {
		return "", serializeError(path, err)
	}

	if err := writeAtomic(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// LoadRequest reads a request document and validates it.
func (s *DocumentStore) LoadRequest(path string) (core.Request, error) {
	fullPath, content, err := s.read(path)
	if err != nil {
		return core.Request{}, err
	}

	r, err := DecodeRequest(content)
	if err != nil {
		return core.Request{}, serializeError(fullPath, err)
	}

	if err := r.Validate(); err != nil {
		return core.Request{}, validationError(fullPath, err)
	}
	return r, nil
}

// DeleteFile removes the document at path.
func (s *DocumentStore) DeleteFile(path string) error {
	fullPath := s.Resolve(path)

	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFoundError(fullPath, err)
		}
		return readError(fullPath, err)
	}

	if err := os.Remove(fullPath); err != nil {
		return readError(fullPath, fmt.Errorf("failed to delete file: %w", err))
	}
	return nil
}

// ListFilesWithSuffix returns the regular files directly inside the base
// directory whose names end with suffix. Subdirectories are not searched.
func (s *DocumentStore) ListFilesWithSuffix(suffix string) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, readError(s.basePath, err)
	}

	files := make([]string, 0)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(s.basePath, entry.Name()))
	}
	return files, nil
}

// ListCollectionFiles lists collection documents directly inside the base directory.
func (s *DocumentStore) ListCollectionFiles() ([]string, error) {
	return s.ListFilesWithSuffix(CollectionSuffix)
}

// ListRequestFiles lists request documents directly inside the base directory.
func (s *DocumentStore) ListRequestFiles() ([]string, error) {
	return s.ListFilesWithSuffix(RequestSuffix)
}

// Internal helpers

func (s *DocumentStore) documentPath(filename, suffix string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", invalidPathError(filename, errors.New("filename is empty"))
	}
	if filepath.IsAbs(filename) {
		return "", invalidPathError(filename, errors.New("filename must be relative"))
	}

	clean := filepath.Clean(filename)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", invalidPathError(filename, errors.New("filename escapes base directory"))
	}

	return filepath.Join(s.basePath, clean+suffix), nil
}

func (s *DocumentStore) read(path string) (string, []byte, error) {
	fullPath := s.Resolve(path)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fullPath, nil, notFoundError(fullPath, err)
		}
		return fullPath, nil, readError(fullPath, err)
	}
	return fullPath, content, nil
}

// writeAtomic replaces path with content via a synced sibling temp file
// and a rename, so readers see either the old or the new document.
func writeAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return readError(path, fmt.Errorf("failed to create directory: %w", err))
	}

	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return readError(path, fmt.Errorf("failed to write file: %w", err))
	}

	// atomic.WriteFile creates the temp file 0600
	if err := os.Chmod(path, filePerms); err != nil {
		return readError(path, fmt.Errorf("failed to set file permissions: %w", err))
	}
	return nil
}
