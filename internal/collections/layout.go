package collections

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/artpar/colldex/internal/core"
	"github.com/artpar/colldex/internal/storage/filesystem"
)

// legacyCollectionFile is the per-folder document name used before
// collections were stored as <slug>.collection.yaml.
const legacyCollectionFile = "collection.yaml"

// SanitizeFilename turns a display name into a file name slug: lowercase,
// spaces become dashes, anything other than letters, digits and dashes is
// dropped.
func SanitizeFilename(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}

	slug := b.String()
	if strings.Trim(slug, "-") == "" {
		return "", errors.New("Collection name must contain at least one alphanumeric character")
	}
	return slug, nil
}

// ContainedPath resolves symlinks and dot segments in path and returns the
// result if it lies inside the base directory. The path does not need to
// exist yet, but its parent directory does.
func (m *Manager) ContainedPath(path string) (string, error) {
	base, err := filepath.EvalSymlinks(m.store.BasePath())
	if err != nil {
		return "", &filesystem.Error{Kind: filesystem.ErrRead, Path: m.store.BasePath(), Err: err}
	}

	resolved, err := evalPath(m.store.Resolve(path))
	if err != nil {
		return "", &filesystem.Error{Kind: filesystem.ErrInvalidPath, Path: path, Err: err}
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &filesystem.Error{
			Kind: filesystem.ErrInvalidPath,
			Path: path,
			Err:  errors.New("Access denied: path outside collections directory"),
		}
	}
	return resolved, nil
}

// CreateCollection saves a new empty collection called name as
// <slug>.collection.yaml in the base directory.
func (m *Manager) CreateCollection(name string) (core.Collection, string, error) {
	slug, err := SanitizeFilename(name)
	if err != nil {
		return core.Collection{}, "", err
	}

	target := m.store.Resolve(slug + filesystem.CollectionSuffix)
	if _, err := os.Stat(target); err == nil {
		return core.Collection{}, "", fmt.Errorf("%w: %s", ErrExists, target)
	}

	c := core.NewCollection(name).Touch(m.now())
	path, err := m.SaveCollection(c, slug)
	if err != nil {
		return core.Collection{}, "", err
	}
	return c, path, nil
}

// SaveRequestToCollection writes r as its own request document in the
// folder that belongs to the collection at collectionPath.
func (m *Manager) SaveRequestToCollection(collectionPath string, r core.Request) (string, error) {
	if err := r.Validate(); err != nil {
		return "", &filesystem.Error{Kind: filesystem.ErrValidation, Path: collectionPath, Err: err}
	}

	folder, err := m.requestFolder(collectionPath)
	if err != nil {
		return "", err
	}

	slug, err := SanitizeFilename(r.Name)
	if err != nil {
		return "", err
	}

	rel, err := m.relToBase(folder)
	if err != nil {
		return "", err
	}
	return m.store.SaveRequest(r, filepath.Join(rel, slug))
}

// LoadRequestsFromCollection reads every request document in the folder
// of the collection at collectionPath, in file name order. A missing
// folder yields no requests.
func (m *Manager) LoadRequestsFromCollection(collectionPath string) ([]core.Request, error) {
	folder, err := m.requestFolder(collectionPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.Request{}, nil
		}
		return nil, &filesystem.Error{Kind: filesystem.ErrRead, Path: folder, Err: err}
	}

	requests := make([]core.Request, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), filesystem.RequestSuffix) {
			continue
		}
		r, err := m.store.LoadRequest(filepath.Join(folder, entry.Name()))
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, nil
}

// DeleteRequestFromCollection removes the request document for name. It
// is not an error if the document does not exist.
func (m *Manager) DeleteRequestFromCollection(collectionPath, name string) error {
	folder, err := m.requestFolder(collectionPath)
	if err != nil {
		return err
	}

	slug, err := SanitizeFilename(name)
	if err != nil {
		return err
	}

	err = m.store.DeleteFile(filepath.Join(folder, slug+filesystem.RequestSuffix))
	if errors.Is(err, filesystem.ErrFileNotFound) {
		return nil
	}
	return err
}

// requestFolder maps a collection document to the directory holding its
// request documents: <dir>/<stem>/ for <stem>.collection.yaml, or the
// document's own directory for a legacy collection.yaml.
func (m *Manager) requestFolder(collectionPath string) (string, error) {
	resolved := m.store.Resolve(collectionPath)
	dir, name := filepath.Split(resolved)

	if name == legacyCollectionFile {
		return filepath.Clean(dir), nil
	}
	if stem, ok := strings.CutSuffix(name, filesystem.CollectionSuffix); ok && stem != "" {
		return filepath.Join(dir, stem), nil
	}

	return "", &filesystem.Error{
		Kind: filesystem.ErrInvalidPath,
		Path: collectionPath,
		Err:  errors.New("Unsupported collection file format"),
	}
}

func (m *Manager) relToBase(path string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(m.store.BasePath()), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &filesystem.Error{
			Kind: filesystem.ErrInvalidPath,
			Path: path,
			Err:  errors.New("path outside collections directory"),
		}
	}
	return rel, nil
}

// evalPath resolves symlinks for path, or for its parent when path does
// not exist yet.
func evalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(path)), nil
}
