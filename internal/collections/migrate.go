package collections

import (
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/artpar/colldex/internal/core"
	"github.com/artpar/colldex/internal/storage/filesystem"
)

// MigrateCollection brings an older document up to the current format.
// The version is backfilled and, when either timestamp is missing, both
// are set to now. The result is written back under the same file name and
// indexed. Documents outside the base directory are refused with
// filesystem.ErrInvalidPath before anything is written.
func (m *Manager) MigrateCollection(path string) (core.Collection, error) {
	c, err := m.store.LoadCollection(path)
	if err != nil {
		return core.Collection{}, err
	}

	if c.Metadata.Version == "" {
		c.Metadata.Version = core.DefaultVersion
	}
	if !c.Metadata.HasTimestamps() {
		now := core.FormatTimestamp(m.now())
		c.Metadata.CreatedAt = now
		c.Metadata.UpdatedAt = now
	}

	if err := m.writeBack(path, c); err != nil {
		return core.Collection{}, err
	}
	return c, nil
}

// RepairCollection loads the collection at path, fixes every issue
// ValidateAndFixCollection finds, and saves the result back when there
// was anything to fix. Like MigrateCollection it refuses documents
// outside the base directory.
func (m *Manager) RepairCollection(path string) (core.Collection, []string, error) {
	c, err := m.LoadCollection(path)
	if err != nil {
		return core.Collection{}, nil, err
	}

	fixed, issues := ValidateAndFixCollection(c, true)
	if len(issues) == 0 {
		return fixed, issues, nil
	}

	if err := m.writeBack(path, fixed); err != nil {
		return core.Collection{}, nil, err
	}

	m.logger.Info("repaired collection", "path", path, "issues", len(issues))
	return fixed, issues, nil
}

// FixPreview describes what RepairCollection would do to a document.
type FixPreview struct {
	Collection core.Collection
	Issues     []string
	// Diff is a unified diff between the current and repaired document.
	// Empty when nothing would change.
	Diff string
}

// PreviewFix computes the repaired collection and the document diff
// without writing anything.
func (m *Manager) PreviewFix(path string) (FixPreview, error) {
	c, err := m.store.LoadCollection(path)
	if err != nil {
		return FixPreview{}, err
	}

	fixed, issues := ValidateAndFixCollection(c, true)

	before, err := filesystem.EncodeCollection(c)
	if err != nil {
		return FixPreview{}, &filesystem.Error{Kind: filesystem.ErrSerialize, Path: path, Err: err}
	}
	after, err := filesystem.EncodeCollection(fixed)
	if err != nil {
		return FixPreview{}, &filesystem.Error{Kind: filesystem.ErrSerialize, Path: path, Err: err}
	}

	name := filepath.Base(path)
	edits := udiff.Strings(string(before), string(after))
	diff, err := udiff.ToUnified("a/"+name, "b/"+name, string(before), edits, 3)
	if err != nil {
		return FixPreview{}, err
	}

	return FixPreview{
		Collection: fixed,
		Issues:     issues,
		Diff:       diff,
	}, nil
}

func (m *Manager) writeBack(path string, c core.Collection) error {
	filename, err := m.filenameFor(path)
	if err != nil {
		return err
	}

	_, err = m.SaveCollection(c, filename)
	return err
}
