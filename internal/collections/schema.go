package collections

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/artpar/colldex/internal/storage/filesystem"
)

//go:embed schema/collection.schema.json
var collectionSchema string

// LintDocument checks the raw document at path against the collection
// document schema and returns one line per violation. Unlike
// LoadCollection it catches unknown keys and wrongly typed values.
func (m *Manager) LintDocument(path string) ([]string, error) {
	fullPath := m.store.Resolve(path)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &filesystem.Error{Kind: filesystem.ErrFileNotFound, Path: fullPath, Err: err}
		}
		return nil, &filesystem.Error{Kind: filesystem.ErrRead, Path: fullPath, Err: err}
	}

	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, &filesystem.Error{Kind: filesystem.ErrSerialize, Path: fullPath, Err: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(collectionSchema),
		gojsonschema.NewGoLoader(jsonCompatible(doc)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run schema validation: %w", err)
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// jsonCompatible rewrites YAML decoder output into values encoding/json
// accepts: maps keyed by strings and timestamps as RFC 3339 text.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
