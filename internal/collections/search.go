package collections

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/artpar/colldex/internal/core"
)

// Match is one search hit.
type Match struct {
	Name string
	// Path is the collection file the name was indexed from.
	Path           string
	Score          int
	MatchedIndexes []int
}

// SearchCollections fuzzy matches query against the names of indexed
// collections, best match first. A blank query returns every collection
// ordered by path.
func (m *Manager) SearchCollections(query string) ([]Match, error) {
	var candidates []Match

	err := m.collections.read(func(items map[string]core.Collection) {
		candidates = make([]Match, 0, len(items))
		for path, c := range items {
			candidates = append(candidates, Match{Name: c.Name, Path: path})
		}
	})
	if err != nil {
		return nil, err
	}

	return rank(query, candidates), nil
}

// SearchRequests fuzzy matches query against the request index.
func (m *Manager) SearchRequests(query string) ([]Match, error) {
	var candidates []Match

	err := m.requests.read(func(items map[string]requestRef) {
		candidates = make([]Match, 0, len(items))
		for name, ref := range items {
			candidates = append(candidates, Match{Name: name, Path: ref.Path})
		}
	})
	if err != nil {
		return nil, err
	}

	return rank(query, candidates), nil
}

func rank(query string, candidates []Match) []Match {
	// map iteration order is random; fix it so equal scores stay stable
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Path != candidates[j].Path {
			return candidates[i].Path < candidates[j].Path
		}
		return candidates[i].Name < candidates[j].Name
	})

	if strings.TrimSpace(query) == "" {
		return candidates
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	matches := fuzzy.Find(query, names)
	results := make([]Match, 0, len(matches))
	for _, match := range matches {
		hit := candidates[match.Index]
		hit.Score = match.Score
		hit.MatchedIndexes = match.MatchedIndexes
		results = append(results, hit)
	}
	return results
}
