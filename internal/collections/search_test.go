package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/colldex/internal/core"
)

func TestManager_Search(t *testing.T) {
	m := newTestManager(t)
	for slug, name := range map[string]string{
		"users":    "User Service",
		"orders":   "Order Service",
		"payments": "Payments",
	} {
		c := core.NewCollection(name).
			AddRequest(core.NewRequest(name+" health", "https://"+slug+".example.com/health"))
		_, err := m.SaveCollection(c, slug)
		require.NoError(t, err)
	}

	t.Run("ranks collection names", func(t *testing.T) {
		matches, err := m.SearchCollections("usr")
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "User Service", matches[0].Name)
		assert.NotEmpty(t, matches[0].MatchedIndexes)
	})

	t.Run("returns nothing for unmatched query", func(t *testing.T) {
		matches, err := m.SearchCollections("zzz")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("blank query lists everything in path order", func(t *testing.T) {
		matches, err := m.SearchCollections(" ")
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "Order Service", matches[0].Name)
		assert.Equal(t, "Payments", matches[1].Name)
		assert.Equal(t, "User Service", matches[2].Name)
	})

	t.Run("searches request names", func(t *testing.T) {
		matches, err := m.SearchRequests("payhealth")
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "Payments health", matches[0].Name)
		assert.Contains(t, matches[0].Path, "payments.collection.yaml")
	})
}
