package collections

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/colldex/internal/core"
)

func TestValidateAndFixCollection(t *testing.T) {
	t.Run("renames duplicate using absolute index", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("Get User", "https://api.example.com/users/1")).
			AddRequest(core.NewRequest("Get User", "https://api.example.com/users/2"))

		fixed, issues := ValidateAndFixCollection(c, true)

		assert.Equal(t, []string{"Duplicate request name 'Get User' at indices 0 and 1"}, issues)
		require.Len(t, fixed.Requests, 2)
		assert.Equal(t, "Get User", fixed.Requests[0].Name)
		assert.Equal(t, "Get User (1)", fixed.Requests[1].Name)
	})

	t.Run("numbers later duplicates by position", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("a", "https://x.example.com")).
			AddRequest(core.NewRequest("b", "https://x.example.com")).
			AddRequest(core.NewRequest("a", "https://x.example.com")).
			AddRequest(core.NewRequest("a", "https://x.example.com"))

		fixed, issues := ValidateAndFixCollection(c, true)

		assert.Equal(t, []string{
			"Duplicate request name 'a' at indices 0 and 2",
			"Duplicate request name 'a' at indices 0 and 3",
		}, issues)
		assert.Equal(t, "a (2)", fixed.Requests[2].Name)
		assert.Equal(t, "a (3)", fixed.Requests[3].Name)
	})

	t.Run("reports missing version", func(t *testing.T) {
		c := core.NewCollection("Test")
		c.Metadata.Version = ""

		checked, issues := ValidateAndFixCollection(c, false)
		assert.Equal(t, []string{"Missing version metadata"}, issues)
		assert.Empty(t, checked.Metadata.Version)

		fixed, _ := ValidateAndFixCollection(c, true)
		assert.Equal(t, core.DefaultVersion, fixed.Metadata.Version)
	})

	t.Run("drops invalid requests when fixing", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("ok", "https://api.example.com")).
			AddRequest(core.NewRequest("bad", "ftp://files.example.com"))

		checked, issues := ValidateAndFixCollection(c, false)
		require.Len(t, issues, 1)
		assert.Equal(t, "Invalid request 'bad': Invalid URL: URL must start with http:// or https://: ftp://files.example.com", issues[0])
		assert.Len(t, checked.Requests, 2)

		fixed, _ := ValidateAndFixCollection(c, true)
		require.Len(t, fixed.Requests, 1)
		assert.Equal(t, "ok", fixed.Requests[0].Name)
	})

	t.Run("reports invalid duplicate under its new name", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("r", "https://api.example.com")).
			AddRequest(core.NewRequest("r", ""))

		fixed, issues := ValidateAndFixCollection(c, true)

		assert.Equal(t, []string{
			"Duplicate request name 'r' at indices 0 and 1",
			"Invalid request 'r (1)': Required field is empty: url",
		}, issues)
		assert.Len(t, fixed.Requests, 1)
	})

	t.Run("orders metadata before duplicates before validity", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("", "https://api.example.com")).
			AddRequest(core.NewRequest("d", "https://api.example.com")).
			AddRequest(core.NewRequest("d", "https://api.example.com"))
		c.Metadata.Version = ""

		_, issues := ValidateAndFixCollection(c, false)
		require.Len(t, issues, 3)
		assert.Equal(t, "Missing version metadata", issues[0])
		assert.Contains(t, issues[1], "Duplicate request name 'd'")
		assert.Equal(t, "Invalid request '': Required field is empty: name", issues[2])
	})

	t.Run("clean collection has no issues", func(t *testing.T) {
		fixed, issues := ValidateAndFixCollection(newTestCollection("API"), true)
		assert.NotNil(t, issues)
		assert.Empty(t, issues)
		if diff := cmp.Diff(newTestCollection("API"), fixed); diff != "" {
			t.Errorf("collection changed (-want +got):\n%s", diff)
		}
	})

	t.Run("is idempotent and leaves input untouched", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("x", "https://a.example.com")).
			AddRequest(core.NewRequest("x", "nope"))
		c.Metadata.Version = ""
		original := c.Clone()

		_, first := ValidateAndFixCollection(c, false)
		_, second := ValidateAndFixCollection(c, false)
		assert.Equal(t, first, second)

		_, _ = ValidateAndFixCollection(c, true)
		if diff := cmp.Diff(original, c); diff != "" {
			t.Errorf("input mutated (-want +got):\n%s", diff)
		}
	})

	t.Run("fixed output validates clean", func(t *testing.T) {
		c := core.NewCollection("Test").
			AddRequest(core.NewRequest("x", "https://a.example.com")).
			AddRequest(core.NewRequest("x", "https://b.example.com")).
			AddRequest(core.NewRequest("y", "bad"))
		c.Metadata.Version = ""

		fixed, _ := ValidateAndFixCollection(c, true)
		_, issues := ValidateAndFixCollection(fixed, false)
		assert.Empty(t, issues)
	})
}
