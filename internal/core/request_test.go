package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Run("creates GET request without headers", func(t *testing.T) {
		req := NewRequest("Test Request", "https://api.example.com/users")
		assert.Equal(t, "Test Request", req.Name)
		assert.Equal(t, "https://api.example.com/users", req.URL)
		assert.Equal(t, MethodGet, req.Method)
		assert.Empty(t, req.Headers)
		assert.False(t, req.HasBody())
	})

	t.Run("builders return modified copies", func(t *testing.T) {
		base := NewRequest("Create User", "https://api.example.com/users")
		req := base.
			WithMethod(MethodPost).
			WithHeader("Content-Type", "application/json").
			WithHeader("Authorization", "Bearer token123").
			WithBody(`{"name": "John Doe"}`)

		assert.Equal(t, MethodPost, req.Method)
		assert.Len(t, req.Headers, 2)
		assert.Equal(t, "application/json", req.Headers["Content-Type"])
		assert.Equal(t, `{"name": "John Doe"}`, req.Body)

		assert.Equal(t, MethodGet, base.Method)
		assert.Empty(t, base.Headers)
	})

	t.Run("clone does not share headers", func(t *testing.T) {
		req := NewRequest("a", "https://example.com").WithHeader("X-A", "1")
		clone := req.Clone()
		clone.Headers["X-A"] = "2"
		assert.Equal(t, "1", req.Headers["X-A"])
	})
}

func TestParseMethod(t *testing.T) {
	t.Run("accepts every supported method", func(t *testing.T) {
		for _, m := range Methods {
			parsed, err := ParseMethod(string(m))
			require.NoError(t, err)
			assert.Equal(t, m, parsed)
		}
	})

	t.Run("ignores case", func(t *testing.T) {
		parsed, err := ParseMethod("patch")
		require.NoError(t, err)
		assert.Equal(t, MethodPatch, parsed)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := ParseMethod("TRACE")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidMethod))
		assert.Equal(t, "Invalid HTTP method: TRACE", err.Error())
	})
}

func TestRequest_Validate(t *testing.T) {
	t.Run("accepts valid request", func(t *testing.T) {
		req := NewRequest("Valid", "https://api.example.com")
		assert.NoError(t, req.Validate())
	})

	t.Run("accepts http scheme", func(t *testing.T) {
		req := NewRequest("Valid", "http://localhost:8080/health")
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		req := NewRequest("", "https://api.example.com")
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyField))
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("rejects whitespace name", func(t *testing.T) {
		req := NewRequest("   ", "https://api.example.com")
		assert.ErrorIs(t, req.Validate(), ErrEmptyField)
	})

	t.Run("rejects empty url and names the field", func(t *testing.T) {
		req := NewRequest("Test", "")
		err := req.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyField)
		assert.Equal(t, "Required field is empty: url", err.Error())

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "url", vErr.Field)
	})

	t.Run("rejects url without scheme", func(t *testing.T) {
		req := NewRequest("Test", "api.example.com")
		err := req.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidURL)
		assert.Contains(t, err.Error(), "http:// or https://")
	})

	t.Run("rejects unsupported scheme", func(t *testing.T) {
		req := NewRequest("Test", "ftp://example.com")
		assert.ErrorIs(t, req.Validate(), ErrInvalidURL)
	})

	t.Run("rejects url without domain", func(t *testing.T) {
		for _, url := range []string{"https://", "http:///"} {
			req := NewRequest("Test", url)
			err := req.Validate()
			require.Error(t, err, url)
			assert.Contains(t, err.Error(), "must contain a domain")
		}
	})
}

func TestRequest_String(t *testing.T) {
	t.Run("plain request", func(t *testing.T) {
		req := NewRequest("Users", "https://example.com/users")
		assert.Equal(t, "GET https://example.com/users (Users)", req.String())
	})

	t.Run("request with headers and body", func(t *testing.T) {
		req := NewRequest("Create", "https://example.com/users").
			WithMethod(MethodPost).
			WithHeader("Accept", "application/json").
			WithBody("{}")
		assert.Equal(t, "POST https://example.com/users (Create) with 1 header(s) with body", req.String())
	})
}
