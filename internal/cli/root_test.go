package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	t.Run("creates root command", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		assert.Equal(t, "colldex", cmd.Use)
		assert.Equal(t, "1.0.0", cmd.Version)
	})

	t.Run("has persistent flags", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		for _, name := range []string{"config", "base", "log-level"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		for _, name := range []string{
			"scan", "load", "list", "show", "find-request", "new", "delete",
			"validate", "migrate", "check", "lint", "search", "watch",
		} {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, name)
			assert.True(t, strings.HasPrefix(sub.Use, name), name)
		}
	})
}

func TestCollectionCommands(t *testing.T) {
	base := testBase(t)

	out, err := execute(t, "--base", base, "new", "User Service")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(base, "user-service.collection.yaml"))

	writeFile(t, filepath.Join(base, "team", "orders.collection.yaml"), ordersDoc)

	t.Run("scan lists documents relative to base", func(t *testing.T) {
		out, err := execute(t, "--base", base, "scan")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("team", "orders.collection.yaml")+"\nuser-service.collection.yaml\n", out)
	})

	t.Run("load reports counts", func(t *testing.T) {
		out, err := execute(t, "--base", base, "load")
		require.NoError(t, err)
		assert.Contains(t, out, "Loaded 2 collection(s), 2 request name(s) indexed")
	})

	t.Run("list shows names and request counts", func(t *testing.T) {
		out, err := execute(t, "--base", base, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Collections (2)")
		assert.Contains(t, out, "Orders")
		assert.Contains(t, out, "2 request(s)")
		assert.Contains(t, out, "User Service")
	})

	t.Run("show prints requests", func(t *testing.T) {
		out, err := execute(t, "--base", base, "show", "Orders")
		require.NoError(t, err)
		assert.Contains(t, out, "Collection 'Orders' (2 request(s))")
		assert.Contains(t, out, "1. GET https://shop.example.com/orders (List Orders)")
	})

	t.Run("show fails for unknown collection", func(t *testing.T) {
		_, err := execute(t, "--base", base, "show", "Nope")
		assert.Error(t, err)
	})

	t.Run("find-request prints headers and body", func(t *testing.T) {
		out, err := execute(t, "--base", base, "find-request", "Create Order")
		require.NoError(t, err)
		assert.Contains(t, out, "POST https://shop.example.com/orders (Create Order)")
		assert.Contains(t, out, "Content-Type: application/json")
		assert.Contains(t, out, `{"sku":"abc"}`)
	})

	t.Run("search ranks names", func(t *testing.T) {
		out, err := execute(t, "--base", base, "search", "ordr")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Orders"), out)

		out, err = execute(t, "--base", base, "search", "--requests", "creat")
		require.NoError(t, err)
		assert.Contains(t, out, "Create Order")
	})

	t.Run("delete removes document", func(t *testing.T) {
		out, err := execute(t, "--base", base, "delete", "user-service.collection.yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted user-service.collection.yaml")
		assert.NoFileExists(t, filepath.Join(base, "user-service.collection.yaml"))
	})

	t.Run("delete refuses paths outside base", func(t *testing.T) {
		_, err := execute(t, "--base", base, "delete", filepath.Join("..", "elsewhere.collection.yaml"))
		assert.Error(t, err)
	})
}

func TestMaintenanceCommands(t *testing.T) {
	base := testBase(t)
	dupes := filepath.Join(base, "dupes.collection.yaml")

	reset := func(t *testing.T) {
		writeFile(t, dupes, dupesDoc)
	}

	t.Run("validate reports issues without writing", func(t *testing.T) {
		reset(t)
		out, err := execute(t, "--base", base, "validate", dupes)
		require.NoError(t, err)
		assert.Contains(t, out, "Duplicate request name 'ping' at indices 0 and 1")
		assert.Contains(t, out, "Missing version metadata")

		content, err := os.ReadFile(dupes)
		require.NoError(t, err)
		assert.Equal(t, dupesDoc, string(content))
	})

	t.Run("validate --diff previews the repair", func(t *testing.T) {
		reset(t)
		out, err := execute(t, "--base", base, "validate", "--diff", dupes)
		require.NoError(t, err)
		assert.Contains(t, out, "+++ b/dupes.collection.yaml")
		assert.Contains(t, out, "ping (1)")
	})

	t.Run("validate --fix writes the repair", func(t *testing.T) {
		reset(t)
		out, err := execute(t, "--base", base, "validate", "--fix", dupes)
		require.NoError(t, err)
		assert.Contains(t, out, "Fixed 2 issue(s)")

		out, err = execute(t, "--base", base, "check", dupes)
		require.NoError(t, err)
		assert.Contains(t, out, "No issues found")
	})

	t.Run("fix and diff are exclusive", func(t *testing.T) {
		reset(t)
		_, err := execute(t, "--base", base, "validate", "--fix", "--diff", dupes)
		assert.Error(t, err)
	})

	t.Run("check fails on issues", func(t *testing.T) {
		reset(t)
		out, err := execute(t, "--base", base, "check", dupes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 issue(s) found")
		assert.Contains(t, out, "Duplicate request name")
	})

	t.Run("migrate backfills metadata", func(t *testing.T) {
		reset(t)
		out, err := execute(t, "--base", base, "migrate", dupes)
		require.NoError(t, err)
		assert.Contains(t, out, "version 1.0.0")

		content, err := os.ReadFile(dupes)
		require.NoError(t, err)
		assert.Contains(t, string(content), "created_at:")
	})

	t.Run("lint reports schema violations", func(t *testing.T) {
		bad := filepath.Join(base, "bad.collection.yaml")
		writeFile(t, bad, "name: Bad\nextra: true\n")

		out, err := execute(t, "--base", base, "lint", bad)
		require.Error(t, err)
		assert.Contains(t, out, "extra")
	})
}

func TestWatchCommand(t *testing.T) {
	base := testBase(t)
	t.Setenv("COLLDEX_WATCH_MODE", "poll")
	t.Setenv("COLLDEX_WATCH_POLL_INTERVAL", "10ms")

	out := &syncBuffer{}
	errOut := &syncBuffer{}
	cmd := NewRootCommand("test")
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--base", base, "watch"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(errOut.String(), "watching")
	}, 2*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(base, "fresh.collection.yaml"), "name: Fresh\n")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "fresh.collection.yaml")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "created")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestInvalidConfig(t *testing.T) {
	base := testBase(t)
	_, err := execute(t, "--base", base, "--log-level", "chatty", "scan")
	assert.Error(t, err)
}

// Test helpers

const ordersDoc = `name: Orders
requests:
  - name: List Orders
    method: GET
    url: https://shop.example.com/orders
  - name: Create Order
    method: POST
    url: https://shop.example.com/orders
    headers:
      Content-Type: application/json
    body: '{"sku":"abc"}'
metadata:
  version: 1.0.0
`

const dupesDoc = `name: Dupes
requests:
  - name: ping
    method: GET
    url: https://a.example.com
  - name: ping
    method: GET
    url: https://b.example.com
metadata:
  author: ops
`

// testBase isolates HOME so no user config applies and returns a fresh
// collections directory.
func testBase(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand("test")
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
