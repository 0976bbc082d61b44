package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands_AddScanSwap(t *testing.T) {
	store := t.TempDir()

	for _, ref := range []string{"shark", "monkey"} {
		_, err := execute(t, store, "libraries", "add", ref)
		require.NoError(t, err)
	}

	out, err := execute(t, store, "libraries")
	require.NoError(t, err)
	assert.Contains(t, out, "Shark (Remote)")
	assert.Contains(t, out, "Monkey (Remote)")

	out, err = execute(t, store, "scan", "--document", workDoc(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Shark  2 components, 1 token")

	out, err = execute(t, store, "swap", "--document", workDoc(t), "--from", "Shark", "--to", "Monkey", "-c", "Rectangle", "-s", "Background")
	require.NoError(t, err)
	assert.Contains(t, out, "Swap completed successfully!")
}

func TestCommands_ScanJSON(t *testing.T) {
	store := t.TempDir()
	_, err := execute(t, store, "libraries", "add", "shark")
	require.NoError(t, err)

	out, err := execute(t, store, "scan", "--json", "--document", workDoc(t))
	require.NoError(t, err)

	var msgs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "SCAN_ALL_RESULT", msgs[0]["type"])
	assert.Equal(t, true, msgs[0]["ok"])
}

func TestCommands_ScanMany(t *testing.T) {
	store := t.TempDir()
	_, err := execute(t, store, "libraries", "add", "shark")
	require.NoError(t, err)

	doc := workDoc(t)
	out, err := execute(t, store, "scan", "-j", "2", doc, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("== "+doc)))
}

func TestCommands_Errors(t *testing.T) {
	store := t.TempDir()

	_, err := execute(t, store, "scan")
	assert.ErrorContains(t, err, "no document")

	_, err = execute(t, store, "swap", "--document", workDoc(t), "--from", "Shark", "--to", "Monkey")
	assert.ErrorContains(t, err, "nothing to swap")

	_, err = execute(t, store, "swap", "--document", workDoc(t), "--to", "Monkey", "-c", "Rectangle")
	assert.Error(t, err)
}

func TestCommands_RemoveAndClear(t *testing.T) {
	store := t.TempDir()
	for _, ref := range []string{"shark", "monkey"} {
		_, err := execute(t, store, "libraries", "add", ref)
		require.NoError(t, err)
	}

	out, err := execute(t, store, "libraries", "remove", "shark")
	require.NoError(t, err)
	assert.NotContains(t, out, "Shark")
	assert.Contains(t, out, "Monkey")

	out, err = execute(t, store, "libraries", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "No libraries connected.")
}

func TestCommands_SyncAndStatus(t *testing.T) {
	store := t.TempDir()
	doc := workDoc(t)

	out, err := execute(t, store, "status", "--document", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Checkout Flow: not synced")

	_, err = execute(t, store, "sync", "--document", doc)
	require.NoError(t, err)

	out, err = execute(t, store, "status", "--document", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Checkout Flow: synced")
}

func TestCommands_Token(t *testing.T) {
	store := t.TempDir()

	out, err := execute(t, store, "token")
	require.NoError(t, err)
	assert.Contains(t, out, "token: not set")

	out, err = execute(t, store, "token", "set", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "token: set")

	out, err = execute(t, store, "token", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "token: not set")
}

// --- Helpers ---

func workDoc(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", "work.json"))
	require.NoError(t, err)
	return path
}

// execute runs the CLI against store and returns what it wrote to stdout.
func execute(t *testing.T, store string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(envToken, "")
	t.Setenv(envDocument, "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--store-dir", store, "--log-level", "error", "--config", filepath.Join(store, "none.yaml")}, args...))
	err := root.Execute()
	return stdout.String(), err
}
