package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeServer(t *testing.T) {
	entry := serverEntry{document: "/work/checkout.json"}

	t.Run("empty file", func(t *testing.T) {
		out, err := mergeServer(nil, "mcpServers", entry, nil)
		require.NoError(t, err)
		assert.Equal(t, byte('\n'), out[len(out)-1])

		got := server(t, out, "mcpServers")
		assert.Equal(t, "libswap", got["command"])
		assert.Equal(t, []any{"serve", "--document", "/work/checkout.json"}, got["args"])
	})

	t.Run("keeps other servers", func(t *testing.T) {
		out, err := mergeServer([]byte(`{"mcpServers":{"other":{"command":"other"}}}`), "mcpServers", entry, nil)
		require.NoError(t, err)

		var cfg map[string]map[string]any
		require.NoError(t, json.Unmarshal(out, &cfg))
		assert.Contains(t, cfg["mcpServers"], "other")
		assert.Contains(t, cfg["mcpServers"], "libswap")
	})

	t.Run("already configured", func(t *testing.T) {
		out, err := mergeServer([]byte(`{"mcpServers":{"libswap":{"command":"libswap"}}}`), "mcpServers", entry, nil)
		assert.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("vscode format", func(t *testing.T) {
		out, err := mergeServer(nil, "servers", serverEntry{}, map[string]string{"type": "stdio"})
		require.NoError(t, err)

		got := server(t, out, "servers")
		assert.Equal(t, "stdio", got["type"])
		assert.Equal(t, []any{"serve"}, got["args"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := mergeServer([]byte("not json"), "mcpServers", entry, nil)
		assert.ErrorContains(t, err, "invalid JSON")
	})
}

func TestServerEntry_Args(t *testing.T) {
	e := serverEntry{document: "doc.json", storeDir: "/tmp/store"}
	assert.Equal(t, []string{"serve", "--document", "doc.json", "--store-dir", "/tmp/store"}, e.args())
}

func TestPrompter(t *testing.T) {
	tests := []struct {
		input   string
		confirm bool
		scope   string
	}{
		{"\n", true, "project"},
		{"", true, "project"},
		{"y\n", true, ""},
		{"YES\n", true, ""},
		{"n\n", false, ""},
		{"1\n", false, "project"},
		{"2\n", false, "user"},
		{"3\n", false, ""},
	}
	for _, tt := range tests {
		t.Run("confirm "+strings.TrimSpace(tt.input), func(t *testing.T) {
			p := newPrompter(tt.input)
			assert.Equal(t, tt.confirm, p.confirm("Continue?"))
		})
		t.Run("scope "+strings.TrimSpace(tt.input), func(t *testing.T) {
			p := newPrompter(tt.input)
			assert.Equal(t, tt.scope, p.scope("Claude Code"))
		})
	}
}

func TestPrompter_SharesBuffer(t *testing.T) {
	p := newPrompter("y\n2\n")
	assert.True(t, p.confirm("Configure agents?"))
	assert.Equal(t, "user", p.scope("Codex"))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		bins    []string
		dirs    []string
		want    []string
		wantCfg string
	}{
		{name: "none"},
		{name: "cli on path", bins: []string{"claude"}, want: []string{"claude_code"}},
		{name: "vscode marker", dirs: []string{".vscode"}, want: []string{"vscode_copilot"}, wantCfg: filepath.Join(".vscode", "mcp.json")},
		{name: "mixed keeps order", bins: []string{"codex"}, dirs: []string{".cursor"}, want: []string{"openai_codex", "cursor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSystem(t, tt.bins, tt.dirs)

			got := detect(knownAgents)
			var ids []string
			for _, f := range got {
				ids = append(ids, f.id)
			}
			assert.Equal(t, tt.want, ids)
			if tt.wantCfg != "" {
				assert.Equal(t, tt.wantCfg, got[0].configPath)
			}
		})
	}
}

func TestSetup_NoAgents(t *testing.T) {
	stubSystem(t, nil, nil)

	var out bytes.Buffer
	r := &setupRun{p: &prompter{in: bufio.NewReader(strings.NewReader("")), out: &out}, err: io.Discard}
	r.execute(knownAgents)
	assert.Contains(t, out.String(), "No supported AI agents detected.")
}

func TestSetup_AutoFileAgent(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(".vscode", 0o755))
	stubSystem(t, nil, nil)
	stat = os.Stat

	var out bytes.Buffer
	r := &setupRun{
		p:     &prompter{in: bufio.NewReader(strings.NewReader("")), out: &out},
		auto:  true,
		entry: serverEntry{document: "/work/checkout.json"},
		err:   io.Discard,
	}
	r.execute(knownAgents)

	data, err := os.ReadFile(filepath.Join(".vscode", "mcp.json"))
	require.NoError(t, err)
	got := server(t, data, "servers")
	assert.Equal(t, "libswap", got["command"])
	assert.Equal(t, "stdio", got["type"])
	assert.Contains(t, out.String(), "VS Code Copilot configured")

	// A second run sees the entry and leaves the file alone.
	out.Reset()
	r.execute(knownAgents)
	assert.Contains(t, out.String(), "already configured")
}

func TestSetup_CLIAgent(t *testing.T) {
	stubSystem(t, []string{"claude"}, nil)
	var gotName string
	var gotArgs []string
	runCmd = func(name string, args []string, _, _ io.Writer) error {
		gotName, gotArgs = name, args
		return nil
	}

	var out bytes.Buffer
	r := &setupRun{
		p:     &prompter{in: bufio.NewReader(strings.NewReader("y\n2\n")), out: &out},
		entry: serverEntry{document: "/work/checkout.json"},
		err:   io.Discard,
	}
	r.execute(knownAgents)

	assert.Equal(t, "claude", gotName)
	assert.Equal(t, []string{"mcp", "add", "--scope", "user", "libswap", "--", "libswap", "serve", "--document", "/work/checkout.json"}, gotArgs)
	assert.Contains(t, out.String(), "Claude Code configured (scope: user)")
}

func TestWriteServer_MergesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"other":{"command":"other"}}}`), 0o644))

	f := found{agent: agent{serversKey: "mcpServers"}, configPath: path}
	require.NoError(t, writeServer(f, serverEntry{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg["mcpServers"], "other")
	assert.Contains(t, cfg["mcpServers"], "libswap")
}

// --- Helpers ---

func newPrompter(input string) *prompter {
	return &prompter{in: bufio.NewReader(strings.NewReader(input)), out: io.Discard}
}

func server(t *testing.T, data []byte, key string) map[string]any {
	t.Helper()
	var cfg map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	got, ok := cfg[key]["libswap"]
	require.True(t, ok, "no libswap entry under %s", key)
	return got
}

// stubSystem fakes the binaries on PATH and the directories that exist.
// Claude Desktop's config directory never exists.
func stubSystem(t *testing.T, bins, dirs []string) {
	t.Helper()
	origLook, origStat, origRun := lookPath, stat, runCmd
	t.Cleanup(func() { lookPath, stat, runCmd = origLook, origStat, origRun })

	lookPath = func(name string) (string, error) {
		for _, b := range bins {
			if b == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	stat = func(name string) (os.FileInfo, error) {
		for _, d := range dirs {
			if d == name {
				return nil, nil
			}
		}
		return nil, os.ErrNotExist
	}
	runCmd = func(string, []string, io.Writer, io.Writer) error { return nil }
}
