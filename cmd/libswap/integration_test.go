package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain after building the binary.
var binaryPath string

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "libswap-integration-*")
	if err != nil {
		panic(err)
	}
	binaryPath = filepath.Join(tmp, "libswap")
	build := exec.Command("go", "build", "-o", binaryPath, ".")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		os.RemoveAll(tmp)
		panic("build libswap: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// --- Helpers ---

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startServer runs libswap serve over testdata/work.json with an empty
// store and returns an initialized client.
func startServer(t *testing.T) *client.Client {
	t.Helper()
	doc, err := filepath.Abs(filepath.Join("testdata", "work.json"))
	require.NoError(t, err)

	c, err := client.NewStdioMCPClient(binaryPath, nil,
		"serve", "--document", doc, "--store-dir", t.TempDir(), "--no-watch", "--log-level", "error")
	require.NoError(t, err, "start MCP server")
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "libswap-integration-test", Version: "1.0.0"}
	res, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "initialize MCP session")
	assert.Equal(t, "libswap", res.ServerInfo.Name)
	return c
}

type toolResult struct {
	Messages      []map[string]any `json:"messages"`
	Notifications []string         `json:"notifications"`
}

func call(t *testing.T, c *client.Client, tool string, args map[string]any) (*mcp.CallToolResult, toolResult) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	if args != nil {
		req.Params.Arguments = args
	}
	res, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s)", tool)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])

	var out toolResult
	if !res.IsError {
		require.NoError(t, json.Unmarshal([]byte(text.Text), &out), text.Text)
	}
	return res, out
}

func types(r toolResult) []string {
	var ts []string
	for _, m := range r.Messages {
		ts = append(ts, m["type"].(string))
	}
	return ts
}

// --- Integration tests ---

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"scan", "swap", "list_libraries", "sync_current_file", "file_status",
		"add_library", "remove_library", "refresh_library",
		"get_component_properties", "get_target_color",
	}, names)
}

func TestIntegration_ScanWithoutLibraries(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	res, out := call(t, c, "scan", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, types(out), "SHOW_CONNECT_LIBRARY_VIEW")
}

func TestIntegration_AddScanSwap(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	for _, ref := range []string{"shark", "monkey"} {
		res, out := call(t, c, "add_library", map[string]any{"ref": ref})
		require.False(t, res.IsError)
		assert.Equal(t, []string{"LIBRARIES_UPDATED"}, types(out))
	}

	_, libs := call(t, c, "list_libraries", nil)
	require.Len(t, libs.Messages, 1)
	assert.Len(t, libs.Messages[0]["libraries"], 2)

	_, scan := call(t, c, "scan", nil)
	require.Equal(t, []string{"SCAN_ALL_RESULT"}, types(scan))
	data := scan.Messages[0]["data"].(map[string]any)
	assert.Len(t, data["components"], 2)

	res, swapped := call(t, c, "swap", map[string]any{
		"source_library": "Shark",
		"target_library": "Monkey",
		"components":     []any{"Rectangle"},
		"styles":         []any{"Background"},
	})
	require.False(t, res.IsError)
	require.Equal(t, []string{"swap-complete"}, types(swapped))
	assert.Contains(t, swapped.Messages[0]["message"], "2 components and 1 styles swapped")
}

func TestIntegration_SyncAndStatus(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	_, before := call(t, c, "file_status", nil)
	require.Len(t, before.Messages, 1)
	assert.Equal(t, false, before.Messages[0]["isSynced"])

	res, _ := call(t, c, "sync_current_file", nil)
	require.False(t, res.IsError)

	_, after := call(t, c, "file_status", nil)
	assert.Equal(t, "Checkout Flow", after.Messages[0]["name"])
	assert.Equal(t, true, after.Messages[0]["isSynced"])
}

func TestIntegration_InvalidArguments(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	res, _ := call(t, c, "swap", map[string]any{"source_library": "Shark", "target_library": "Monkey"})
	assert.True(t, res.IsError)

	res, _ = call(t, c, "remove_library", nil)
	assert.True(t, res.IsError)
}
