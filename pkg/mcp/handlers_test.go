package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/host/memhost"
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/mcplog"
	"github.com/gnana997/libswap/pkg/plugin"
	"github.com/gnana997/libswap/pkg/store"
	"github.com/gnana997/libswap/pkg/util"
)

// --- helpers ---

func testServer(t *testing.T, logger *mcplog.Logger) (*Server, *memhost.Doc) {
	t.Helper()
	doc, err := memhost.New(memhost.DocSpec{
		Name: "Work",
		Library: []memhost.NodeSpec{
			{Type: host.NodeComponent, ID: "L:A", Name: "Rectangle", Key: "keyA", Remote: true},
			{Type: host.NodeComponent, ID: "L:B", Name: "Rectangle", Key: "keyB", Remote: true},
		},
		Pages: []memhost.PageSpec{{ID: "0:1", Name: "Page", Children: []memhost.NodeSpec{
			{Type: host.NodeFrame, ID: "1:1", Name: "Screen", Children: []memhost.NodeSpec{
				{Type: host.NodeInstance, ID: "2:1", Name: "Rectangle", Main: "L:A"},
			}},
		}}},
		Selection: []string{"1:1"},
	})
	require.NoError(t, err)

	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, store.SaveRegistry(ctx, st, library.NewRegistry(
		library.Library{Name: "Shark", ID: "SHARKFILE", Kind: library.KindRemote, Components: map[string]string{"Rectangle": "keyA"}},
		library.Library{Name: "Monkey", ID: "MONKEYFILE", Kind: library.KindRemote, Components: map[string]string{"Rectangle": "keyB"}},
	)))

	notes := &Notes{}
	sess, err := plugin.New(doc, plugin.Options{Store: st, Notifier: notes, Logger: util.Discard()})
	require.NoError(t, err)
	_, err = sess.Load(ctx)
	require.NoError(t, err)
	return NewServer(sess, notes, logger), doc
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

type decoded struct {
	Messages      []map[string]any `json:"messages"`
	Notifications []string         `json:"notifications"`
}

func decode(t *testing.T, result *mcp.CallToolResult) decoded {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var d decoded
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &d))
	return d
}

// --- scan ---

func TestHandleScan(t *testing.T) {
	s, _ := testServer(t, nil)

	result, err := s.handleScan(context.Background(), makeRequest("scan", nil))
	require.NoError(t, err)

	d := decode(t, result)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, plugin.MsgScanResult, d.Messages[0]["type"])
	assert.Equal(t, true, d.Messages[0]["ok"])
}

// --- swap ---

func TestHandleSwap(t *testing.T) {
	s, doc := testServer(t, nil)

	result, err := s.handleSwap(context.Background(), makeRequest("swap", map[string]any{
		"source_library": "Shark",
		"target_library": "Monkey",
		"components":     []any{"Rectangle"},
	}))
	require.NoError(t, err)

	d := decode(t, result)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, plugin.MsgSwapComplete, d.Messages[0]["type"])

	main, err := doc.Node("2:1").(host.Instance).MainComponent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keyB", main.Key())
}

func TestHandleSwap_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"no arguments", nil},
		{"missing target", map[string]any{"source_library": "Shark", "components": []any{"Rectangle"}}},
		{"nothing requested", map[string]any{"source_library": "Shark", "target_library": "Monkey"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testServer(t, nil)
			result, err := s.handleSwap(context.Background(), makeRequest("swap", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

// --- libraries ---

func TestHandleLibraries(t *testing.T) {
	s, _ := testServer(t, nil)
	ctx := context.Background()

	result, err := s.handleListLibraries(ctx, makeRequest("list_libraries", nil))
	require.NoError(t, err)
	libs := decode(t, result).Messages[0]["libraries"].([]any)
	assert.Len(t, libs, 2)

	result, err = s.handleRemoveLibrary(ctx, makeRequest("remove_library", map[string]any{"id": "SHARKFILE"}))
	require.NoError(t, err)
	d := decode(t, result)
	assert.Len(t, d.Messages[0]["libraries"].([]any), 1)
	assert.Equal(t, []string{"Library removed."}, d.Notifications, "toasts travel with the result")

	result, err = s.handleListLibraries(ctx, makeRequest("list_libraries", nil))
	require.NoError(t, err)
	assert.Empty(t, decode(t, result).Notifications, "toasts are drained")
}

func TestHandleSyncAndStatus(t *testing.T) {
	s, _ := testServer(t, nil)
	ctx := context.Background()

	result, err := s.handleFileStatus(ctx, makeRequest("file_status", nil))
	require.NoError(t, err)
	assert.Equal(t, false, decode(t, result).Messages[0]["isSynced"])

	result, err = s.handleSyncCurrentFile(ctx, makeRequest("sync_current_file", nil))
	require.NoError(t, err)
	assert.Len(t, decode(t, result).Messages[0]["libraries"].([]any), 3)

	result, err = s.handleFileStatus(ctx, makeRequest("file_status", nil))
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, result).Messages[0]["isSynced"])
}

func TestHandleAddLibrary_NoSource(t *testing.T) {
	s, _ := testServer(t, nil)

	result, err := s.handleAddLibrary(context.Background(), makeRequest("add_library", map[string]any{"ref": "acme"}))
	require.NoError(t, err)

	d := decode(t, result)
	assert.Empty(t, d.Messages)
	assert.Len(t, d.Notifications, 1)
}

// --- queries ---

func TestHandleGetTargetColor_Unresolved(t *testing.T) {
	s, _ := testServer(t, nil)

	result, err := s.handleGetTargetColor(context.Background(), makeRequest("get_target_color", map[string]any{
		"style_name": "Nope", "target_library": "Monkey", "token_id": "S:1",
	}))
	require.NoError(t, err)

	m := decode(t, result).Messages[0]
	assert.Equal(t, "S:1", m["tokenId"])
	assert.Nil(t, m["color"])
}

func TestHandleGetComponentProperties(t *testing.T) {
	s, _ := testServer(t, nil)

	result, err := s.handleGetComponentProperties(context.Background(), makeRequest("get_component_properties", map[string]any{
		"source_id": "2:1", "target_key": "keyB", "target_library": "Monkey",
	}))
	require.NoError(t, err)

	m := decode(t, result).Messages[0]
	assert.Equal(t, plugin.MsgPropertyMapping, m["type"])
	assert.Equal(t, "Monkey", m["targetLibraryName"])

	result, err = s.handleGetComponentProperties(context.Background(), makeRequest("get_component_properties", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- middleware ---

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s, _ := testServer(t, mcplog.New(&buf))
	handler := s.loggingMiddleware()(s.handleRemoveLibrary)

	_, err := handler(context.Background(), makeRequest("remove_library", map[string]any{"id": "SHARKFILE"}))
	require.NoError(t, err)
	_, err = handler(context.Background(), makeRequest("remove_library", nil))
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var ok, failed mcplog.LogEntry
	require.NoError(t, json.Unmarshal(lines[0], &ok))
	require.NoError(t, json.Unmarshal(lines[1], &failed))

	assert.Equal(t, "remove_library", ok.Tool)
	assert.Equal(t, plugin.CmdRemoveLibrary, ok.Command)
	assert.Equal(t, 1, ok.Messages)
	assert.Equal(t, "SHARKFILE", ok.Params["id"])
	assert.Nil(t, ok.Error)
	assert.Positive(t, ok.ResponseBytes)

	require.NotNil(t, failed.Error)
	assert.Empty(t, failed.Command, "rejected before dispatch")
}

func TestNotes(t *testing.T) {
	var nilNotes *Notes
	assert.Nil(t, nilNotes.Drain())

	n := &Notes{}
	n.Notify("a")
	n.Notify("b")
	assert.Equal(t, []string{"a", "b"}, n.Drain())
	assert.Nil(t, n.Drain())
}
