package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/libswap/pkg/mcplog"
	"github.com/gnana997/libswap/pkg/plugin"
)

const serverVersion = "0.1.0-dev"

// Server exposes a swap session as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	session   *plugin.Session
	notes     *Notes
	logger    *mcplog.Logger // nil disables call logging
}

// NewServer creates an MCP server over sess. Toasts the session shows
// through notes are returned with the tool result that produced them;
// notes and logger may be nil.
func NewServer(sess *plugin.Session, notes *Notes, logger *mcplog.Logger) *Server {
	s := &Server{session: sess, notes: notes, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("libswap", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: scanTool(), Handler: s.handleScan},
		server.ServerTool{Tool: swapTool(), Handler: s.handleSwap},
		server.ServerTool{Tool: listLibrariesTool(), Handler: s.handleListLibraries},
		server.ServerTool{Tool: syncCurrentFileTool(), Handler: s.handleSyncCurrentFile},
		server.ServerTool{Tool: fileStatusTool(), Handler: s.handleFileStatus},
		server.ServerTool{Tool: addLibraryTool(), Handler: s.handleAddLibrary},
		server.ServerTool{Tool: removeLibraryTool(), Handler: s.handleRemoveLibrary},
		server.ServerTool{Tool: refreshLibraryTool(), Handler: s.handleRefreshLibrary},
		server.ServerTool{Tool: getComponentPropertiesTool(), Handler: s.handleGetComponentProperties},
		server.ServerTool{Tool: getTargetColorTool(), Handler: s.handleGetTargetColor},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Notes buffers toasts between tool calls. It implements host.Notifier.
type Notes struct {
	mu      sync.Mutex
	pending []string
}

// Notify queues a toast.
func (n *Notes) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, message)
}

// Drain returns and forgets the queued toasts.
func (n *Notes) Drain() []string {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}
