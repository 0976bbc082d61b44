package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/libswap/pkg/plugin"
	"github.com/gnana997/libswap/pkg/swap"
)

// result is the JSON body of every tool result.
type result struct {
	Messages      []plugin.Message `json:"messages"`
	Notifications []string         `json:"notifications,omitempty"`
}

// run dispatches cmd and encodes what it produced.
func (s *Server) run(ctx context.Context, cmd plugin.Command) (*mcp.CallToolResult, error) {
	msgs, err := s.session.Dispatch(ctx, cmd)
	if info := callInfoFrom(ctx); info != nil {
		info.command = cmd.Type
		info.messages = len(msgs)
	}
	notes := s.notes.Drain()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", cmd.Type, err)), nil
	}
	if msgs == nil {
		msgs = []plugin.Message{}
	}
	data, err := json.Marshal(result{Messages: msgs, Notifications: notes})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleScan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, plugin.Command{Type: plugin.CmdScanAll})
}

func (s *Server) handleSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("source_library")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("target_library")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	components := req.GetStringSlice("components", nil)
	styles := req.GetStringSlice("styles", nil)
	if len(components) == 0 && len(styles) == 0 {
		return mcp.NewToolResultError("at least one of components or styles is required"), nil
	}

	cmd := plugin.Command{Type: plugin.CmdPerformSwap, SourceLibrary: from, TargetLibrary: to}
	preserve := req.GetBool("preserve_style_overrides", false)
	for _, name := range components {
		cmd.Components = append(cmd.Components, swap.ComponentRequest{ComponentName: name, PreserveStyleOverrides: preserve})
	}
	for _, name := range styles {
		cmd.Styles = append(cmd.Styles, swap.StyleRequest{Name: name})
	}
	return s.run(ctx, cmd)
}

func (s *Server) handleListLibraries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, plugin.Command{Type: plugin.CmdGetLibraries})
}

func (s *Server) handleSyncCurrentFile(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, plugin.Command{Type: plugin.CmdSyncCurrentFile})
}

func (s *Server) handleFileStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, plugin.Command{Type: plugin.CmdCheckFileStatus})
}

func (s *Server) handleAddLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, plugin.Command{Type: plugin.CmdAddLibrary, Ref: ref})
}

func (s *Server) handleRemoveLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, plugin.Command{Type: plugin.CmdRemoveLibrary, LibraryID: id})
}

func (s *Server) handleRefreshLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, plugin.Command{Type: plugin.CmdRefreshLibrary, ID: id})
}

func (s *Server) handleGetComponentProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("target_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, plugin.Command{
		Type:              plugin.CmdGetComponentProps,
		SourceID:          src,
		TargetKey:         key,
		TargetName:        req.GetString("target_name", ""),
		SourceLibraryName: req.GetString("source_library", ""),
		TargetLibraryName: req.GetString("target_library", ""),
	})
}

func (s *Server) handleGetTargetColor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("style_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lib, err := req.RequireString("target_library")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, plugin.Command{
		Type:          plugin.CmdGetTargetColor,
		StyleName:     name,
		TargetLibrary: lib,
		TokenID:       req.GetString("token_id", ""),
	})
}
