package plugin

import (
	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/propmap"
	"github.com/gnana997/libswap/pkg/scanner"
	"github.com/gnana997/libswap/pkg/swap"
)

// Inbound command types.
const (
	CmdScanAll           = "SCAN_ALL"
	CmdPerformSwap       = "PERFORM_LIBRARY_SWAP"
	CmdSyncCurrentFile   = "SYNC_CURRENT_FILE"
	CmdAddLibrary        = "ADD_LIBRARY"
	CmdCheckFileStatus   = "CHECK_CURRENT_FILE_STATUS"
	CmdRemoveLibrary     = "REMOVE_LIBRARY"
	CmdRefreshLibrary    = "REFRESH_LIBRARY"
	CmdClearLibraries    = "CLEAR_LIBRARIES"
	CmdReset             = "RESET_PLUGIN"
	CmdGetLibraries      = "GET_CONNECTED_LIBRARIES"
	CmdGetComponentProps = "GET_COMPONENT_PROPERTIES"
	CmdGetTargetColor    = "GET_TARGET_COLOR"
	CmdSetToken          = "SET_TOKEN"
	CmdClearToken        = "CLEAR_TOKEN"
	CmdShowToast         = "SHOW_NATIVE_TOAST"
)

// Outbound message types.
const (
	MsgScanResult       = "SCAN_ALL_RESULT"
	MsgConnectLibrary   = "SHOW_CONNECT_LIBRARY_VIEW"
	MsgLibrariesUpdated = "LIBRARIES_UPDATED"
	MsgFileStatus       = "CURRENT_FILE_STATUS"
	MsgSwapComplete     = "swap-complete"
	MsgSwapError        = "swap-error"
	MsgTargetColor      = "TARGET_COLOR_RESULT"
	MsgPropertyMapping  = "SHOW_PROPERTY_MAPPING_VIEW"
	MsgTokenStatus      = "TOKEN_STATUS"
)

// Command is one inbound message. Fields a command type does not use are
// ignored.
type Command struct {
	Type string `json:"type"`

	// PERFORM_LIBRARY_SWAP
	Components    []swap.ComponentRequest `json:"components,omitempty"`
	Styles        []swap.StyleRequest     `json:"styles,omitempty"`
	SourceLibrary string                  `json:"sourceLibrary,omitempty"`
	TargetLibrary string                  `json:"targetLibrary,omitempty"`

	// REMOVE_LIBRARY sends libraryId, REFRESH_LIBRARY sends id.
	LibraryID string `json:"libraryId,omitempty"`
	ID        string `json:"id,omitempty"`

	// ADD_LIBRARY
	Ref string `json:"ref,omitempty"`

	// GET_COMPONENT_PROPERTIES
	SourceID          string `json:"sourceId,omitempty"`
	TargetKey         string `json:"targetKey,omitempty"`
	TargetName        string `json:"targetName,omitempty"`
	TargetLibraryName string `json:"targetLibraryName,omitempty"`
	SourceLibraryName string `json:"sourceLibraryName,omitempty"`

	// GET_TARGET_COLOR
	TokenID   string `json:"tokenId,omitempty"`
	StyleName string `json:"styleName,omitempty"`

	// SET_TOKEN
	Token string `json:"token,omitempty"`

	// SHOW_NATIVE_TOAST
	Message string `json:"message,omitempty"`
}

func (c Command) libraryID() string {
	if c.LibraryID != "" {
		return c.LibraryID
	}
	return c.ID
}

// Message is one outbound message.
type Message interface {
	MessageType() string
}

type header struct {
	Type string `json:"type"`
}

func (h header) MessageType() string { return h.Type }

func typed(t string) header { return header{Type: t} }

// ScanResult carries a scan, or the reason it failed.
type ScanResult struct {
	header
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  *scanner.Result `json:"data,omitempty"`
}

// ConnectLibrary asks the UI to offer connecting a library.
type ConnectLibrary struct {
	header
}

// LibrariesUpdated carries the full registry.
type LibrariesUpdated struct {
	header
	Libraries []library.Library `json:"libraries"`
}

// FileStatus tells whether the current document is registered.
type FileStatus struct {
	header
	Name     string `json:"name"`
	IsSynced bool   `json:"isSynced"`
}

// SwapComplete reports a batch with no failures.
type SwapComplete struct {
	header
	Message string       `json:"message"`
	Report  *swap.Report `json:"report,omitempty"`
}

// SwapError reports a batch that failed partly or found nothing.
type SwapError struct {
	header
	Message string       `json:"message"`
	Details []string     `json:"details"`
	Report  *swap.Report `json:"report,omitempty"`
}

// TargetColor answers a colour preview. Color is null when unresolved.
type TargetColor struct {
	header
	TokenID string  `json:"tokenId"`
	Color   *string `json:"color"`
}

// PropertyMapping carries both sides of a property-mapping view.
type PropertyMapping struct {
	header
	*propmap.View
	TargetName        string `json:"targetName"`
	TargetLibraryName string `json:"targetLibraryName"`
	SourceLibraryName string `json:"sourceLibraryName"`
}

// TokenStatus tells whether an access credential is stored.
type TokenStatus struct {
	header
	HasToken bool `json:"hasToken"`
}
