// Package mcplog records one JSONL line per MCP tool call.
package mcplog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// LogEntry is one tool call.
type LogEntry struct {
	Ts     string         `json:"ts"`
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
	// Command is the session command the tool ran.
	Command       string  `json:"command,omitempty"`
	Messages      int     `json:"messages"`
	DurationMs    int64   `json:"duration_ms"`
	ResponseBytes int     `json:"response_bytes"`
	Error         *string `json:"error"`
}

// Logger appends entries to a writer. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// New logs to w. Close closes w when it is an io.Closer.
func New(w io.Writer) *Logger {
	return &Logger{w: w, enc: json.NewEncoder(w)}
}

// NewLogger opens path for appending, creating parent directories.
// An empty path returns nil, nil: a nil Logger means logging is off.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return New(f), nil
}

// Write appends one entry.
func (l *Logger) Write(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the underlying writer if it can be closed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

const shortStringMax = 64

// secretKeys are parameters whose values never reach the log.
var secretKeys = []string{"token", "access_token"}

// SanitizeParams returns a copy of args safe for logging. Secrets are
// masked, long strings become a "{key}_len" entry and lists become a
// "{key}_count" entry.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if slices.Contains(secretKeys, strings.ToLower(k)) {
			out[k] = "***"
			continue
		}
		switch val := v.(type) {
		case string:
			if len(val) > shortStringMax {
				out[k+"_len"] = len(val)
				continue
			}
		case []any:
			out[k+"_count"] = len(val)
			continue
		case []string:
			out[k+"_count"] = len(val)
			continue
		}
		out[k] = v
	}
	return out
}

// ResponseBytes is the encoded size of a result's content, or 0.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is a replaceable clock for testing.
var Now = time.Now
