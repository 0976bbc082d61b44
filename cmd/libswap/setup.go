package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverName = "libswap"

type agentKind int

const (
	// cliAgent registers servers through its own "mcp add" subcommand.
	cliAgent agentKind = iota
	// fileAgent keeps servers in a JSON config file we merge into.
	fileAgent
)

// agent describes one MCP client we know how to configure.
type agent struct {
	id      string
	display string
	kind    agentKind
	binary  string
	markers []string
	config  func() string
	// serversKey is "servers" for VS Code and "mcpServers" elsewhere.
	serversKey string
	scoped     bool
	extra      map[string]string
}

// found is an agent present on this machine.
type found struct {
	agent
	configPath string
	configured bool
}

// serverEntry is what gets written for libswap in an agent's config.
type serverEntry struct {
	document string
	storeDir string
}

func (e serverEntry) args() []string {
	args := []string{"serve"}
	if e.document != "" {
		args = append(args, "--document", e.document)
	}
	if e.storeDir != "" {
		args = append(args, "--store-dir", e.storeDir)
	}
	return args
}

func (e serverEntry) object(extra map[string]string) map[string]any {
	args := make([]any, 0, 4)
	for _, a := range e.args() {
		args = append(args, a)
	}
	obj := map[string]any{"command": serverName, "args": args}
	for k, v := range extra {
		obj[k] = v
	}
	return obj
}

// Replaced in tests.
var (
	lookPath = exec.LookPath
	stat     = os.Stat
	runCmd   = func(name string, args []string, stdout, stderr io.Writer) error {
		c := exec.Command(name, args...)
		c.Stdout, c.Stderr = stdout, stderr
		return c.Run()
	}
)

var knownAgents = []agent{
	{id: "claude_code", display: "Claude Code", kind: cliAgent, binary: "claude", scoped: true},
	{id: "openai_codex", display: "OpenAI Codex", kind: cliAgent, binary: "codex", scoped: true},
	{
		id: "vscode_copilot", display: "VS Code Copilot", kind: fileAgent,
		markers:    []string{".vscode"},
		config:     func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", display: "Cursor", kind: fileAgent,
		markers:    []string{".cursor"},
		config:     func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{id: "claude_desktop", display: "Claude Desktop", kind: fileAgent, config: desktopConfigPath, serversKey: "mcpServers"},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	}
	return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
}

// detect returns the known agents present on this machine, in display
// order. File agents without markers count as present when their config
// directory exists.
func detect(agents []agent) []found {
	var out []found
	for _, a := range agents {
		switch a.kind {
		case cliAgent:
			if _, err := lookPath(a.binary); err != nil {
				continue
			}
			out = append(out, found{agent: a, configured: hasServer(".mcp.json", "mcpServers")})
		case fileAgent:
			path, ok := a.locate()
			if !ok {
				continue
			}
			out = append(out, found{agent: a, configPath: path, configured: hasServer(path, a.serversKey)})
		}
	}
	return out
}

func (a agent) locate() (string, bool) {
	if a.config == nil {
		return "", false
	}
	for _, m := range a.markers {
		if _, err := stat(m); err == nil {
			return a.config(), true
		}
	}
	if len(a.markers) > 0 {
		return "", false
	}
	path := a.config()
	if _, err := stat(filepath.Dir(path)); err != nil {
		return "", false
	}
	return path, true
}

// hasServer reports whether the JSON config at path already lists libswap.
func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg map[string]any
	if json.Unmarshal(data, &cfg) != nil {
		return false
	}
	servers, _ := cfg[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// mergeServer adds the libswap entry under serversKey and returns the new
// file contents, or nil when libswap is already there.
func mergeServer(existing []byte, serversKey string, entry serverEntry, extra map[string]string) ([]byte, error) {
	cfg := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := cfg[serversKey].(map[string]any)
	if !ok {
		servers = map[string]any{}
	}
	if _, ok := servers[serverName]; ok {
		return nil, nil
	}
	servers[serverName] = entry.object(extra)
	cfg[serversKey] = servers

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeServer(f found, entry serverEntry) error {
	if err := os.MkdirAll(filepath.Dir(f.configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(f.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServer(existing, f.serversKey, entry, f.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(f.configPath, merged, 0o644)
}

func addServer(f found, scope string, entry serverEntry, stdout, stderr io.Writer) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", serverName)
	args = append(args, entry.args()...)
	return runCmd(f.binary, args, stdout, stderr)
}

// prompter reads answers line by line from one buffered reader.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) line() (string, bool) {
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// confirm defaults to yes on an empty answer or EOF.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [Y/n] ", question)
	s, ok := p.line()
	if !ok {
		return true
	}
	switch strings.ToLower(s) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope returns "project", "user", or "" to skip.
func (p *prompter) scope(name string) string {
	fmt.Fprintf(p.out, "\n%s: add the libswap MCP server?\n", name)
	fmt.Fprintln(p.out, "  [1] Project scope (shared with team)")
	fmt.Fprintln(p.out, "  [2] User scope (personal, global)")
	fmt.Fprintln(p.out, "  [3] Skip")
	fmt.Fprint(p.out, "  > ")
	s, ok := p.line()
	if !ok {
		return "project"
	}
	switch s {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

type setupRun struct {
	p     *prompter
	auto  bool
	entry serverEntry
	err   io.Writer
}

func (r *setupRun) execute(agents []agent) {
	w := r.p.out
	present := detect(agents)
	if len(present) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return
	}
	fmt.Fprintln(w, "Detected AI agents:")
	for _, f := range present {
		note := ""
		if f.configured {
			note = faint(" (already configured)")
		}
		fmt.Fprintf(w, "  * %s%s\n", f.display, note)
	}
	fmt.Fprintln(w)

	if !r.auto && !r.p.confirm("Configure agents?") {
		return
	}
	for _, f := range present {
		if f.configured {
			fmt.Fprintf(w, "%s already configured, skipping\n", f.display)
			continue
		}
		r.configure(f)
	}
}

func (r *setupRun) configure(f found) {
	w := r.p.out
	var (
		where string
		err   error
	)
	switch f.kind {
	case cliAgent:
		scope := "project"
		if !r.auto && f.scoped {
			if scope = r.p.scope(f.display); scope == "" {
				fmt.Fprintln(w, "  skipped")
				return
			}
		}
		where = "scope: " + scope
		err = addServer(f, scope, r.entry, w, r.err)
	case fileAgent:
		if !r.auto && !r.p.confirm(fmt.Sprintf("\n%s: add to %s?", f.display, f.configPath)) {
			fmt.Fprintln(w, "  skipped")
			return
		}
		where = f.configPath
		err = writeServer(f, r.entry)
	}
	if err != nil {
		fmt.Fprintf(w, "  %s %s: failed: %v\n", errMark, f.display, err)
		return
	}
	fmt.Fprintf(w, "  %s %s configured (%s)\n", okMark, f.display, where)
}

func newSetupCmd(opts *rootOptions) *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the libswap MCP server with installed AI agents",
		Long: `Detect Claude Code, Codex, VS Code, Cursor and Claude Desktop, and add
a libswap server entry to each. The entry serves the configured document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry := serverEntry{document: opts.settings.Document}
			if opts.flags.storeDir != "" {
				entry.storeDir = opts.settings.StoreDir
			}
			if entry.document != "" {
				if abs, err := filepath.Abs(entry.document); err == nil {
					entry.document = abs
				}
			}
			r := &setupRun{
				p:     &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()},
				auto:  auto,
				entry: entry,
				err:   cmd.ErrOrStderr(),
			}
			r.execute(knownAgents)
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "Configure every detected agent without prompting")
	return cmd
}
