package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/libswap/pkg/mcp"
	"github.com/gnana997/libswap/pkg/mcplog"
	"github.com/gnana997/libswap/pkg/plugin"
	"github.com/gnana997/libswap/pkg/swap"
	"github.com/gnana997/libswap/pkg/util"
)

// output selects how command messages are printed.
type output struct {
	json bool
}

func (o *output) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Print raw messages as JSON")
}

func (o *output) print(w io.Writer, msgs []plugin.Message) error {
	if o.json {
		return writeJSON(w, msgs)
	}
	printMessages(w, msgs)
	return nil
}

// run opens the app and a session over the configured document, then runs
// fn with them.
func run(cmd *cobra.Command, opts *rootOptions, docRequired bool, fn func(context.Context, *plugin.Session) ([]plugin.Message, error), out *output) error {
	a, err := newApp(opts.settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.document(opts.settings.Document, docRequired)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sess, err := a.session(ctx, doc, nil)
	if err != nil {
		return err
	}
	msgs, err := fn(ctx, sess)
	if err != nil {
		return err
	}
	if err := out.print(cmd.OutOrStdout(), msgs); err != nil {
		return err
	}
	return failed(msgs)
}

// dispatch returns a run function that sends one command.
func dispatch(c plugin.Command) func(context.Context, *plugin.Session) ([]plugin.Message, error) {
	return func(ctx context.Context, s *plugin.Session) ([]plugin.Message, error) {
		return s.Dispatch(ctx, c)
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.document(opts.settings.Document, true)
			if err != nil {
				return err
			}
			notes := &mcpserver.Notes{}
			sess, err := a.session(cmd.Context(), doc, notes)
			if err != nil {
				return err
			}

			logger, err := mcplog.NewLogger(opts.settings.MCPLog)
			if err != nil {
				return err
			}
			if logger != nil {
				defer logger.Close()
			}

			if !noWatch {
				w, err := sess.Watch(a.store, opts.settings.DebounceMs)
				if err != nil {
					return err
				}
				if err := w.Start(); err != nil {
					return err
				}
				defer w.Stop()
			}

			a.log.Info("serving", "document", doc.Name(), "libraries", len(sess.Snapshot().Registered()))
			return mcpserver.NewServer(sess, notes, logger).ServeStdio()
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the registry when the store changes on disk")
	return cmd
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	var jobs int
	cmd := &cobra.Command{
		Use:   "scan [documents...]",
		Short: "Attribute the selection's components and tokens to connected libraries",
		Long: `Scan the selected frames of each document. With no arguments the
configured document is scanned. Several documents are scanned concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return run(cmd, opts, true, dispatch(plugin.Command{Type: plugin.CmdScanAll}), out)
			}
			return scanMany(cmd, opts, args, jobs, out)
		},
	}
	out.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Documents scanned at once (default: by CPU count)")
	return cmd
}

// scanMany scans each document in its own session and prints the results
// in argument order.
func scanMany(cmd *cobra.Command, opts *rootOptions, paths []string, jobs int, out *output) error {
	a, err := newApp(opts.settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if jobs <= 0 {
		jobs = opts.settings.Workers
	}
	results := make([]bytes.Buffer, len(paths))
	failures := make([]error, len(paths))
	err = util.ForEach(cmd.Context(), paths, jobs, func(ctx context.Context, i int, path string) error {
		doc, err := a.document(path, true)
		if err != nil {
			return err
		}
		sess, err := a.session(ctx, doc, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		msgs, err := sess.Dispatch(ctx, plugin.Command{Type: plugin.CmdScanAll})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		failures[i] = failed(msgs)
		return out.print(&results[i], msgs)
	})

	w := cmd.OutOrStdout()
	bad := 0
	for i, path := range paths {
		if !out.json {
			fmt.Fprintln(w, bold("== "+path))
		}
		w.Write(results[i].Bytes())
		if failures[i] != nil {
			bad++
			fmt.Fprintln(cmd.ErrOrStderr(), errMark, path+":", failures[i])
		}
	}
	if err == nil && bad > 0 {
		err = fmt.Errorf("scan failed for %s", plural(bad, "document"))
	}
	return err
}

func newSwapCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	var (
		from, to   string
		components []string
		styles     []string
		preserve   bool
	)
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap components and styles from one library to another",
		Example: `  libswap swap --from Shark --to Monkey --component Rectangle
  libswap swap --from Shark --to Monkey --component 'Button/**' --style Primary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(components) == 0 && len(styles) == 0 {
				return fmt.Errorf("nothing to swap: pass --component or --style")
			}
			c := plugin.Command{Type: plugin.CmdPerformSwap, SourceLibrary: from, TargetLibrary: to}
			for _, name := range components {
				c.Components = append(c.Components, swap.ComponentRequest{ComponentName: name, PreserveStyleOverrides: preserve})
			}
			for _, name := range styles {
				c.Styles = append(c.Styles, swap.StyleRequest{Name: name})
			}
			return run(cmd, opts, true, func(ctx context.Context, s *plugin.Session) ([]plugin.Message, error) {
				// Scanning first pins the swap to the selected frames.
				if _, err := s.Dispatch(ctx, plugin.Command{Type: plugin.CmdScanAll}); err != nil {
					return nil, err
				}
				return s.Dispatch(ctx, c)
			}, out)
		},
	}
	out.register(cmd)
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "Source library")
	f.StringVar(&to, "to", "", "Target library")
	f.StringSliceVarP(&components, "component", "c", nil, "Component name or glob pattern (repeatable)")
	f.StringSliceVarP(&styles, "style", "s", nil, "Style or variable name (repeatable)")
	f.BoolVar(&preserve, "preserve-styles", false, "Keep fill and stroke style overrides on swapped instances")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Register the document as a Local library, or refresh it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, true, dispatch(plugin.Command{Type: plugin.CmdSyncCurrentFile}), out)
		},
	}
	out.register(cmd)
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the document is registered as a library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, true, dispatch(plugin.Command{Type: plugin.CmdCheckFileStatus}), out)
		},
	}
	out.register(cmd)
	return cmd
}

func newLibrariesCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	list := dispatch(plugin.Command{Type: plugin.CmdGetLibraries})
	cmd := &cobra.Command{
		Use:     "libraries",
		Aliases: []string{"libs"},
		Short:   "List and manage connected libraries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, false, list, out)
		},
	}
	out.register(cmd)

	sub := func(use, short string, args cobra.PositionalArgs, c func([]string) plugin.Command) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, opts, false, dispatch(c(args)), out)
			},
		}
	}
	cmd.AddCommand(
		sub("list", "List connected libraries", cobra.NoArgs, func([]string) plugin.Command {
			return plugin.Command{Type: plugin.CmdGetLibraries}
		}),
		sub("add <ref>", "Connect a published library by reference", cobra.ExactArgs(1), func(a []string) plugin.Command {
			return plugin.Command{Type: plugin.CmdAddLibrary, Ref: a[0]}
		}),
		sub("remove <id>", "Disconnect a library", cobra.ExactArgs(1), func(a []string) plugin.Command {
			return plugin.Command{Type: plugin.CmdRemoveLibrary, LibraryID: a[0]}
		}),
		sub("refresh <id>", "Refresh a library's asset tables", cobra.ExactArgs(1), func(a []string) plugin.Command {
			return plugin.Command{Type: plugin.CmdRefreshLibrary, ID: a[0]}
		}),
		sub("clear", "Disconnect every library", cobra.NoArgs, func([]string) plugin.Command {
			return plugin.Command{Type: plugin.CmdClearLibraries}
		}),
	)
	for _, c := range cmd.Commands() {
		out.register(c)
	}
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	out := &output{}
	status := func(ctx context.Context, s *plugin.Session) ([]plugin.Message, error) {
		msgs, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if ts, ok := m.(plugin.TokenStatus); ok {
				return []plugin.Message{ts}, nil
			}
		}
		return nil, nil
	}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Show whether an access token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, false, status, out)
		},
	}
	set := &cobra.Command{
		Use:   "set <token>",
		Short: "Store an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, dispatch(plugin.Command{Type: plugin.CmdSetToken, Token: args[0]}), out)
		},
	}
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, false, dispatch(plugin.Command{Type: plugin.CmdClearToken}), out)
		},
	}
	cmd.AddCommand(set, clear)
	return cmd
}
