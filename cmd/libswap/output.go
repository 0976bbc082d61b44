package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/plugin"
	"github.com/gnana997/libswap/pkg/scanner"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	okMark  = color.New(color.FgGreen, color.Bold).Sprint("+")
	errMark = color.New(color.FgRed, color.Bold).Sprint("!")

	noteMark = color.New(color.FgCyan).Sprint(">")
)

// writeJSON prints msgs as an indented JSON array.
func writeJSON(w io.Writer, msgs []plugin.Message) error {
	if msgs == nil {
		msgs = []plugin.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printMessages renders each message for a terminal.
func printMessages(w io.Writer, msgs []plugin.Message) {
	for _, m := range msgs {
		switch m := m.(type) {
		case plugin.ScanResult:
			if !m.OK {
				fmt.Fprintln(w, errMark, m.Error)
				continue
			}
			printScan(w, m.Data)
		case plugin.ConnectLibrary:
			fmt.Fprintln(w, yellow("No library connected."), "Run", bold("libswap libraries add <ref>"), "or", bold("libswap sync"))
		case plugin.LibrariesUpdated:
			printLibraries(w, m.Libraries)
		case plugin.FileStatus:
			state := yellow("not synced")
			if m.IsSynced {
				state = green("synced")
			}
			fmt.Fprintf(w, "%s: %s\n", bold(m.Name), state)
		case plugin.SwapComplete:
			fmt.Fprintln(w, okMark, m.Message)
		case plugin.SwapError:
			fmt.Fprintln(w, errMark, m.Message)
			for _, d := range m.Details {
				fmt.Fprintln(w, "   ", red(d))
			}
		case plugin.TargetColor:
			if m.Color == nil {
				fmt.Fprintln(w, faint("no colour"))
				continue
			}
			fmt.Fprintln(w, *m.Color)
		case plugin.TokenStatus:
			if m.HasToken {
				fmt.Fprintln(w, "token:", green("set"))
			} else {
				fmt.Fprintln(w, "token:", faint("not set"))
			}
		default:
			fmt.Fprintln(w, m.MessageType())
		}
	}
}

func printScan(w io.Writer, res *scanner.Result) {
	if res == nil {
		return
	}
	if len(res.Libraries) == 0 {
		fmt.Fprintln(w, yellow("Nothing in the selection belongs to a connected library."))
		return
	}
	for _, lib := range res.Libraries {
		fmt.Fprintf(w, "%s  %s, %s\n", bold(lib.Name),
			plural(lib.ComponentCount, "component"), plural(lib.TokenCount, "token"))
		for _, c := range res.Components {
			if c.Library == lib.Name {
				fmt.Fprintf(w, "  %s %s %s\n", cyan("C"), c.VariantName, faint(c.LiveNodeID))
			}
		}
		for _, t := range res.Tokens {
			if t.Library == lib.Name {
				fmt.Fprintf(w, "  %s %s %s\n", cyan("T"), t.Name, faint(string(t.Kind)+" "+t.ResolvedValue))
			}
		}
	}
}

func printLibraries(w io.Writer, libs []library.Library) {
	if len(libs) == 0 {
		fmt.Fprintln(w, faint("No libraries connected."))
		return
	}
	for _, l := range libs {
		synced := "never"
		if !l.LastSyncedAt.IsZero() {
			synced = l.LastSyncedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s %s  %s  %s, %s  %s\n",
			bold(l.Name), faint("("+string(l.Kind)+")"), l.ID,
			plural(len(l.Components), "component"), plural(l.TokenCount(), "token"),
			faint("synced "+synced))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// failed reports whether msgs contain a failure a script should see as a
// non-zero exit.
func failed(msgs []plugin.Message) error {
	for _, m := range msgs {
		switch m := m.(type) {
		case plugin.SwapError:
			if m.Report == nil {
				return errors.New(m.Message)
			}
			if n := len(m.Report.Errors); n > 0 {
				return fmt.Errorf("swap failed for %s", plural(n, "item"))
			}
		case plugin.ScanResult:
			if !m.OK {
				return errors.New(strings.TrimSuffix(m.Error, "."))
			}
		}
	}
	return nil
}
