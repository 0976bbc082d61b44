package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark, err)
		os.Exit(1)
	}
}

// rootOptions carries the persistent flags and, after PersistentPreRunE,
// the resolved settings.
type rootOptions struct {
	flags      flagValues
	configPath string
	settings   settings
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "libswap",
		Short: "Swap design-library components and styles in a document",
		Long: `libswap scans a document for component instances and style or variable
bindings, attributes them to connected libraries, and swaps them to the
equivalent assets of another library.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.flags.storeDir, "store-dir", "", "Directory holding the library registry (default "+defaultStoreDir+")")
	pf.StringVarP(&opts.flags.document, "document", "d", "", "Document fixture (JSON) to operate on")
	pf.StringVar(&opts.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&opts.configPath, "config", configPath, "Project config file")

	root.AddCommand(
		newServeCmd(opts),
		newScanCmd(opts),
		newSwapCmd(opts),
		newSyncCmd(opts),
		newStatusCmd(opts),
		newLibrariesCmd(opts),
		newTokenCmd(opts),
		newSetupCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) resolve() error {
	if err := loadEnv(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	cfg, err := loadProjectConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", o.configPath, err)
	}
	o.settings = resolveSettings(o.flags, cfg, os.Getenv)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "libswap %s\n", version)
		},
	}
}
