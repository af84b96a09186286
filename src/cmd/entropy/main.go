// Package main is the entry point for the Entropy application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// options holds the values of the persistent flags
type options struct {
	configPath string
	envFile    string
	logLevel   string
	httpAddr   string
	serveHTTP  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "entropy [script...]",
		Short: "Explore ideas in branching conversations on a sticky-note canvas",
		Long: `Entropy keeps conversations as threads. Text selected in a reply can be
branched into a new thread, shown as a sticky note on the mindmap canvas.

Without a subcommand an interactive shell is started. Script files given as
arguments are run first, one command per line.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return runShell(cmd, opts, args)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./data/config.json", "path of the JSON config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with provider keys")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: command, error, warn, info or debug")
	rootCmd.Flags().BoolVar(&opts.serveHTTP, "http", false, "also serve the HTTP API while the shell runs")
	rootCmd.PersistentFlags().StringVar(&opts.httpAddr, "addr", "", "HTTP listen address, overrides http_addr")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return runServe(cmd, opts)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "entropy %s\n", version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}
