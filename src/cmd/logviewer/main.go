// Package main is a terminal viewer for the Entropy log files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rate time.Duration

	cmd := &cobra.Command{
		Use:   "logviewer [log directory]",
		Short: "Follow the Entropy log files",
		Long: `Monitors all *.log files in the log directory (default ./logs) and prints
the JSON entries in a compact, coloured format.

Type any character to add to the filter, backspace to remove the last
character. Press Ctrl-C to exit.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "./logs"
			if len(args) == 1 {
				dir = args[0]
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("log directory %q does not exist", dir)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, dir, rate)
		},
	}
	cmd.Flags().DurationVarP(&rate, "rate", "r", time.Second, "refresh rate")
	return cmd
}

func run(ctx context.Context, dir string, rate time.Duration) error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("failed to open keyboard: %w", err)
	}
	defer func() {
		_ = keyboard.Close()
		fmt.Print("\033[?25h") // show cursor
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := newViewer(dir, os.Stdout)
	fmt.Printf("Monitoring logs in directory: %s\n", dir)
	fmt.Printf("Refresh rate: %s\n", rate)
	fmt.Println("Start typing to filter logs. Press Ctrl-C to exit.")
	go v.run(ctx, rate)

	keys, err := keyboard.GetKeys(10)
	if err != nil {
		return fmt.Errorf("failed to read keys: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nExiting...")
			return nil
		case ev := <-keys:
			if ev.Err != nil {
				return fmt.Errorf("failed to read key: %w", ev.Err)
			}
			var filter string
			switch ev.Key {
			case keyboard.KeyCtrlC, keyboard.KeyEsc:
				fmt.Println("\nExiting...")
				return nil
			case keyboard.KeyBackspace, keyboard.KeyBackspace2:
				filter = v.typeFilter(0, true)
			case keyboard.KeySpace:
				filter = v.typeFilter(' ', false)
			default:
				if ev.Rune == 0 {
					continue
				}
				filter = v.typeFilter(ev.Rune, false)
			}
			fmt.Printf("\rCurrent filter: %s", filter)
		}
	}
}
