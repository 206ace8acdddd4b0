// Package main is rozklad, a diagnostic CLI for the schedule engine: it
// fetches a live schedule or extracts one from a saved page.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/garyellow/lpnu-schedule-bot/internal/buildinfo"
	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
)

// Exit statuses.
const (
	exitFailure = 1
	exitUsage   = 2 // invalid group, week or other query input
)

var rootCmd = &cobra.Command{
	Use:   "rozklad",
	Short: "Fetch and inspect LPNU student schedules",
	Long: `rozklad runs the schedule engine outside the bot.

"fetch" downloads a group's schedule from the schedule site, "parse" runs the
same extraction on a page saved to disk. Settings not given as flags come from
the environment or a .env file, like the server.`,
	Version:       buildinfo.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(parseCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if domerrors.IsInvalidInput(err) {
		return exitUsage
	}
	return exitFailure
}
