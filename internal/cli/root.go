// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/config"
	"github.com/law-makers/mallcrawl/internal/ui"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mallcrawl",
	Short: "Crawl the MECSR shopping centre directory",
	Long: `mallcrawl discovers mall pages in the MECSR shopping centre directory,
extracts one structured record per mall, validates and scores the records,
and stores them as JSON, CSV or SQLite.

Long crawls write checkpoints and can be resumed after an interruption.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree under ctx and maps the outcome to a process
// exit code. It is called by main.main().
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, ui.Info("Interrupted; progress up to the last checkpoint is kept"))
		return ExitInterrupted
	default:
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		return ExitError
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		app.SetupLogger(cfg)
		log.Debug().Str("user_agent", cfg.UserAgent).Str("render", cfg.RenderMode).Msg("Configuration loaded")

		if !cmd.Runnable() || GetApp(cmd) != nil {
			return nil
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(helpFunc)
	rootCmd.SetUsageFunc(usageFunc)
}

// runWithApp adapts fn to a cobra RunE. The Application is closed when fn
// returns, including on error.
func runWithApp(fn func(cmd *cobra.Command, a *app.Application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a := GetApp(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		defer func() {
			SetApp(cmd, nil)
			ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
			defer cancel()
			if cerr := a.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, a, args)
	}
}
