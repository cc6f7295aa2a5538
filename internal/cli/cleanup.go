package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/ui"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old exports and checkpoints",
	Long: `Removes JSON and CSV exports and checkpoint files older than --older-than
from the output directory. The SQLite database is never removed.`,
	Example: `  mallcrawl cleanup --older-than 72h`,
	Args:    cobra.NoArgs,
	RunE:    runWithApp(runCleanup),
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().Duration("older-than", 7*24*time.Hour, "Remove files last modified before this long ago")
}

func runCleanup(cmd *cobra.Command, a *app.Application, _ []string) error {
	age, _ := cmd.Flags().GetDuration("older-than")
	if age <= 0 {
		return fmt.Errorf("--older-than must be > 0")
	}
	removed, err := a.Store.Cleanup(age)

	out := cmd.OutOrStdout()
	if a.Config.JSONLog {
		if jerr := printJSON(out, removed); jerr != nil {
			return jerr
		}
		return err
	}
	for _, p := range removed {
		fmt.Fprintln(out, "removed", p)
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d files removed from %s", len(removed), a.Store.Dir())))
	return err
}
