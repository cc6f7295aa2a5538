package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List mall page URLs from the directory",
	Example: `  # Every mall page in the directory
  mallcrawl discover

  # Pages 3 and 4 of the listing as JSON
  mallcrawl discover --resume-from 3 --max-pages 2 --json`,
	Args: cobra.NoArgs,
	RunE: runWithApp(runDiscover),
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().Int("max-pages", 0, "Maximum listing pages to scan (0 = all, capped at 100)")
	discoverCmd.Flags().Int("resume-from", 1, "Listing page to start from")
}

func runDiscover(cmd *cobra.Command, a *app.Application, _ []string) error {
	start, _ := cmd.Flags().GetInt("resume-from")
	res, err := a.Discoverer.Discover(cmd.Context(), discovery.Options{
		BaseURL:   a.Config.BaseURL,
		Endpoint:  a.Config.Endpoint,
		StartPage: start,
		MaxPages:  a.Config.MaxPages,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.Config.JSONLog {
		return printJSON(out, res)
	}
	renderListing(out, res.URLs, res.Entries)
	fmt.Fprintf(out, "Scanned %d listing pages (last %d), stopped: %s\n", res.PagesVisited, res.LastPage, res.StopReason)
	return nil
}
