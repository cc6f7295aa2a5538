package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/engine/process"
	"github.com/law-makers/mallcrawl/internal/storage"
	"github.com/law-makers/mallcrawl/internal/ui"
	"github.com/law-makers/mallcrawl/pkg/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored exports, checkpoints and database contents",
	Example: `  # Summary of the output directory
  mallcrawl stats

  # Best UAE malls from the SQLite database
  mallcrawl stats --country "United Arab Emirates" --min-quality 0.8 --limit 20

  # Check stored coordinates
  mallcrawl stats --audit-coordinates`,
	Args: cobra.NoArgs,
	RunE: runWithApp(runStats),
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("country", "", "List malls in this country")
	statsCmd.Flags().String("type", "", "List malls of this property type")
	statsCmd.Flags().Float64("min-quality", 0, "List malls scoring at least this")
	statsCmd.Flags().Int("limit", 0, "Maximum malls to list")
	statsCmd.Flags().Bool("audit-coordinates", false, "Report stored malls with missing or out-of-range coordinates")
}

// statsOutput is the JSON shape printed by stats --json.
type statsOutput struct {
	Storage *storage.Stats           `json:"storage"`
	Malls   *int                     `json:"malls_in_database,omitempty"`
	Listed  []models.ValidatedRecord `json:"malls,omitempty"`
	Audit   *models.CoordinateReport `json:"coordinate_audit,omitempty"`
}

func runStats(cmd *cobra.Command, a *app.Application, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, err := a.Store.Stats()
	if err != nil {
		return err
	}
	res := statsOutput{Storage: st}

	// Querying opens the database, which would create an empty one.
	if _, err := os.Stat(a.Store.DatabasePath()); err == nil {
		n, err := a.Store.Count(ctx, storage.Filter{})
		if err != nil {
			return err
		}
		res.Malls = &n

		filter := statsFilter(cmd)
		if filter != (storage.Filter{}) {
			if res.Listed, err = a.Store.QueryMalls(ctx, filter); err != nil {
				return err
			}
		}
		if audit, _ := cmd.Flags().GetBool("audit-coordinates"); audit {
			all, err := a.Store.QueryMalls(ctx, storage.Filter{})
			if err != nil {
				return err
			}
			report := process.ValidateCoordinates(all)
			res.Audit = &report
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if a.Config.JSONLog {
		return printJSON(out, res)
	}

	malls := -1
	if res.Malls != nil {
		malls = *res.Malls
	}
	renderStorageStats(out, st, malls)
	if len(res.Listed) > 0 {
		renderMalls(out, res.Listed)
	}
	if res.Audit != nil {
		renderCoordinateAudit(out, res.Audit)
	}
	if res.Malls == nil && statsFilter(cmd) != (storage.Filter{}) {
		fmt.Fprintln(out, ui.Warn("No SQLite database yet; run a crawl with -f sqlite"))
	}
	return nil
}

func statsFilter(cmd *cobra.Command) storage.Filter {
	var f storage.Filter
	f.Country, _ = cmd.Flags().GetString("country")
	kind, _ := cmd.Flags().GetString("type")
	if kind != "" {
		f.PropertyType = process.NormalizePropertyType(kind)
	}
	f.MinQuality, _ = cmd.Flags().GetFloat64("min-quality")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	return f
}
