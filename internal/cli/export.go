package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/storage"
	"github.com/law-makers/mallcrawl/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Convert a JSON export to other formats",
	Long: `Reads the records from a JSON export and stores them again in the output
directory, either in one format (--output-format) or in all of them (--all).`,
	Example: `  mallcrawl export data/mecsr_malls_20250314_092653.json -f csv
  mallcrawl export data/mecsr_malls_20250314_092653.json --all`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(runExport),
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output-format", "f", "", "Target format: json, csv or sqlite")
	exportCmd.Flags().Bool("all", false, "Write every format")
}

func runExport(cmd *cobra.Command, a *app.Application, args []string) error {
	export, err := storage.LoadJSON(args[0])
	if err != nil {
		return err
	}

	var results []*models.StoreResult
	if all, _ := cmd.Flags().GetBool("all"); all {
		results, err = a.Store.ExportAll(cmd.Context(), export.Malls)
	} else {
		name, _ := cmd.Flags().GetString("output-format")
		if name == "" {
			name = a.Config.OutputFormat
		}
		format, ok := models.ParseOutputFormat(name)
		if !ok {
			return invalidFormat(name)
		}
		var res *models.StoreResult
		res, err = a.Store.Store(cmd.Context(), export.Malls, format)
		results = []*models.StoreResult{res}
	}

	out := cmd.OutOrStdout()
	if a.Config.JSONLog {
		if jerr := printJSON(out, results); jerr != nil {
			return jerr
		}
		return err
	}
	renderExports(out, results)
	return err
}

func invalidFormat(name string) error {
	return engine.ConfigurationError("unknown output format " + strconv.Quote(name))
}
