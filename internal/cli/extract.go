package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/ui"
	"github.com/law-makers/mallcrawl/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url|file>",
	Short: "Extract and validate a single mall page",
	Long: `Fetches one mall page, or reads saved HTML from a file, and prints the
validated record. Useful for checking selectors against a page.`,
	Example: `  # Live page
  mallcrawl extract https://www.mecsr.org/directory-shopping-centres/dalma-mall/

  # Saved page, showing every extracted field
  mallcrawl extract dalma.html --page-url https://www.mecsr.org/directory-shopping-centres/dalma-mall/ --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(runExtract),
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("page-url", "", "URL the saved file was fetched from")
	extractCmd.Flags().Bool("raw", false, "Print every extracted field as JSON")
}

// extraction is the JSON shape printed by extract --json.
type extraction struct {
	Fields    models.ExtractedFields  `json:"fields"`
	Record    *models.ValidatedRecord `json:"record,omitempty"`
	Rejection string                  `json:"rejection,omitempty"`
}

func runExtract(cmd *cobra.Command, a *app.Application, args []string) error {
	markup, pageURL, err := loadPage(cmd, a, args[0])
	if err != nil {
		return err
	}

	res := extraction{Fields: a.Extractor.Extract(markup, pageURL)}
	processed := a.Processor.Process([]models.ExtractedFields{res.Fields})
	switch {
	case len(processed.Valid) == 1:
		res.Record = &processed.Valid[0]
	case len(processed.Invalid) == 1:
		res.Rejection = processed.Invalid[0].Reason
	}

	out := cmd.OutOrStdout()
	if raw, _ := cmd.Flags().GetBool("raw"); raw || a.Config.JSONLog {
		return printJSON(out, res)
	}
	if res.Record == nil {
		fmt.Fprintln(out, ui.Error("Rejected: "+res.Rejection))
		return nil
	}
	renderRecord(out, res.Record)
	return nil
}

// loadPage reads target as a file when one exists, otherwise fetches it.
func loadPage(cmd *cobra.Command, a *app.Application, target string) (markup, pageURL string, err error) {
	if info, statErr := os.Stat(target); statErr == nil && !info.IsDir() {
		data, err := os.ReadFile(target)
		if err != nil {
			return "", "", err
		}
		pageURL, _ = cmd.Flags().GetString("page-url")
		if pageURL == "" {
			slug := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
			pageURL = strings.TrimRight(a.Config.BaseURL, "/") + a.Config.Endpoint + "/" + slug + "/"
		}
		return string(data), pageURL, nil
	}

	res := a.Fetcher.Fetch(cmd.Context(), target)
	if !res.Success {
		return "", "", engine.FetchError(target, fmt.Errorf("%s", res.Error))
	}
	if res.StatusCode >= 400 {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn(fmt.Sprintf("HTTP %d, extracting anyway", res.StatusCode)))
	}
	return res.Content, target, nil
}
