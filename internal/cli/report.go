package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/law-makers/mallcrawl/internal/discovery"
	"github.com/law-makers/mallcrawl/internal/storage"
	"github.com/law-makers/mallcrawl/internal/ui"
	"github.com/law-makers/mallcrawl/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// renderRunReport prints the crawl summary tables.
func renderRunReport(w io.Writer, r *models.RunReport) {
	t := newTable(w, "Crawl "+r.RunID)
	t.AppendRows([]table.Row{
		{"State", string(r.State)},
		{"Duration", r.Duration.Round(time.Millisecond)},
		{"URLs", r.TotalURLs},
		{"Skipped (resumed)", r.SkippedURLs},
		{"Batches", fmt.Sprintf("%d/%d", r.BatchesDone, r.Batches)},
		{"Succeeded", r.Stats.Succeeded},
		{"Failed", r.Stats.Failed},
		{"Rejected", r.Stats.Rejected},
		{"Success rate", ui.Percent(r.SuccessRate, 0.9, 0.5)},
		{"Throughput", fmt.Sprintf("%.2f URL/s", r.Throughput)},
		{"Avg latency", r.Stats.AverageLatency().Round(time.Millisecond)},
		{"Duplicates removed", r.DuplicatesRemoved},
		{"Checkpoints", r.CheckpointsWritten},
		{"Average quality", fmt.Sprintf("%.2f", r.AverageQuality)},
	})
	t.Render()

	q := newTable(w, "Quality")
	q.AppendHeader(table.Row{"Excellent", "Good", "Fair", "Poor"})
	q.AppendRow(table.Row{
		r.QualityDistribution.Excellent,
		r.QualityDistribution.Good,
		r.QualityDistribution.Fair,
		r.QualityDistribution.Poor,
	})
	q.Render()

	if len(r.DataCompleteness) > 0 {
		c := newTable(w, "Data completeness")
		c.AppendHeader(table.Row{"Field", "Filled"})
		c.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		for _, field := range sortedFields(r.DataCompleteness) {
			c.AppendRow(table.Row{field, ui.Percent(r.DataCompleteness[field], 0.8, 0.3)})
		}
		c.Render()
	}

	if len(r.Failures) > 0 {
		f := newTable(w, "Failures")
		f.AppendHeader(table.Row{"URL", "Status", "Error"})
		f.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}})
		for _, fail := range r.Failures {
			f.AppendRow(table.Row{fail.URL, fail.StatusCode, fail.Error})
		}
		f.Render()
	}

	if r.Storage != nil && r.Storage.Success {
		fmt.Fprintf(w, "%s %d records stored as %s in %s\n",
			ui.Success("✓"), r.Storage.RecordsStored, r.Storage.Format, r.Storage.StoragePath)
	}
}

func sortedFields(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderListing prints discovered entries, or bare URLs when no entry data
// was captured.
func renderListing(w io.Writer, urls []string, entries []discovery.ListingEntry) {
	t := newTable(w, fmt.Sprintf("%d mall pages", len(urls)))
	if len(entries) == 0 {
		t.AppendHeader(table.Row{"#", "URL"})
		for i, u := range urls {
			t.AppendRow(table.Row{i + 1, u})
		}
		t.Render()
		return
	}
	t.AppendHeader(table.Row{"#", "Name", "Type", "Status", "URL"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, e.Name, e.PropertyType, e.Status, e.URL})
	}
	t.Render()
}

// renderRecord prints one validated record as a two-column table.
func renderRecord(w io.Writer, r *models.ValidatedRecord) {
	t := newTable(w, r.Name)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 70}})
	row := func(k string, v any) { t.AppendRow(table.Row{k, v}) }
	row("URL", r.URL)
	row("Type", r.PropertyType)
	row("Status", r.Status)
	if r.HasCoordinates() {
		row("Coordinates", fmt.Sprintf("%.6f, %.6f", *r.Latitude, *r.Longitude))
	}
	row("Country", r.Country)
	row("City", r.City)
	row("Address", r.Address)
	row("Phone", r.Phone)
	row("Email", r.Email)
	row("Website", r.Website)
	if r.GLASqm != nil {
		row("GLA (sqm)", *r.GLASqm)
	}
	if r.GLASqft != nil {
		row("GLA (sqft)", *r.GLASqft)
	}
	if r.StoresCount != nil {
		row("Stores", *r.StoresCount)
	}
	if r.ParkingSpaces != nil {
		row("Parking", *r.ParkingSpaces)
	}
	if r.OpeningYear != nil {
		row("Opened", *r.OpeningYear)
	}
	row("Tenants", len(r.Tenants))
	row("Quality", fmt.Sprintf("%.2f", r.DataQualityScore))
	t.Render()
}

// renderStorageStats prints what the output directory holds.
func renderStorageStats(w io.Writer, st *storage.Stats, malls int) {
	t := newTable(w, "Storage "+st.Dir)
	t.AppendHeader(table.Row{"Kind", "Files", "Bytes", "Newest"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	add := func(kind string, fs storage.FileStats) {
		newest := ""
		if !fs.Newest.IsZero() {
			newest = fs.Newest.Format(time.DateTime)
		}
		t.AppendRow(table.Row{kind, fs.Files, fs.Bytes, newest})
	}
	for _, f := range models.Formats {
		add(string(f), st.Formats[f])
	}
	add("checkpoints", st.Checkpoints)
	t.AppendFooter(table.Row{"Total", "", st.TotalBytes, ""})
	t.Render()
	if malls >= 0 {
		fmt.Fprintf(w, "%d malls in the SQLite database\n", malls)
	}
}

// renderMalls prints rows read back from SQLite.
func renderMalls(w io.Writer, malls []models.ValidatedRecord) {
	t := newTable(w, "")
	t.AppendHeader(table.Row{"Name", "Type", "Country", "City", "Quality"})
	for _, m := range malls {
		t.AppendRow(table.Row{m.Name, m.PropertyType, m.Country, m.City, fmt.Sprintf("%.2f", m.DataQualityScore)})
	}
	t.Render()
}

func renderCoordinateAudit(w io.Writer, r *models.CoordinateReport) {
	t := newTable(w, "Coordinates")
	t.AppendRows([]table.Row{
		{"Records", r.TotalRecords},
		{"Valid", r.ValidCoordinates},
		{"Invalid", r.InvalidCoordinates},
		{"Missing", r.MissingCoordinates},
	})
	t.Render()
	if len(r.Issues) == 0 {
		return
	}
	i := newTable(w, "Coordinate issues")
	i.AppendHeader(table.Row{"Name", "Latitude", "Longitude", "Error"})
	for _, is := range r.Issues {
		i.AppendRow(table.Row{is.Name, is.Latitude, is.Longitude, is.Error})
	}
	i.Render()
}

// renderExports prints one line per export written.
func renderExports(w io.Writer, results []*models.StoreResult) {
	t := newTable(w, "Exports")
	t.AppendHeader(table.Row{"Format", "Records", "Path", "Error"})
	for _, r := range results {
		if r == nil {
			continue
		}
		t.AppendRow(table.Row{r.Format, r.RecordsStored, r.StoragePath, r.Error})
	}
	t.Render()
}
