package models

import "time"

// FetchResult is what a Fetcher returns for a single URL.
//
// A non-2xx HTTP response is still Success=true with the body captured;
// only transport-level failures set Success=false and Error.
type FetchResult struct {
	URL        string        `json:"url"`
	Success    bool          `json:"success"`
	Content    string        `json:"content,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns,omitempty"`
	FetchedAt  time.Time     `json:"fetched_at"`
}

// RawPageContent is the markup handed to the extractor.
type RawPageContent struct {
	URL       string
	Markup    string
	FetchedAt time.Time
}

// Page converts a successful fetch into extractor input.
func (r FetchResult) Page() RawPageContent {
	return RawPageContent{
		URL:       r.URL,
		Markup:    r.Content,
		FetchedAt: r.FetchedAt,
	}
}

// RenderMode selects the fetcher implementation
type RenderMode string

const (
	RenderStatic RenderMode = "static"
	RenderSPA    RenderMode = "spa"
	RenderAuto   RenderMode = "auto"
)

// OutputFormat is a persistence target understood by the storage sink
type OutputFormat string

const (
	FormatJSON   OutputFormat = "json"
	FormatCSV    OutputFormat = "csv"
	FormatSQLite OutputFormat = "sqlite"
)

// Formats lists every supported output format.
var Formats = []OutputFormat{FormatJSON, FormatCSV, FormatSQLite}

// ParseOutputFormat validates a user supplied format name.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	for _, f := range Formats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// StoreResult describes what the sink wrote.
type StoreResult struct {
	Success       bool         `json:"success"`
	Format        OutputFormat `json:"format"`
	RecordsStored int          `json:"records_stored"`
	StoragePath   string       `json:"storage_path,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Ptr returns a pointer to v. Used to populate optional fields.
func Ptr[T any](v T) *T {
	return &v
}
