package engine

import (
	"context"

	"github.com/law-makers/mallcrawl/pkg/models"
)

// Fetcher is the interface that all fetch engines must implement
type Fetcher interface {
	// Fetch retrieves the raw markup of the given URL. Transport failures
	// are reported in the result, never as a panic or a separate error.
	Fetch(ctx context.Context, url string) models.FetchResult

	// Name returns the name of the fetcher implementation
	Name() string

	// Close releases pooled connections or browsers.
	Close() error
}
