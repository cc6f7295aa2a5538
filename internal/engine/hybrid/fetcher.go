// internal/engine/hybrid/fetcher.go
package hybrid

import (
	"context"
	"errors"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// Fetcher fetches statically and falls back to the browser for pages that
// look client-rendered.
type Fetcher struct {
	static  engine.Fetcher
	dynamic engine.Fetcher
}

// New combines a static and a rendering fetcher.
func New(static, dynamic engine.Fetcher) *Fetcher {
	return &Fetcher{static: static, dynamic: dynamic}
}

func (f *Fetcher) Name() string {
	return "auto"
}

// Fetch returns the static result unless the markup needs rendering and the
// rendered fetch succeeds.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) models.FetchResult {
	res := f.static.Fetch(ctx, pageURL)
	if !res.Success {
		return res
	}

	signals := Inspect(res.Content)
	if DetermineStrategy(signals) != StrategyDynamic {
		return res
	}

	log.Debug().
		Str("url", pageURL).
		Str("framework", signals.Framework).
		Int("scripts", signals.ScriptCount).
		Msg("Page needs rendering")

	rendered := f.dynamic.Fetch(ctx, pageURL)
	if !rendered.Success {
		log.Debug().Str("url", pageURL).Str("error", rendered.Error).Msg("Render failed, keeping static markup")
		return res
	}
	rendered.Elapsed += res.Elapsed
	return rendered
}

// Close closes both fetchers.
func (f *Fetcher) Close() error {
	return errors.Join(f.static.Close(), f.dynamic.Close())
}
