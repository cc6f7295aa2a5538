// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// frameworkMarkers identify client-rendered pages by their mount points.
var frameworkMarkers = []struct {
	name     string
	selector string
}{
	{"Next.js", "script#__NEXT_DATA__"},
	{"React", "[data-reactroot], div#root:empty"},
	{"Vue", "[data-v-app], div#app:empty"},
	{"Angular", "[ng-app], [ng-version]"},
	{"Svelte", "[class*='svelte-']"},
}

// PageSignals summarizes what the static markup contains.
type PageSignals struct {
	Framework   string
	ScriptCount int
	HasHeading  bool
	HasDetails  bool
	TextLength  int
}

// Inspect parses markup and collects rendering signals.
func Inspect(markup string) PageSignals {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return PageSignals{Framework: "Unknown"}
	}

	s := PageSignals{
		Framework:   "Unknown",
		ScriptCount: doc.Find("script").Length(),
		HasHeading:  doc.Find("h1").Length() > 0,
	}
	for _, m := range frameworkMarkers {
		if doc.Find(m.selector).Length() > 0 {
			s.Framework = m.name
			break
		}
	}

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")
	s.TextLength = len(text)
	lower := strings.ToLower(text)
	s.HasDetails = strings.Contains(lower, "in sqm") || strings.Contains(lower, "retail outlets") ||
		strings.Contains(lower, "year built") || strings.Contains(lower, "location:")
	return s
}

// NeedsJavaScript reports whether a detail page must be rendered before
// extraction: a known client framework, or scripts with no mall content.
func NeedsJavaScript(markup string) bool {
	return DetermineStrategy(Inspect(markup)) == StrategyDynamic
}
