// Package extract turns a mall page's markup into loose ExtractedFields.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultScriptTimeout bounds sandboxed evaluation of one inline script.
const DefaultScriptTimeout = 250 * time.Millisecond

// Extractor is safe for concurrent use; it holds no per-page state.
type Extractor struct {
	baseURL       string
	scriptTimeout time.Duration
}

// New creates an Extractor that resolves relative links against baseURL.
func New(baseURL string, scriptTimeout time.Duration) *Extractor {
	if scriptTimeout <= 0 {
		scriptTimeout = DefaultScriptTimeout
	}
	return &Extractor{
		baseURL:       strings.TrimRight(baseURL, "/"),
		scriptTimeout: scriptTimeout,
	}
}

// Extract reads every field category from markup. It never fails: a field
// that cannot be found is left unset, and unparseable markup yields a value
// carrying only the source URL.
func (e *Extractor) Extract(markup, pageURL string) models.ExtractedFields {
	fields := models.ExtractedFields{URL: pageURL}
	if strings.TrimSpace(markup) == "" {
		return fields
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("markup could not be parsed")
		return fields
	}

	pageText := lineText(doc.Selection)

	fields.Name = e.extractName(doc, pageText, pageURL)
	e.extractProperties(doc, &fields, pageText)
	e.extractClassification(doc, &fields)
	e.extractCoordinates(doc, &fields)
	e.extractLocation(doc, &fields)
	e.extractContacts(doc, &fields, pageURL)
	e.extractTenants(doc, &fields)
	e.extractMedia(doc, &fields)
	e.extractProvenance(doc, &fields)
	e.extractMetadata(doc, &fields)
	e.extractDescription(doc, &fields)

	return fields
}
