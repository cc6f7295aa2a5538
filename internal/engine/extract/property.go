package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
)

// Canonical property keys.
const (
	keyProperty360     = "property_360_link"
	keyTypeOfProperty  = "type_of_property"
	keyMallSize        = "mall_size_sqm"
	keyGLA             = "gla_sqm"
	keyLevels          = "levels"
	keyCarParks        = "car_parks"
	keyRetailOutlets   = "retail_outlets"
	keyAnnualFootfall  = "annual_footfall"
	keyYearBuilt       = "year_built"
	keyAnchorTenants   = "anchor_tenants"
	keyOwner           = "owner_company"
	keyManagingAgent   = "managing_agent"
	keyLeasingAgent    = "leasing_agent"
	keyMainContractor  = "main_contractor"
	keyRetailSolutions = "retail_solutions_provider"
)

// propertyBlockSelectors locate the labeled key/value section, in priority order.
var propertyBlockSelectors = []string{
	`[class*="post-details"]`,
	`#post-details`,
	`.post-details`,
	`div[class*="detail"]`,
	`section[class*="detail"]`,
}

// propertyBlockMarkers identify the block when no selector matches.
var propertyBlockMarkers = []string{"Property 360 View", "Type of Property"}

// labelKeys maps cleaned, lower-cased labels to canonical keys.
var labelKeys = map[string]string{
	"property 360 view link":          keyProperty360,
	"property 360 view":               keyProperty360,
	"type of property":                keyTypeOfProperty,
	"mall size in sqm":                keyMallSize,
	"gla in sqm":                      keyGLA,
	"no of level":                     keyLevels,
	"no of levels":                    keyLevels,
	"no of car parks":                 keyCarParks,
	"no of car park":                  keyCarParks,
	"no retail outlets":               keyRetailOutlets,
	"no of retail outlets":            keyRetailOutlets,
	"annual footfall estimatedactual": keyAnnualFootfall,
	"annual footfall":                 keyAnnualFootfall,
	"year built":                      keyYearBuilt,
	"anchornotable tenants":           keyAnchorTenants,
	"anchor tenants":                  keyAnchorTenants,
	"owner company name":              keyOwner,
	"owner":                           keyOwner,
	"managing agent company name":     keyManagingAgent,
	"managing agent":                  keyManagingAgent,
	"leasing agent company name":      keyLeasingAgent,
	"leasing agent":                   keyLeasingAgent,
	"main contractor":                 keyMainContractor,
	"retail solutions provider service provider footfall retail analytics technology others": keyRetailSolutions,
	"retail solutions provider": keyRetailSolutions,
}

// numericKeys are coerced to integers by stripping non-digits.
var numericKeys = map[string]bool{
	keyMallSize:       true,
	keyGLA:            true,
	keyLevels:         true,
	keyCarParks:       true,
	keyRetailOutlets:  true,
	keyAnnualFootfall: true,
}

type fallbackPattern struct {
	key     string
	pattern *regexp.Regexp
}

// propertyFallbacks run over the block text for keys the structured pass missed.
var propertyFallbacks = []fallbackPattern{
	{keyProperty360, regexp.MustCompile(`(?im)Property 360 View Link[:\s]*([^\n]+)`)},
	{keyTypeOfProperty, regexp.MustCompile(`(?im)Type of Property[:\s]*([^\n]+)`)},
	{keyMallSize, regexp.MustCompile(`(?im)Mall Size in SQM[:\s]*([0-9,]+)`)},
	{keyGLA, regexp.MustCompile(`(?im)GLA in SQM[:\s]*([0-9,]+)`)},
	{keyLevels, regexp.MustCompile(`(?im)No\.?\s*of\s*Levels?[:\s]*([0-9]+)`)},
	{keyCarParks, regexp.MustCompile(`(?im)No\.?\s*of\s*Car\s*Parks?[:\s]*([0-9,]+)`)},
	{keyRetailOutlets, regexp.MustCompile(`(?im)No\.?\s*(?:of\s*)?Retail\s*Outlets?[:\s]*([0-9,]+)`)},
	{keyAnnualFootfall, regexp.MustCompile(`(?im)Annual\s*Footfall(?:\s*\([^)\n]*\))?[:\s]*([0-9,]+)`)},
	{keyYearBuilt, regexp.MustCompile(`(?im)Year\s*Built[:\s]*([^\n]+)`)},
	{keyOwner, regexp.MustCompile(`(?im)Owner(?:\s*\(?Company\s*Name\)?)?[:\s]*([^\n]+)`)},
	{keyManagingAgent, regexp.MustCompile(`(?im)Managing\s*Agent(?:\s*\(?Company\s*Name\)?)?[:\s]*([^\n]+)`)},
	{keyLeasingAgent, regexp.MustCompile(`(?im)Leasing\s*Agent(?:\s*\(?Company\s*Name\)?)?[:\s]*([^\n]+)`)},
	{keyMainContractor, regexp.MustCompile(`(?im)Main\s*Contractor[:\s]*([^\n]+)`)},
	{keyRetailSolutions, regexp.MustCompile(`(?im)Retail\s*Solutions\s*Provider(?:\s*\([^)\n]*\))?[:\s]*([^\n]+)`)},
}

// findPropertyBlock returns the structured property section, or nil.
func findPropertyBlock(doc *goquery.Document) *goquery.Selection {
	for _, selector := range propertyBlockSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	var block *goquery.Selection
	// Later matches are nested deeper, so the innermost container wins.
	doc.Find("div").Each(func(_ int, sel *goquery.Selection) {
		if sel.Find("div").Length() == 0 {
			return
		}
		text := sel.Text()
		for _, marker := range propertyBlockMarkers {
			if strings.Contains(text, marker) {
				block = sel
				return
			}
		}
	})
	return block
}

// cleanLabel strips punctuation and folds whitespace in a label.
func cleanLabel(label string) string {
	return collapse(nonWord.ReplaceAllString(label, ""))
}

// LabelKey maps a raw label to its canonical key. Unmapped labels fall back
// to lower-case with whitespace turned into single underscores.
func LabelKey(label string) string {
	cleaned := cleanLabel(label)
	if key, ok := labelKeys[strings.ToLower(cleaned)]; ok {
		return key
	}
	generic := strings.ToLower(cleaned)
	generic = whitespace.ReplaceAllString(generic, "_")
	generic = underscores.ReplaceAllString(generic, "_")
	return strings.Trim(generic, "_")
}

func (e *Extractor) extractProperties(doc *goquery.Document, fields *models.ExtractedFields, pageText string) {
	block := findPropertyBlock(doc)

	if block != nil {
		block.Find(`div[class*="table-view-group"]`).Each(func(_ int, group *goquery.Selection) {
			label := collapse(group.Find(`div[class*="bold"]`).First().Text())
			if label == "" {
				return
			}
			key := LabelKey(label)
			if key == "" {
				return
			}
			value, ok := e.groupValue(group.Find(`div[class*="col-sm-8"]`).First())
			if !ok {
				return
			}
			setProperty(fields, key, value)
		})
	}

	text := pageText
	if block != nil {
		text = lineText(block)
	}
	for _, fb := range propertyFallbacks {
		if hasProperty(fields, fb.key) {
			continue
		}
		m := fb.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" || strings.HasPrefix(strings.ToLower(value), "http") {
			continue
		}
		setProperty(fields, fb.key, value)
	}
}

// groupValue reads a value cell: link target first, then span text, then cell text.
func (e *Extractor) groupValue(cell *goquery.Selection) (string, bool) {
	if cell.Length() == 0 {
		return "", false
	}
	if href, ok := cell.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return urlutil.ResolveURL(e.baseURL, href), true
	}
	if span := cell.Find("span").First(); span.Length() > 0 {
		text := collapse(span.Text())
		if span.HasClass("number") {
			text = nonDigit.ReplaceAllString(text, "")
		}
		return text, text != ""
	}
	text := collapse(cell.Text())
	return text, text != ""
}

// setProperty stores a value under its canonical key unless one is already set.
func setProperty(fields *models.ExtractedFields, key, value string) {
	if hasProperty(fields, key) {
		return
	}

	if numericKeys[key] {
		n, ok := digitsToInt(value)
		if !ok {
			return
		}
		switch key {
		case keyMallSize:
			fields.MallSizeSQM = &n
		case keyGLA:
			fields.GLASQM = &n
		case keyLevels:
			fields.Levels = &n
		case keyCarParks:
			fields.CarParks = &n
		case keyRetailOutlets:
			fields.RetailOutlets = &n
		case keyAnnualFootfall:
			fields.AnnualFootfall = &n
		}
		return
	}

	v := strPtr(value)
	if v == nil {
		return
	}
	switch key {
	case keyProperty360:
		fields.Property360Link = v
	case keyTypeOfProperty:
		fields.PropertyType = v
	case keyYearBuilt:
		if year, ok := parseYear(*v); ok {
			fields.YearBuilt = &year
		}
	case keyAnchorTenants:
		fields.AnchorTenants = v
	case keyOwner:
		fields.OwnerCompany = v
	case keyManagingAgent:
		fields.ManagingAgent = v
	case keyLeasingAgent:
		fields.LeasingAgent = v
	case keyMainContractor:
		fields.MainContractor = v
	case keyRetailSolutions:
		fields.RetailSolutionsProvider = v
	default:
		if fields.Attributes == nil {
			fields.Attributes = make(map[string]string)
		}
		fields.Attributes[key] = *v
	}
}

func hasProperty(fields *models.ExtractedFields, key string) bool {
	switch key {
	case keyProperty360:
		return fields.Property360Link != nil
	case keyTypeOfProperty:
		return fields.PropertyType != nil
	case keyMallSize:
		return fields.MallSizeSQM != nil
	case keyGLA:
		return fields.GLASQM != nil
	case keyLevels:
		return fields.Levels != nil
	case keyCarParks:
		return fields.CarParks != nil
	case keyRetailOutlets:
		return fields.RetailOutlets != nil
	case keyAnnualFootfall:
		return fields.AnnualFootfall != nil
	case keyYearBuilt:
		return fields.YearBuilt != nil
	case keyAnchorTenants:
		return fields.AnchorTenants != nil
	case keyOwner:
		return fields.OwnerCompany != nil
	case keyManagingAgent:
		return fields.ManagingAgent != nil
	case keyLeasingAgent:
		return fields.LeasingAgent != nil
	case keyMainContractor:
		return fields.MainContractor != nil
	case keyRetailSolutions:
		return fields.RetailSolutionsProvider != nil
	default:
		_, ok := fields.Attributes[key]
		return ok
	}
}
