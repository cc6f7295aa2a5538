package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// placeTypes are the JSON-LD @type values that describe the mall itself.
var placeTypes = map[string]bool{
	"Place":          true,
	"LocalBusiness":  true,
	"ShoppingCenter": true,
	"Organization":   true,
}

func (e *Extractor) extractMetadata(doc *goquery.Document, fields *models.ExtractedFields) {
	fields.PageTitle = strPtr(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content := sel.AttrOr("content", "")
		if name, ok := sel.Attr("name"); ok {
			switch strings.ToLower(name) {
			case "description":
				if fields.Description == nil {
					fields.Description = strPtr(content)
				}
			case "keywords":
				if fields.Keywords == nil {
					fields.Keywords = splitKeywords(content)
				}
			}
		}
		if prop, ok := sel.Attr("property"); ok {
			switch strings.ToLower(prop) {
			case "og:title":
				fields.OGTitle = strPtr(content)
			case "og:description":
				fields.OGDescription = strPtr(content)
			case "og:image":
				if v := strPtr(content); v != nil {
					resolved := urlutil.ResolveURL(e.baseURL, *v)
					fields.OGImage = &resolved
				}
			}
		}
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if canonical, err := urlutil.Normalize(e.baseURL, href); err == nil {
			fields.CanonicalURL = &canonical
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			log.Debug().Err(err).Str("url", fields.URL).Msg("skipping malformed JSON-LD block")
			return
		}
		for _, obj := range flattenLD(raw) {
			fields.StructuredData = append(fields.StructuredData, obj)
			if isPlace(obj) {
				applyPlace(fields, obj)
			}
		}
	})

	seen := make(map[string]bool)
	doc.Find("[itemtype]").Each(func(_ int, sel *goquery.Selection) {
		t := strings.TrimSpace(sel.AttrOr("itemtype", ""))
		if t != "" && !seen[t] {
			seen[t] = true
			fields.Microdata = append(fields.Microdata, t)
		}
	})
}

func splitKeywords(content string) []string {
	var out []string
	for _, kw := range strings.Split(content, ",") {
		if kw = collapse(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// flattenLD unrolls top-level arrays and @graph containers into objects.
func flattenLD(v any) []map[string]any {
	switch x := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range x {
			out = append(out, flattenLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := x["@graph"]; ok {
			return flattenLD(graph)
		}
		return []map[string]any{x}
	}
	return nil
}

func isPlace(obj map[string]any) bool {
	switch t := obj["@type"].(type) {
	case string:
		return placeTypes[t]
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && placeTypes[s] {
				return true
			}
		}
	}
	return false
}

func applyPlace(fields *models.ExtractedFields, obj map[string]any) {
	if fields.FullAddress == nil {
		fields.FullAddress = ldAddress(obj["address"])
	}
	if len(fields.Phones) == 0 {
		if v := ldString(obj["telephone"]); v != nil {
			fields.Phones = []string{*v}
		}
	}
	if len(fields.Emails) == 0 {
		if v := ldString(obj["email"]); v != nil {
			fields.Emails = []string{strings.TrimPrefix(*v, "mailto:")}
		}
	}
	if fields.Website == nil {
		if v := ldString(obj["url"]); v != nil && urlutil.IsAbsoluteURL(*v) {
			fields.Website = v
		}
	}
	if fields.Description == nil {
		fields.Description = ldString(obj["description"])
	}
}

func ldString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return strPtr(s)
}

// ldAddress accepts either a plain string or a PostalAddress object.
func ldAddress(v any) *string {
	switch x := v.(type) {
	case string:
		return strPtr(x)
	case map[string]any:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
			if s := ldString(x[key]); s != nil {
				parts = append(parts, *s)
			}
		}
		return strPtr(strings.Join(parts, ", "))
	}
	return nil
}
