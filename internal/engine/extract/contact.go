package extract

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
)

const (
	maxContacts      = 3
	maxWebsiteLength = 300
)

// skippedDomains never count as a mall's own website.
var skippedDomains = []string{
	"facebook.com", "twitter.com", "instagram.com", "linkedin.com",
	"youtube.com", "google.com", "maps.google.com", "x.com",
	"ik.imagekit.io", "imagekit.io",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp"}

var websiteKeywords = []string{"website", "official", "visit", "www.", ".com", ".net", ".org"}

func (e *Extractor) extractContacts(doc *goquery.Document, fields *models.ExtractedFields, pageURL string) {
	fields.Phones = schemeLinks(doc, "tel:")
	fields.Emails = schemeLinks(doc, "mailto:")
	fields.Website = e.findWebsite(doc, pageURL)
}

// schemeLinks collects unique link targets with the given scheme prefix.
func schemeLinks(doc *goquery.Document, scheme string) []string {
	var values []string
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !strings.HasPrefix(strings.ToLower(href), scheme) {
			return true
		}
		value := href[len(scheme):]
		if i := strings.IndexByte(value, '?'); i >= 0 {
			value = value[:i]
		}
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			return true
		}
		seen[value] = true
		values = append(values, value)
		return len(values) < maxContacts
	})
	return values
}

// findWebsite picks the mall's own external site. A keyword match wins;
// otherwise the first acceptable external link is used.
func (e *Extractor) findWebsite(doc *goquery.Document, pageURL string) *string {
	site := pageURL
	if !urlutil.IsAbsoluteURL(site) {
		site = e.baseURL
	}

	var fallback string
	var match string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !acceptableWebsite(href, site, e.baseURL) {
			return true
		}
		if fallback == "" {
			fallback = href
		}
		text := strings.ToLower(sel.Text() + " " + sel.Parent().Text() + " " + href)
		for _, kw := range websiteKeywords {
			if strings.Contains(text, kw) {
				match = href
				return false
			}
		}
		return true
	})

	if match != "" {
		return &match
	}
	if fallback != "" {
		return &fallback
	}
	return nil
}

func acceptableWebsite(href, site, base string) bool {
	if !urlutil.IsAbsoluteURL(href) || len(href) > maxWebsiteLength {
		return false
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	if urlutil.SameSite(href, site) || urlutil.SameSite(href, base) {
		return false
	}
	for _, d := range skippedDomains {
		if urlutil.HostMatches(u.Hostname(), d) {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, img := range imageExtensions {
		if ext == img {
			return false
		}
	}
	return true
}
