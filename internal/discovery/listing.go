package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/mallcrawl/internal/engine"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
)

const (
	// DefaultEndpoint is the directory listing path.
	DefaultEndpoint = "/directory-shopping-centres"
	// DetailMarker appears in every mall detail link.
	DetailMarker = "/directory-shopping-centres/"
)

const containerSelector = "div[class*='search_result'], div[class*='search-result-item']"

// nextLinkText matches pager labels such as "Next", "Next »" and "»" but
// not mall names that merely contain the word.
var nextLinkText = regexp.MustCompile(`(?i)^(next(\s+page)?\s*[»›>]*|[»›>]+)$`)

// ListingEntry is the summary of one mall shown on a listing page.
type ListingEntry struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	PropertyType string   `json:"property_type,omitempty"`
	Status       string   `json:"status,omitempty"`
	PostID       string   `json:"post_id,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	DataID       string   `json:"data_id,omitempty"`
	DataType     string   `json:"data_type,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// PageURL returns the listing URL for page n: the bare endpoint for page 1,
// ?page=n after that.
func PageURL(baseURL, endpoint string, n int) (string, error) {
	if n < 1 {
		return "", engine.ConfigurationError(fmt.Sprintf("page number must be >= 1, got %d", n))
	}
	root := strings.TrimRight(baseURL, "/") + endpoint
	if n == 1 {
		return root, nil
	}
	return root + "?page=" + strconv.Itoa(n), nil
}

// PageURLs returns listing URLs for pages start through end inclusive.
func PageURLs(baseURL, endpoint string, start, end int) ([]string, error) {
	if start < 1 {
		return nil, engine.ConfigurationError(fmt.Sprintf("start page must be >= 1, got %d", start))
	}
	if end < start {
		return nil, engine.ConfigurationError(fmt.Sprintf("end page (%d) must be >= start page (%d)", end, start))
	}
	urls := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		u, _ := PageURL(baseURL, endpoint, n)
		urls = append(urls, u)
	}
	return urls, nil
}

func parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "parse listing page", err)
	}
	return doc, nil
}

// isDetailLink reports whether href points at a mall page rather than at
// the directory root.
func isDetailLink(href string) bool {
	i := strings.Index(href, DetailMarker)
	if i < 0 {
		return false
	}
	rest := strings.Trim(href[i+len(DetailMarker):], "/")
	return rest != "" && !strings.HasPrefix(rest, "?") && !strings.HasPrefix(rest, "#")
}

// ExtractLinks returns the absolute detail URLs on a listing page, in page
// order, without duplicates.
func ExtractLinks(markup, baseURL string) ([]string, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !isDetailLink(href) {
			return
		}
		if u, err := urlutil.Normalize(baseURL, href); err == nil {
			links = append(links, u)
		}
	})
	return urlutil.Unique(links), nil
}

// ExtractEntries reads the listing containers. Entries without both a name
// and a detail URL are skipped.
func ExtractEntries(markup, baseURL string) ([]ListingEntry, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var entries []ListingEntry
	doc.Find(containerSelector).Each(func(_ int, c *goquery.Selection) {
		// Wrappers such as div.search_results hold the real containers.
		if c.Find(containerSelector).Length() > 0 {
			return
		}
		entry, ok := readEntry(c, baseURL)
		if !ok || seen[entry.URL] {
			return
		}
		seen[entry.URL] = true
		entries = append(entries, entry)
	})
	return entries, nil
}

func readEntry(c *goquery.Selection, baseURL string) (ListingEntry, bool) {
	var entry ListingEntry

	// Prefer a link with both a title and meaningful text.
	var best *goquery.Selection
	c.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !isDetailLink(href) {
			return true
		}
		title, _ := a.Attr("title")
		text := strings.TrimSpace(a.Text())
		if title != "" && len(text) > 3 {
			best = a
			return false
		}
		if best == nil && (title != "" || text != "") {
			best = a
		}
		return true
	})
	if best == nil {
		return entry, false
	}

	entry.Name, _ = best.Attr("title")
	if entry.Name == "" {
		entry.Name = strings.Join(strings.Fields(best.Text()), " ")
	}
	href, _ := best.Attr("href")
	u, err := urlutil.Normalize(baseURL, href)
	if err != nil || entry.Name == "" {
		return entry, false
	}
	entry.URL = u

	entry.PropertyType = strings.TrimSpace(c.Find("span[class*='pull-left']").First().Text())
	entry.Status = strings.TrimSpace(c.Find("span[class*='badge']").First().Text())

	if item := c.Find("span.postItem").First(); item.Length() > 0 {
		entry.PostID = item.AttrOr("data-postid", "")
		entry.UserID = item.AttrOr("data-userid", "")
		entry.DataID = item.AttrOr("data-dataid", "")
		entry.DataType = item.AttrOr("data-datatype", "")
		lat, errLat := strconv.ParseFloat(item.AttrOr("data-lat", ""), 64)
		lng, errLng := strconv.ParseFloat(item.AttrOr("data-lng", ""), 64)
		if errLat == nil && errLng == nil {
			entry.Latitude, entry.Longitude = &lat, &lng
		}
	}
	return entry, true
}

// HasNextPage reports whether the listing page links to a following page.
func HasNextPage(markup string) bool {
	doc, err := parse(markup)
	if err != nil {
		return false
	}
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if nextLinkText.MatchString(strings.TrimSpace(a.Text())) {
			found = true
			return false
		}
		return true
	})
	return found
}
