package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
)

const maxVideos = 3

// decorativeMarkers identify site chrome rather than mall photos.
var decorativeMarkers = []string{"logo", "icon", "banner", "button"}

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com"}

func (e *Extractor) extractMedia(doc *goquery.Document, fields *models.ExtractedFields) {
	var images []string
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			src = strings.TrimSpace(sel.AttrOr("data-src", ""))
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		abs, err := urlutil.Normalize(e.baseURL, src)
		if err != nil {
			return
		}
		lower := strings.ToLower(abs)
		alt := strings.ToLower(sel.AttrOr("alt", ""))
		for _, m := range decorativeMarkers {
			if strings.Contains(lower, m) || strings.Contains(alt, m) {
				return
			}
		}
		if !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
	})

	if len(images) > 0 {
		fields.ImageURL = &images[0]
		fields.ImageCount = len(images)
	}

	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		lower := strings.ToLower(src)
		for _, host := range videoHosts {
			if strings.Contains(lower, host) {
				fields.Videos = append(fields.Videos, urlutil.ResolveURL(e.baseURL, src))
				break
			}
		}
		return len(fields.Videos) < maxVideos
	})
}
