package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const minNameLength = 3

// nameSuffixes are template suffixes appended to the mall name in headings.
var nameSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*-\s*Shopping Centre.*$`),
	regexp.MustCompile(`(?i)\s*-\s*Retail Properties.*$`),
}

// nameTextPatterns find a name next to marker tokens in the page text.
var nameTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Mall Size in SQM:\s*\d+.*?([A-Za-z\s]+?)(?:\s*-|\s*\|)`),
	regexp.MustCompile(`([A-Za-z\s]+?)(?:\s*-|\s*\|).*?Mall`),
}

// nameStopWords disqualify text-pattern candidates that caught a byline.
var nameStopWords = []string{"posted", "by", "jefferson"}

func (e *Extractor) extractName(doc *goquery.Document, pageText, pageURL string) *string {
	if name, ok := nameFromHeading(doc); ok {
		return &name
	}
	if name, ok := nameFromText(pageText); ok {
		return &name
	}
	if name, ok := nameFromURL(pageURL); ok {
		return &name
	}
	return nil
}

func nameFromHeading(doc *goquery.Document) (string, bool) {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return "", false
	}
	name := collapse(h1.Text())
	for _, suffix := range nameSuffixes {
		name = suffix.ReplaceAllString(name, "")
	}
	name = strings.TrimSpace(name)
	return name, len(name) > minNameLength
}

func nameFromText(text string) (string, bool) {
	for _, pattern := range nameTextPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := collapse(m[1])
		if len(candidate) <= minNameLength || hasStopWord(candidate) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func hasStopWord(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range nameStopWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func nameFromURL(pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" {
		return "", false
	}
	segment := path.Base(strings.TrimRight(u.Path, "/"))
	if segment == "." || segment == "/" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	// cases.Caser is stateful; one per call.
	name := cases.Title(language.English).String(collapse(segment))
	return name, len(name) > minNameLength
}
