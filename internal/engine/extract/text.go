package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	nonDigit    = regexp.MustCompile(`\D`)
	nonWord     = regexp.MustCompile(`[^\w\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
	underscores = regexp.MustCompile(`_+`)
	yearPattern = regexp.MustCompile(`\b(\d{4})\b`)
)

// blockElements end a line when rendering an element tree as text.
var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "dd": true, "div": true,
	"dl": true, "dt": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// lineText renders a selection as plain text with one line per block
// element, so line-oriented patterns can run against it.
func lineText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = collapse(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// collapse trims and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// digitsToInt keeps only digits and parses them. A value with no digits
// (or one that overflows) is reported as absent.
func digitsToInt(s string) (int, bool) {
	digits := nonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseYear returns the first four-digit number in s.
func parseYear(s string) (int, bool) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// strPtr returns nil for blank strings.
func strPtr(s string) *string {
	s = collapse(s)
	if s == "" {
		return nil
	}
	return &s
}
