package extract

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

var descriptionSelectors = []string{
	`[class*="post-content"]`,
	`[class*="description"]`,
	`.entry-content`,
	"article",
}

const minDescriptionLength = 40

// CleanHTML strips scripts, forms and embeds, and drops every attribute
// except link and image targets.
func CleanHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			var kept []html.Attribute
			for _, attr := range node.Attr {
				switch {
				case node.Data == "a" && (attr.Key == "href" || attr.Key == "title"):
					kept = append(kept, attr)
				case node.Data == "img" && (attr.Key == "src" || attr.Key == "alt"):
					kept = append(kept, attr)
				}
			}
			node.Attr = kept
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	out, err := body.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ToMarkdown converts an HTML fragment to GitHub-flavored Markdown with
// links resolved against base.
func ToMarkdown(base, fragment string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, _ *md.Options) *string {
			href, ok := selec.Attr("href")
			if !ok {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", strings.TrimSpace(content), urlutil.ResolveURL(base, href))
			return &str
		},
	})

	cleaned, err := CleanHTML(fragment)
	if err != nil {
		return "", err
	}
	return converter.ConvertString(cleaned)
}

func (e *Extractor) extractDescription(doc *goquery.Document, fields *models.ExtractedFields) {
	var block *goquery.Selection
	for _, sel := range descriptionSelectors {
		candidate := doc.Find(sel).First()
		if candidate.Length() > 0 && len(collapse(candidate.Text())) >= minDescriptionLength {
			block = candidate
			break
		}
	}
	if block == nil {
		return
	}

	if fields.Description == nil {
		fields.Description = strPtr(block.Text())
	}

	fragment, err := goquery.OuterHtml(block)
	if err != nil {
		return
	}
	markdown, err := ToMarkdown(e.baseURL, fragment)
	if err != nil {
		log.Debug().Err(err).Str("url", fields.URL).Msg("description markdown conversion failed")
		return
	}
	if markdown = strings.TrimSpace(markdown); markdown != "" {
		fields.DescriptionMarkdown = &markdown
	}
}
