package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/mallcrawl/pkg/models"
)

// mallTypeLabels are the size classes the directory shows beside the badge.
var mallTypeLabels = []string{"super regional", "regional", "community", "neighbourhood", "neighborhood"}

// extractClassification reads the "Type - Status" badge and the size class.
func (e *Extractor) extractClassification(doc *goquery.Document, fields *models.ExtractedFields) {
	badge := collapse(doc.Find(`span[class*="badge"]`).First().Text())
	if badge != "" {
		if kind, status, ok := strings.Cut(badge, " - "); ok {
			fields.MallType = strPtr(kind)
			fields.Status = strPtr(status)
		} else {
			fields.Status = strPtr(badge)
		}
	}

	doc.Find("div.pull-left").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapse(sel.Text())
		lower := strings.ToLower(text)
		for _, label := range mallTypeLabels {
			if strings.HasPrefix(lower, label) {
				fields.MallType = &text
				return false
			}
		}
		return true
	})
}

// extractProvenance reads the site-assigned identifiers from span.postItem.
func (e *Extractor) extractProvenance(doc *goquery.Document, fields *models.ExtractedFields) {
	item := doc.Find("span.postItem").First()
	if item.Length() == 0 {
		return
	}
	attr := func(name string) *string {
		v, ok := item.Attr(name)
		if !ok {
			return nil
		}
		return strPtr(v)
	}
	fields.PostID = attr("data-postid")
	fields.UserID = attr("data-userid")
	fields.DataID = attr("data-dataid")
	fields.DataType = attr("data-datatype")
}
