package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/mallcrawl/pkg/models"
)

// tenantSearchMarker identifies tenant links: the directory links every
// tenant name to its store search.
const tenantSearchMarker = "?q="

const minTenantNameLength = 2

type categoryKeywords struct {
	category models.TenantCategory
	keywords []string
}

// TenantCategories is the keyword table used to classify tenants.
// Categories are tried in order and the first keyword hit wins.
var TenantCategories = []categoryKeywords{
	{models.CategoryFashion, []string{
		"h&m", "zara", "uniqlo", "gap", "forever21", "mango", "bershka",
		"stradivarius", "pull&bear", "massimo dutti", "oysho", "lefties",
		"giordano", "gant", "r&b", "american eagle", "mothercare", "monsoon",
		"loccitane", "sephora", "mac", "kiko milano", "the body shop",
		"victoria secret", "bath&body works", "nayomi", "aldo", "mini bounce",
	}},
	{models.CategoryFood, []string{
		"starbucks", "tim hortons", "caffe nero", "costa", "third avenue",
		"dip n dip", "india palace", "gazebo", "la brioche", "coffee club",
		"galito", "chilli", "nandos", "bursa kebap evi", "shake shack",
		"barbeque nation", "mcdonalds", "burger king", "pizza hut", "kfc",
		"sushi library", "villa beirut",
	}},
	{models.CategoryHypermarket, []string{"carrefour"}},
	{models.CategoryDepartmentStore, []string{"centrepoint", "riva", "red tag", "matalan", "max", "twenty4"}},
	{models.CategoryHomeImprovement, []string{"home centre", "2xl home", "pan home", "chattles & more"}},
	{models.CategoryEntertainment, []string{"adventure zone", "zeal entertainment centre", "fun city", "royal cinemas", "e-max"}},
	{models.CategoryElectronics, []string{"sharaf dg", "jumbo"}},
	{models.CategoryBooks, []string{"borders"}},
	{models.CategorySports, []string{
		"fitness first", "sun & sand sports", "nike", "adidas", "reebok",
		"under armour", "puma", "skechers",
	}},
	{models.CategoryPharmacy, []string{"life pharmacy", "watsons"}},
	{models.CategoryServices, []string{"yas clinic", "united furniture"}},
}

// CategorizeTenant classifies a tenant name by case-insensitive substring match.
func CategorizeTenant(name string) models.TenantCategory {
	lower := strings.ToLower(name)
	for _, ck := range TenantCategories {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category
			}
		}
	}
	return models.CategoryOther
}

func (e *Extractor) extractTenants(doc *goquery.Document, fields *models.ExtractedFields) {
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(sel.AttrOr("href", ""), tenantSearchMarker) {
			return
		}
		name := collapse(sel.Text())
		if len(name) <= minTenantNameLength {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		fields.Tenants = append(fields.Tenants, models.Tenant{
			Name:     name,
			Category: CategorizeTenant(name),
		})
	})
}
