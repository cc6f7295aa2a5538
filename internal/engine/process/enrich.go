package process

import (
	"strings"
	"time"

	"github.com/law-makers/mallcrawl/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	countryUAE    = "United Arab Emirates"
	countrySaudi  = "Saudi Arabia"
	countryTurkey = "Turkey"
)

type countryKeyword struct {
	keyword string
	country string
}

// countryKeywords is searched in order against the lower-cased name and URL.
// City names double as country hints.
var countryKeywords = []countryKeyword{
	{"united arab emirates", countryUAE},
	{"uae", countryUAE},
	{"dubai", countryUAE},
	{"abu dhabi", countryUAE},
	{"sharjah", countryUAE},
	{"ajman", countryUAE},
	{"ras al khaimah", countryUAE},
	{"fujairah", countryUAE},
	{"umm al quwain", countryUAE},
	{"saudi arabia", countrySaudi},
	{"riyadh", countrySaudi},
	{"jeddah", countrySaudi},
	{"mecca", countrySaudi},
	{"medina", countrySaudi},
	{"dammam", countrySaudi},
	{"khobar", countrySaudi},
	{"taif", countrySaudi},
	{"tabuk", countrySaudi},
	{"buraidah", countrySaudi},
	{"khamis mushait", countrySaudi},
	{"al khobar", countrySaudi},
	{"al qatif", countrySaudi},
	{"yanbu", countrySaudi},
	{"hail", countrySaudi},
	{"najran", countrySaudi},
	{"jizan", countrySaudi},
	{"abha", countrySaudi},
	{"arar", countrySaudi},
	{"kuwait", "Kuwait"},
	{"qatar", "Qatar"},
	{"doha", "Qatar"},
	{"bahrain", "Bahrain"},
	{"oman", "Oman"},
	{"muscat", "Oman"},
	{"jordan", "Jordan"},
	{"amman", "Jordan"},
	{"lebanon", "Lebanon"},
	{"beirut", "Lebanon"},
	{"iraq", "Iraq"},
	{"baghdad", "Iraq"},
	{"turkey", countryTurkey},
	{"istanbul", countryTurkey},
	{"ankara", countryTurkey},
	{"izmir", countryTurkey},
	{"egypt", "Egypt"},
	{"cairo", "Egypt"},
	{"alexandria", "Egypt"},
}

// countryCities lists the cities searched once a country is known.
var countryCities = map[string][]string{
	countryUAE: {"dubai", "abu dhabi", "sharjah", "ajman", "ras al khaimah", "fujairah", "umm al quwain"},
	countrySaudi: {
		"riyadh", "jeddah", "mecca", "medina", "dammam", "khobar", "taif", "tabuk",
		"buraidah", "khamis mushait", "al khobar", "al qatif", "yanbu", "hail",
		"najran", "jizan", "abha", "arar",
	},
	countryTurkey: {
		"istanbul", "ankara", "izmir", "antalya", "bursa", "adana", "gaziantep",
		"konya", "kayseri", "mersin", "eskişehir", "denizli", "samsun", "sakarya",
		"trabzon", "erzurum", "kastamonu",
	},
}

type typeKeywords struct {
	propertyType models.PropertyType
	keywords     []string
}

// nameTypeKeywords infers a property type from the mall name. First hit wins.
var nameTypeKeywords = []typeKeywords{
	{models.PropertyOutlet, []string{"outlet", "factory", "discount"}},
	{models.PropertyRetailPark, []string{"retail park", "park"}},
	{models.PropertyLifestyle, []string{"lifestyle", "village", "town center"}},
	{models.PropertyPower, []string{"power center", "big box", "category killers"}},
	{models.PropertyBulkWarehouse, []string{"warehouse", "wholesale", "bulk"}},
	{models.PropertyCommunity, []string{"community", "local", "neighborhood"}},
	{models.PropertyRegional, []string{"regional", "major", "central"}},
	{models.PropertySuperRegional, []string{"super regional", "mega", "super", "large scale"}},
}

// InferCountry finds a country, and when listed one of its cities, in text.
func InferCountry(text string) (country, city string) {
	lower := strings.ToLower(text)
	for _, ck := range countryKeywords {
		if strings.Contains(lower, ck.keyword) {
			return ck.country, InferCity(lower, ck.country)
		}
	}
	return "", ""
}

// InferCity returns the title-cased first listed city of country found in text.
func InferCity(text, country string) string {
	lower := strings.ToLower(text)
	for _, c := range countryCities[country] {
		if strings.Contains(lower, c) {
			return cases.Title(language.English).String(c)
		}
	}
	return ""
}

// InferPropertyType guesses a type from name keywords.
func InferPropertyType(name string) models.PropertyType {
	lower := strings.ToLower(name)
	for _, tk := range nameTypeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.propertyType
			}
		}
	}
	return models.PropertyUnknown
}

// enrich fills missing geography and type from name/URL heuristics and
// stamps LastUpdated. It reports whether any field was added.
func enrich(rec *models.ValidatedRecord, now time.Time) bool {
	enriched := false
	text := rec.Name + " " + rec.URL

	switch {
	case rec.Country == "":
		country, city := InferCountry(text)
		if country != "" {
			rec.Country = country
			enriched = true
		}
		if city != "" && rec.City == "" {
			rec.City = city
			enriched = true
		}
	case rec.City == "":
		if city := InferCity(text, rec.Country); city != "" {
			rec.City = city
			enriched = true
		}
	}

	if rec.PropertyType == models.PropertyUnknown {
		if t := InferPropertyType(rec.Name); t != models.PropertyUnknown {
			rec.PropertyType = t
			enriched = true
		}
	}

	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = now
		enriched = true
	}
	return enriched
}
