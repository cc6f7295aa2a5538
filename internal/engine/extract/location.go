package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/mallcrawl/pkg/models"
)

const minAddressLength = 10

type countryCities struct {
	country string
	cities  []string
}

// addressCountries is checked in order; the first country name found in
// the address text wins, then its cities are tried in order.
var addressCountries = []countryCities{
	{"United Arab Emirates", []string{"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Ras Al Khaimah", "Fujairah", "Umm Al Quwain"}},
	{"Saudi Arabia", []string{"Riyadh", "Jeddah", "Mecca", "Makkah", "Medina", "Madinah", "Dammam", "Al Khobar", "Khobar", "Taif", "Tabuk", "Buraidah", "Abha"}},
	{"Qatar", []string{"Doha", "Al Wakrah", "Lusail", "Al Rayyan"}},
	{"Kuwait", []string{"Kuwait City", "Hawalli", "Salmiya", "Farwaniya", "Jahra"}},
	{"Bahrain", []string{"Manama", "Muharraq", "Riffa", "Seef"}},
	{"Oman", []string{"Muscat", "Salalah", "Sohar", "Nizwa"}},
	{"Jordan", []string{"Amman", "Irbid", "Zarqa", "Aqaba"}},
	{"Lebanon", []string{"Beirut", "Tripoli", "Sidon", "Jounieh"}},
	{"Egypt", []string{"Cairo", "Alexandria", "Giza", "New Cairo", "Sheikh Zayed"}},
	{"Turkey", []string{"Istanbul", "Ankara", "Izmir", "Antalya", "Bursa", "Adana"}},
	{"Iraq", []string{"Baghdad", "Erbil", "Basra", "Sulaymaniyah"}},
}

// MatchCountryCity returns the first known country named in text and, when
// present, one of that country's cities. It is a substring heuristic.
func MatchCountryCity(text string) (country, city string) {
	lower := strings.ToLower(text)
	for _, cc := range addressCountries {
		if !strings.Contains(lower, strings.ToLower(cc.country)) {
			continue
		}
		for _, c := range cc.cities {
			if strings.Contains(lower, strings.ToLower(c)) {
				return cc.country, c
			}
		}
		return cc.country, ""
	}
	return "", ""
}

func (e *Extractor) extractLocation(doc *goquery.Document, fields *models.ExtractedFields) {
	text := collapse(doc.Find(`div[class*="post_location_map"]`).First().Text())
	if len(text) <= minAddressLength {
		return
	}
	fields.FullAddress = &text

	country, city := MatchCountryCity(text)
	if country != "" {
		fields.Country = &country
	}
	if city != "" {
		fields.City = &city
	}
}
