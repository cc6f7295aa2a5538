package extract

import (
	"testing"

	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://www.mecsr.org"

const dalmaPage = `<!DOCTYPE html>
<html>
<head>
	<title>Dalma Mall - Shopping Centre | MECSR</title>
	<meta name="description" content="Dalma Mall is a super regional mall in Abu Dhabi.">
	<meta name="keywords" content="mall, abu dhabi , shopping,">
	<meta property="og:title" content="Dalma Mall">
	<link rel="canonical" href="/directory-shopping-centres/dalma-mall/">
	<script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"ShoppingCenter","name":"Dalma Mall","telephone":"+971 2 000 0000","address":{"streetAddress":"Mussafah","addressLocality":"Abu Dhabi"}}]}</script>
	<script type="application/ld+json">{not json</script>
</head>
<body>
	<h1>Dalma Mall - Shopping Centre</h1>
	<span class="badge badge-primary">Super Regional - Existing Mall</span>
	<div class="post-details">
		<div class="table-view-group"><div class="col-sm-4 bold">Type of Property:</div><div class="col-sm-8"><span>Super Regional Mall</span></div></div>
		<div class="table-view-group"><div class="col-sm-4 bold">GLA in SQM:</div><div class="col-sm-8"><span class="number">185,000</span></div></div>
		<div class="table-view-group"><div class="col-sm-4 bold">No. of Level:</div><div class="col-sm-8">3</div></div>
		<div class="table-view-group"><div class="col-sm-4 bold">Property 360 View Link:</div><div class="col-sm-8"><a href="/360/dalma">View</a></div></div>
		<div class="table-view-group"><div class="col-sm-4 bold">Parking Type:</div><div class="col-sm-8">Covered</div></div>
		<div>Year Built: 2001</div>
	</div>
	<div class="post_location_map">Mussafah Industrial Area, Abu Dhabi, United Arab Emirates</div>
	<span class="postItem" data-postid="1234" data-userid="7" data-dataid="99" data-datatype="mall"></span>
	<script>var map = initMap(parseFloat('24.3331'), parseFloat('54.5236'));</script>
	<a href="tel:+97124456000">Call</a>
	<a href="tel:+97124456000">Call again</a>
	<a href="mailto:info@dalmamall.ae">Email</a>
	<a href="https://www.facebook.com/dalmamall">Facebook</a>
	<a href="https://www.dalmamall.ae">Official website</a>
	<a href="/search/?q=Carrefour">Carrefour</a>
	<a href="/search/?q=Zara">Zara</a>
	<a href="/search/?q=Zara">Zara</a>
	<a href="/search/?q=XY">XY</a>
	<img src="/images/logo.png">
	<img src="/uploads/dalma-front.jpg">
	<img src="data:image/gif;base64,R0lGODlh" data-src="/uploads/dalma-inside.jpg">
	<iframe src="https://www.youtube.com/embed/abc"></iframe>
	<div class="post-content"><p>Dalma Mall is one of the largest malls in Abu Dhabi with <a href="/brands">over 450 stores</a>.</p></div>
</body>
</html>`

const dalmaURL = testBase + "/directory-shopping-centres/dalma-mall/"

func TestExtract_MallPage(t *testing.T) {
	f := New(testBase, 0).Extract(dalmaPage, dalmaURL)

	require.NotNil(t, f.Name)
	assert.Equal(t, "Dalma Mall", *f.Name)
	assert.Equal(t, dalmaURL, f.URL)

	require.NotNil(t, f.GLASQM)
	assert.Equal(t, 185000, *f.GLASQM)
	require.NotNil(t, f.Levels)
	assert.Equal(t, 3, *f.Levels)
	require.NotNil(t, f.YearBuilt)
	assert.Equal(t, 2001, *f.YearBuilt)
	require.NotNil(t, f.PropertyType)
	assert.Equal(t, "Super Regional Mall", *f.PropertyType)
	require.NotNil(t, f.Property360Link)
	assert.Equal(t, testBase+"/360/dalma", *f.Property360Link)
	assert.Equal(t, "Covered", f.Attributes["parking_type"])

	require.NotNil(t, f.MallType)
	assert.Equal(t, "Super Regional", *f.MallType)
	require.NotNil(t, f.Status)
	assert.Equal(t, "Existing Mall", *f.Status)

	require.NotNil(t, f.Latitude)
	require.NotNil(t, f.Longitude)
	assert.InDelta(t, 24.3331, *f.Latitude, 1e-9)
	assert.InDelta(t, 54.5236, *f.Longitude, 1e-9)

	require.NotNil(t, f.FullAddress)
	assert.Contains(t, *f.FullAddress, "Mussafah Industrial Area")
	require.NotNil(t, f.Country)
	assert.Equal(t, "United Arab Emirates", *f.Country)
	require.NotNil(t, f.City)
	assert.Equal(t, "Abu Dhabi", *f.City)

	assert.Equal(t, []string{"+97124456000"}, f.Phones)
	assert.Equal(t, []string{"info@dalmamall.ae"}, f.Emails)
	require.NotNil(t, f.Website)
	assert.Equal(t, "https://www.dalmamall.ae", *f.Website)

	assert.Equal(t, []models.Tenant{
		{Name: "Carrefour", Category: models.CategoryHypermarket},
		{Name: "Zara", Category: models.CategoryFashion},
	}, f.Tenants)

	require.NotNil(t, f.ImageURL)
	assert.Equal(t, testBase+"/uploads/dalma-front.jpg", *f.ImageURL)
	assert.Equal(t, 2, f.ImageCount)
	assert.Equal(t, []string{"https://www.youtube.com/embed/abc"}, f.Videos)

	require.NotNil(t, f.PostID)
	assert.Equal(t, "1234", *f.PostID)
	require.NotNil(t, f.DataType)
	assert.Equal(t, "mall", *f.DataType)

	require.NotNil(t, f.PageTitle)
	assert.Equal(t, "Dalma Mall - Shopping Centre | MECSR", *f.PageTitle)
	assert.Equal(t, []string{"mall", "abu dhabi", "shopping"}, f.Keywords)
	require.NotNil(t, f.OGTitle)
	assert.Equal(t, "Dalma Mall", *f.OGTitle)
	require.NotNil(t, f.CanonicalURL)
	assert.Equal(t, dalmaURL, *f.CanonicalURL)
	assert.Len(t, f.StructuredData, 1)

	require.NotNil(t, f.Description)
	assert.Equal(t, "Dalma Mall is a super regional mall in Abu Dhabi.", *f.Description)
	require.NotNil(t, f.DescriptionMarkdown)
	assert.Contains(t, *f.DescriptionMarkdown, "(https://www.mecsr.org/brands)")
}

func TestExtract_MinimalPage(t *testing.T) {
	page := `<html><body><h1>Dalma Mall - Shopping Centre</h1><p>GLA in SQM: 185,000</p></body></html>`
	f := New(testBase, 0).Extract(page, dalmaURL)

	require.NotNil(t, f.Name)
	assert.Equal(t, "Dalma Mall", *f.Name)
	require.NotNil(t, f.GLASQM)
	assert.Equal(t, 185000, *f.GLASQM)
	assert.Nil(t, f.Latitude)
	assert.Nil(t, f.Website)
	assert.Empty(t, f.Tenants)
}

func TestExtract_NeverPanics(t *testing.T) {
	e := New(testBase, 0)
	inputs := []string{
		"",
		"   \n\t ",
		"<",
		"<html><body><div class=\"post-details\"><div class=\"table-view-group\">",
		"<<<>>>&&&;;",
		"<script>parseFloat(</script>",
		"<script>var lat = ; while(</script>",
		`<script type="application/ld+json">[[[</script>`,
		"\x00\x01\x02",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			f := e.Extract(in, dalmaURL)
			assert.Equal(t, dalmaURL, f.URL)
		}, "input %q", in)
	}
}

func TestExtract_EmptyMarkupCarriesOnlyURL(t *testing.T) {
	f := New(testBase, 0).Extract("  ", dalmaURL)
	assert.Equal(t, models.ExtractedFields{URL: dalmaURL}, f)
}

func TestExtractName_FallsBackToURL(t *testing.T) {
	f := New(testBase, 0).Extract("<html><body><p>nothing here</p></body></html>", testBase+"/directory-shopping-centres/city-centre-deira/")
	require.NotNil(t, f.Name)
	assert.Equal(t, "City Centre Deira", *f.Name)
}

func TestExtractName_RejectsBylines(t *testing.T) {
	name, ok := nameFromText("Posted by Jefferson - Mall news")
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestExtractCoordinates(t *testing.T) {
	e := New(testBase, 0)
	tests := []struct {
		name    string
		body    string
		lat     float64
		lng     float64
		present bool
	}{
		{"parse calls", `<script>init(parseFloat("25.1181"), parseFloat("55.2006"))</script>`, 25.1181, 55.2006, true},
		{"boundary max", `<script>init(parseFloat(90), parseFloat(180))</script>`, 90, 180, true},
		{"boundary min", `<script>init(parseFloat(-90), parseFloat(-180))</script>`, -90, -180, true},
		{"latitude out of range", `<script>init(parseFloat(90.0001), parseFloat(10))</script>`, 0, 0, false},
		{"longitude out of range", `<script>init(parseFloat(10), parseFloat(180.0001))</script>`, 0, 0, false},
		{"second script wins when first has one call", `<script>parseFloat('1')</script><script>parseFloat('21.5');parseFloat('39.2')</script>`, 21.5, 39.2, true},
		{"globals", `<script>var lat = 24.45; var lng = 54.37;</script>`, 24.45, 54.37, true},
		{"globals with dom access", `<script>var latitude = 26.2; var longitude = 50.6; document.getElementById("map");</script>`, 26.2, 50.6, true},
		{"data attributes", `<span class="postItem" data-lat="29.37" data-lng="47.97"></span>`, 29.37, 47.97, true},
		{"out of range call pair skips fallbacks", `<script>parseFloat(95);parseFloat(10)</script><span class="postItem" data-lat="29.37" data-lng="47.97"></span>`, 0, 0, false},
		{"none", `<p>no map</p>`, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := e.Extract("<html><body>"+tt.body+"</body></html>", dalmaURL)
			if !tt.present {
				assert.Nil(t, f.Latitude)
				assert.Nil(t, f.Longitude)
				return
			}
			require.NotNil(t, f.Latitude)
			require.NotNil(t, f.Longitude)
			assert.InDelta(t, tt.lat, *f.Latitude, 1e-9)
			assert.InDelta(t, tt.lng, *f.Longitude, 1e-9)
		})
	}
}

func TestExtractCoordinates_RunawayScript(t *testing.T) {
	e := New(testBase, 0)
	f := e.Extract(`<html><body><script>var lat = 1; while (true) {}</script></body></html>`, dalmaURL)
	assert.Nil(t, f.Latitude)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(90, 180))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.False(t, ValidCoordinates(90.0001, 0))
	assert.False(t, ValidCoordinates(0, -180.0001))
}

func TestLabelKey(t *testing.T) {
	assert.Equal(t, "gla_sqm", LabelKey("GLA in SQM:"))
	assert.Equal(t, "levels", LabelKey("No. of Level"))
	assert.Equal(t, "annual_footfall", LabelKey("Annual Footfall (Estimated/Actual):"))
	assert.Equal(t, "parking_type", LabelKey("  Parking   Type: "))
	assert.Equal(t, "", LabelKey("::"))
}

func TestProperties_FallbackOnlyFillsMissing(t *testing.T) {
	page := `<div class="post-details">
		<div class="table-view-group"><div class="bold">GLA in SQM</div><div class="col-sm-8">100,000</div></div>
		<p>GLA in SQM: 5</p>
		<p>No. of Car Parks: 2,500</p>
		<p>Owner (Company Name): http://example.com</p>
	</div>`
	f := New(testBase, 0).Extract(page, dalmaURL)

	require.NotNil(t, f.GLASQM)
	assert.Equal(t, 100000, *f.GLASQM)
	require.NotNil(t, f.CarParks)
	assert.Equal(t, 2500, *f.CarParks)
	assert.Nil(t, f.OwnerCompany)
}

func TestCategorizeTenant(t *testing.T) {
	tests := map[string]models.TenantCategory{
		"Starbucks Coffee":  models.CategoryFood,
		"CARREFOUR":         models.CategoryHypermarket,
		"Home Centre":       models.CategoryHomeImprovement,
		"Sharaf DG":         models.CategoryElectronics,
		"Watsons":           models.CategoryPharmacy,
		"Fitness First":     models.CategorySports,
		"Unknown Boutique":  models.CategoryOther,
		"Borders Bookstore": models.CategoryBooks,
	}
	for name, want := range tests {
		assert.Equal(t, want, CategorizeTenant(name), name)
	}
}

func TestMatchCountryCity(t *testing.T) {
	country, city := MatchCountryCity("King Fahd Road, Riyadh, Saudi Arabia")
	assert.Equal(t, "Saudi Arabia", country)
	assert.Equal(t, "Riyadh", city)

	country, city = MatchCountryCity("Somewhere in Qatar")
	assert.Equal(t, "Qatar", country)
	assert.Empty(t, city)

	country, _ = MatchCountryCity("Paris, France")
	assert.Empty(t, country)
}

func TestWebsite_FallsBackToFirstCandidate(t *testing.T) {
	page := `<a href="https://maps.google.com/?q=1">Map</a>
		<a href="https://cdn.example.net/photo.jpg">Photo</a>
		<a href="https://mall-example.ae/en">Home</a>`
	f := New(testBase, 0).Extract(page, dalmaURL)
	require.NotNil(t, f.Website)
	assert.Equal(t, "https://mall-example.ae/en", *f.Website)
}

func TestCleanHTML(t *testing.T) {
	out, err := CleanHTML(`<div class="x" style="color:red"><script>alert(1)</script><a href="/a" onclick="x()">A</a><img src="/i.png" width="3"></div>`)
	require.NoError(t, err)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "style")
	assert.Contains(t, out, `href="/a"`)
	assert.Contains(t, out, `src="/i.png"`)
}

func TestMedia_SkipsDecorativeAltText(t *testing.T) {
	page := `<img src="/uploads/brand-mark.png" alt="Site Logo">
		<img src="/uploads/nav.png" alt="Menu BUTTON">
		<img src="/uploads/mall-front.jpg" alt="Mall entrance">`
	f := New(testBase, 0).Extract(page, dalmaURL)
	require.NotNil(t, f.ImageURL)
	assert.Equal(t, testBase+"/uploads/mall-front.jpg", *f.ImageURL)
	assert.Equal(t, 1, f.ImageCount)
}
