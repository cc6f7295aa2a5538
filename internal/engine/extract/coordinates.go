package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// parseFloatCall matches a float-parse call applied to a numeric literal.
var parseFloatCall = regexp.MustCompile(`parseFloat\(\s*['"]?(-?[0-9.]+)['"]?\s*\)`)

var (
	latitudeGlobals  = []string{"lat", "latitude", "mapLat"}
	longitudeGlobals = []string{"lng", "lon", "longitude", "mapLng"}
)

// ValidCoordinates reports whether lat/lng fall inside [-90,90] and [-180,180].
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (e *Extractor) extractCoordinates(doc *goquery.Document, fields *models.ExtractedFields) {
	scripts := inlineScripts(doc)

	if lat, lng, found := coordinatesFromCalls(scripts); found {
		if ValidCoordinates(lat, lng) {
			fields.Latitude, fields.Longitude = &lat, &lng
		}
		return
	}

	if lat, lng, ok := e.coordinatesFromGlobals(scripts); ok && ValidCoordinates(lat, lng) {
		fields.Latitude, fields.Longitude = &lat, &lng
		return
	}

	item := doc.Find("span.postItem").First()
	latAttr, okLat := item.Attr("data-lat")
	lngAttr, okLng := item.Attr("data-lng")
	if !okLat || !okLng {
		return
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latAttr), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(lngAttr), 64)
	if errLat == nil && errLng == nil && ValidCoordinates(lat, lng) {
		fields.Latitude, fields.Longitude = &lat, &lng
	}
}

func inlineScripts(doc *goquery.Document) []string {
	var scripts []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		if t, ok := sel.Attr("type"); ok && strings.Contains(t, "json") {
			return
		}
		if text := sel.Text(); strings.TrimSpace(text) != "" {
			scripts = append(scripts, text)
		}
	})
	return scripts
}

// coordinatesFromCalls takes the first script whose first two parseFloat
// literals both parse. found is true once such a script exists, even if
// the pair is later rejected as out of range.
func coordinatesFromCalls(scripts []string) (lat, lng float64, found bool) {
	for _, script := range scripts {
		matches := parseFloatCall.FindAllStringSubmatch(script, 2)
		if len(matches) < 2 {
			continue
		}
		a, errA := strconv.ParseFloat(matches[0][1], 64)
		b, errB := strconv.ParseFloat(matches[1][1], 64)
		if errA != nil || errB != nil {
			continue
		}
		return a, b, true
	}
	return 0, 0, false
}

// coordinatesFromGlobals runs inline scripts in a sandbox and reads
// coordinate-named globals. Each script is interrupted after scriptTimeout.
func (e *Extractor) coordinatesFromGlobals(scripts []string) (lat, lng float64, ok bool) {
	candidates := make([]string, 0, len(scripts))
	for _, s := range scripts {
		if strings.Contains(strings.ToLower(s), "lat") {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, false
	}

	vm := goja.New()
	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("console", map[string]interface{}{
		"log":   func(goja.FunctionCall) goja.Value { return goja.Undefined() },
		"error": func(goja.FunctionCall) goja.Value { return goja.Undefined() },
	})

	for _, script := range candidates {
		timer := time.AfterFunc(e.scriptTimeout, func() {
			vm.Interrupt("script timeout")
		})
		if _, err := vm.RunString(script); err != nil {
			// Most page scripts reference a DOM the sandbox does not have.
			log.Debug().Err(err).Msg("inline script evaluation stopped")
		}
		timer.Stop()
		vm.ClearInterrupt()
	}

	lat, okLat := numericGlobal(vm, latitudeGlobals)
	lng, okLng := numericGlobal(vm, longitudeGlobals)
	return lat, lng, okLat && okLng
}

func numericGlobal(vm *goja.Runtime, names []string) (float64, bool) {
	for _, name := range names {
		v := vm.Get(name)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			continue
		}
		switch x := v.Export().(type) {
		case float64:
			return x, true
		case int64:
			return float64(x), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
