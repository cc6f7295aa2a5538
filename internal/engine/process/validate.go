package process

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
)

const (
	maxNameLength   = 200
	minOpeningYear  = 1800
	futureYearSlack = 10

	// sqmToSqft converts square metres to square feet.
	sqmToSqft = 10.764
)

// propertyTypes maps lower-cased free text to the closed property type set.
var propertyTypes = map[string]models.PropertyType{
	"super regional centre": models.PropertySuperRegional,
	"super regional center": models.PropertySuperRegional,
	"super-regional centre": models.PropertySuperRegional,
	"super-regional center": models.PropertySuperRegional,
	"super regional":        models.PropertySuperRegional,
	"regional centre":       models.PropertyRegional,
	"regional center":       models.PropertyRegional,
	"regional":              models.PropertyRegional,
	"community centre":      models.PropertyCommunity,
	"community center":      models.PropertyCommunity,
	"community":             models.PropertyCommunity,
	"neighbourhood centre":  models.PropertyNeighbourhood,
	"neighborhood centre":   models.PropertyNeighbourhood,
	"neighborhood center":   models.PropertyNeighbourhood,
	"neighbourhood":         models.PropertyNeighbourhood,
	"neighborhood":          models.PropertyNeighbourhood,
	"retail park":           models.PropertyRetailPark,
	"outlet centre":         models.PropertyOutlet,
	"outlet center":         models.PropertyOutlet,
	"lifestyle centre":      models.PropertyLifestyle,
	"lifestyle center":      models.PropertyLifestyle,
	"power centre":          models.PropertyPower,
	"power center":          models.PropertyPower,
	"bulk warehouse":        models.PropertyBulkWarehouse,
}

var statuses = map[string]models.MallStatus{
	"existing mall":      models.StatusExisting,
	"existing":           models.StatusExisting,
	"upcoming mall":      models.StatusUpcoming,
	"upcoming":           models.StatusUpcoming,
	"under construction": models.StatusUnderConstruction,
	"construction":       models.StatusUnderConstruction,
	"closed":             models.StatusClosed,
	"temporarily closed": models.StatusClosed,
}

// NormalizePropertyType maps free text to a PropertyType. A trailing "mall"
// is ignored, so "Super Regional Mall" and "Super Regional" agree.
func NormalizePropertyType(text string) models.PropertyType {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if t, ok := propertyTypes[key]; ok {
		return t
	}
	if t, ok := propertyTypes[strings.TrimSuffix(key, " mall")]; ok {
		return t
	}
	return models.PropertyUnknown
}

// NormalizeStatus maps free text to a MallStatus.
func NormalizeStatus(text string) models.MallStatus {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if s, ok := statuses[key]; ok {
		return s
	}
	return models.StatusUnknown
}

// Validate projects loose fields onto a ValidatedRecord. The URL is checked
// for shape only; normalization is a separate step.
func Validate(f models.ExtractedFields, now time.Time) (models.ValidatedRecord, error) {
	var rec models.ValidatedRecord

	name := ""
	if f.Name != nil {
		name = strings.TrimSpace(*f.Name)
	}
	if name == "" {
		return rec, engine.ValidationError("name", engine.ErrEmptyName)
	}
	if n := utf8.RuneCountInString(name); n > maxNameLength {
		return rec, invalid("name", fmt.Sprintf("%d characters exceeds %d", n, maxNameLength))
	}

	rawURL := strings.TrimSpace(f.URL)
	if rawURL == "" {
		return rec, engine.ValidationError("url", engine.ErrInvalidURL)
	}
	if _, err := url.Parse(rawURL); err != nil {
		return rec, engine.ValidationError("url", err)
	}

	if f.Latitude != nil && (*f.Latitude < -90 || *f.Latitude > 90) {
		return rec, invalid("latitude", fmt.Sprintf("%v not in [-90, 90]", *f.Latitude))
	}
	if f.Longitude != nil && (*f.Longitude < -180 || *f.Longitude > 180) {
		return rec, invalid("longitude", fmt.Sprintf("%v not in [-180, 180]", *f.Longitude))
	}
	if f.YearBuilt != nil {
		maxYear := now.Year() + futureYearSlack
		if *f.YearBuilt < minOpeningYear || *f.YearBuilt > maxYear {
			return rec, invalid("opening_year", fmt.Sprintf("%d not in [%d, %d]", *f.YearBuilt, minOpeningYear, maxYear))
		}
	}
	for _, c := range []struct {
		field string
		value *int
	}{
		{"gla_sqm", f.GLASQM},
		{"stores_count", f.RetailOutlets},
		{"parking_spaces", f.CarParks},
	} {
		if c.value != nil && *c.value < 0 {
			return rec, invalid(c.field, fmt.Sprintf("%d is negative", *c.value))
		}
	}

	rec = models.ValidatedRecord{
		URL:            rawURL,
		Name:           name,
		PropertyType:   propertyTypeOf(f),
		Status:         models.StatusUnknown,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		Country:        deref(f.Country),
		City:           deref(f.City),
		Address:        deref(f.FullAddress),
		Website:        deref(f.Website),
		GLASqm:         f.GLASQM,
		MallSizeSqm:    f.MallSizeSQM,
		StoresCount:    f.RetailOutlets,
		ParkingSpaces:  f.CarParks,
		Levels:         f.Levels,
		AnnualFootfall: f.AnnualFootfall,
		OpeningYear:    f.YearBuilt,
		OwnerCompany:   deref(f.OwnerCompany),
		ManagingAgent:  deref(f.ManagingAgent),
		LeasingAgent:   deref(f.LeasingAgent),
		Tenants:        f.Tenants,
		ImageURL:       deref(f.ImageURL),
		ImageCount:     f.ImageCount,
		Description:    deref(f.Description),
		PostID:         deref(f.PostID),
		UserID:         deref(f.UserID),
		DataID:         deref(f.DataID),
		DataType:       deref(f.DataType),
	}
	if f.Status != nil {
		rec.Status = NormalizeStatus(*f.Status)
	}
	if len(f.Phones) > 0 {
		rec.Phone = f.Phones[0]
	}
	if len(f.Emails) > 0 {
		rec.Email = f.Emails[0]
	}
	if f.GLASQM != nil {
		sqft := int(math.Round(float64(*f.GLASQM) * sqmToSqft))
		rec.GLASqft = &sqft
	}
	return rec, nil
}

// propertyTypeOf prefers the "Type of Property" attribute and falls back to
// the badge's mall type.
func propertyTypeOf(f models.ExtractedFields) models.PropertyType {
	if f.PropertyType != nil {
		if t := NormalizePropertyType(*f.PropertyType); t != models.PropertyUnknown {
			return t
		}
	}
	if f.MallType != nil {
		return NormalizePropertyType(*f.MallType)
	}
	return models.PropertyUnknown
}

func invalid(field, reason string) error {
	return engine.ValidationError(field, fmt.Errorf("%w: %s", engine.ErrOutOfRange, reason))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
