package models

import "time"

// TenantCategory is the closed set of tenant classifications.
type TenantCategory string

const (
	CategoryFashion         TenantCategory = "fashion"
	CategoryFood            TenantCategory = "food"
	CategoryHypermarket     TenantCategory = "hypermarket"
	CategoryDepartmentStore TenantCategory = "department_store"
	CategoryHomeImprovement TenantCategory = "home_improvement"
	CategoryEntertainment   TenantCategory = "entertainment"
	CategoryElectronics     TenantCategory = "electronics"
	CategoryBooks           TenantCategory = "books"
	CategorySports          TenantCategory = "sports"
	CategoryPharmacy        TenantCategory = "pharmacy"
	CategoryServices        TenantCategory = "services"
	CategoryOther           TenantCategory = "other"
)

// Tenant is a store listed on a mall page.
type Tenant struct {
	Name     string         `json:"name"`
	Category TenantCategory `json:"category"`
}

// PropertyType is the normalized mall classification.
type PropertyType string

const (
	PropertySuperRegional PropertyType = "super_regional_centre"
	PropertyRegional      PropertyType = "regional_centre"
	PropertyCommunity     PropertyType = "community_centre"
	PropertyNeighbourhood PropertyType = "neighbourhood_centre"
	PropertyRetailPark    PropertyType = "retail_park"
	PropertyOutlet        PropertyType = "outlet_centre"
	PropertyLifestyle     PropertyType = "lifestyle_centre"
	PropertyPower         PropertyType = "power_centre"
	PropertyBulkWarehouse PropertyType = "bulk_warehouse"
	PropertyUnknown       PropertyType = "unknown"
)

// MallStatus is the normalized development status.
type MallStatus string

const (
	StatusExisting          MallStatus = "existing"
	StatusUpcoming          MallStatus = "upcoming"
	StatusUnderConstruction MallStatus = "under_construction"
	StatusClosed            MallStatus = "closed"
	StatusUnknown           MallStatus = "unknown"
)

// ExtractedFields is the loose output of the extractor. Every pointer or
// slice field is optional; nil means the page did not carry the value.
type ExtractedFields struct {
	// URL is the page the fields came from. It is an input, not an extracted value.
	URL string `json:"url"`

	Name         *string `json:"name,omitempty"`
	CanonicalURL *string `json:"canonical_url,omitempty"`

	PropertyType *string `json:"property_type,omitempty"`
	MallType     *string `json:"mall_type,omitempty"`
	Status       *string `json:"status,omitempty"`

	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	FullAddress *string  `json:"full_address,omitempty"`
	Country     *string  `json:"country,omitempty"`
	City        *string  `json:"city,omitempty"`

	MallSizeSQM    *int `json:"mall_size_sqm,omitempty"`
	GLASQM         *int `json:"gla_sqm,omitempty"`
	Levels         *int `json:"levels,omitempty"`
	CarParks       *int `json:"car_parks,omitempty"`
	RetailOutlets  *int `json:"retail_outlets,omitempty"`
	AnnualFootfall *int `json:"annual_footfall,omitempty"`
	YearBuilt      *int `json:"year_built,omitempty"`

	Property360Link         *string           `json:"property_360_link,omitempty"`
	AnchorTenants           *string           `json:"anchor_tenants,omitempty"`
	OwnerCompany            *string           `json:"owner_company,omitempty"`
	ManagingAgent           *string           `json:"managing_agent,omitempty"`
	LeasingAgent            *string           `json:"leasing_agent,omitempty"`
	MainContractor          *string           `json:"main_contractor,omitempty"`
	RetailSolutionsProvider *string           `json:"retail_solutions_provider,omitempty"`
	Attributes              map[string]string `json:"attributes,omitempty"`

	Phones  []string `json:"phones,omitempty"`
	Emails  []string `json:"emails,omitempty"`
	Website *string  `json:"website,omitempty"`

	Tenants []Tenant `json:"tenants,omitempty"`

	ImageURL   *string  `json:"image_url,omitempty"`
	ImageCount int      `json:"image_count,omitempty"`
	Videos     []string `json:"videos,omitempty"`

	PostID   *string `json:"post_id,omitempty"`
	UserID   *string `json:"user_id,omitempty"`
	DataID   *string `json:"data_id,omitempty"`
	DataType *string `json:"data_type,omitempty"`

	Description         *string          `json:"description,omitempty"`
	DescriptionMarkdown *string          `json:"description_markdown,omitempty"`
	Keywords            []string         `json:"keywords,omitempty"`
	PageTitle           *string          `json:"page_title,omitempty"`
	OGTitle             *string          `json:"og_title,omitempty"`
	OGDescription       *string          `json:"og_description,omitempty"`
	OGImage             *string          `json:"og_image,omitempty"`
	StructuredData      []map[string]any `json:"structured_data,omitempty"`
	Microdata           []string         `json:"microdata,omitempty"`
}

// ValidatedRecord is the strict, typed mall record produced by the processor.
type ValidatedRecord struct {
	URL          string       `json:"url" db:"url"`
	Name         string       `json:"name" db:"name"`
	PropertyType PropertyType `json:"property_type" db:"property_type"`
	Status       MallStatus   `json:"status" db:"status"`

	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	Country   string   `json:"country,omitempty" db:"country"`
	City      string   `json:"city,omitempty" db:"city"`
	Address   string   `json:"address,omitempty" db:"address"`

	Phone   string `json:"phone,omitempty" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Website string `json:"website,omitempty" db:"website"`

	GLASqft        *int `json:"gla_sqft,omitempty" db:"gla_sqft"`
	GLASqm         *int `json:"gla_sqm,omitempty" db:"gla_sqm"`
	MallSizeSqm    *int `json:"mall_size_sqm,omitempty" db:"mall_size_sqm"`
	StoresCount    *int `json:"stores_count,omitempty" db:"stores_count"`
	ParkingSpaces  *int `json:"parking_spaces,omitempty" db:"parking_spaces"`
	Levels         *int `json:"levels,omitempty" db:"levels"`
	AnnualFootfall *int `json:"annual_footfall,omitempty" db:"annual_footfall"`
	OpeningYear    *int `json:"opening_year,omitempty" db:"opening_year"`

	OwnerCompany  string   `json:"owner_company,omitempty" db:"owner_company"`
	ManagingAgent string   `json:"managing_agent,omitempty" db:"managing_agent"`
	LeasingAgent  string   `json:"leasing_agent,omitempty" db:"leasing_agent"`
	Tenants       []Tenant `json:"tenants,omitempty" db:"-"`
	ImageURL      string   `json:"image_url,omitempty" db:"image_url"`
	ImageCount    int      `json:"image_count,omitempty" db:"image_count"`
	Description   string   `json:"description,omitempty" db:"description"`

	PostID   string `json:"post_id,omitempty" db:"post_id"`
	UserID   string `json:"user_id,omitempty" db:"user_id"`
	DataID   string `json:"data_id,omitempty" db:"data_id"`
	DataType string `json:"data_type,omitempty" db:"data_type"`

	LastUpdated      time.Time `json:"last_updated" db:"last_updated"`
	DataQualityScore float64   `json:"data_quality_score" db:"data_quality_score"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r *ValidatedRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// RejectedRecord carries an input that failed structural validation.
type RejectedRecord struct {
	Input  ExtractedFields `json:"input"`
	Reason string          `json:"reason"`
}
