package model

import "time"

// Record is the payload one adapter returns for its category.
// The orchestrator only cares whether a record is present.
type Record interface {
	Category() Category
}

// FloodRecord describes the FEMA flood zone at a location
type FloodRecord struct {
	Zone        string   `json:"zone" yaml:"zone"`                                     // e.g. "AE", "X", "X500", "VE"
	ZoneSubtype string   `json:"zone_subtype,omitempty" yaml:"zone_subtype,omitempty"` // e.g. "FLOODWAY"
	SFHA        bool     `json:"sfha" yaml:"sfha"`                                     // Special Flood Hazard Area
	BaseFloodEl *float64 `json:"base_flood_elevation,omitempty" yaml:"base_flood_elevation,omitempty"`
	PanelID     string   `json:"panel_id,omitempty" yaml:"panel_id,omitempty"`
}

func (FloodRecord) Category() Category { return CategoryFlood }

// DisasterDeclaration is one declared disaster affecting a county
type DisasterDeclaration struct {
	ID           string    `json:"id" yaml:"id"`
	Type         string    `json:"type" yaml:"type"` // Hurricane, Flood, Fire, ...
	Title        string    `json:"title" yaml:"title"`
	DeclaredAt   time.Time `json:"declared_at" yaml:"declared_at"`
	State        string    `json:"state,omitempty" yaml:"state,omitempty"`
	DesignatedIn string    `json:"designated_area,omitempty" yaml:"designated_area,omitempty"`
}

// DisasterRecord is the disaster declaration history for a county (by FIPS code)
type DisasterRecord struct {
	FIPSCode     string                `json:"fips_code,omitempty" yaml:"fips_code,omitempty"`
	Declarations []DisasterDeclaration `json:"declarations" yaml:"declarations"`
}

func (DisasterRecord) Category() Category { return CategoryDisasters }

// EnvironmentRecord carries air quality readings
type EnvironmentRecord struct {
	AQI               *int   `json:"aqi,omitempty" yaml:"aqi,omitempty"`
	AQICategory       string `json:"aqi_category,omitempty" yaml:"aqi_category,omitempty"` // Good, Moderate, ...
	DominantPollutant string `json:"dominant_pollutant,omitempty" yaml:"dominant_pollutant,omitempty"`
	ReportingArea     string `json:"reporting_area,omitempty" yaml:"reporting_area,omitempty"`
}

func (EnvironmentRecord) Category() Category { return CategoryEnvironment }

// Earthquake is one recorded seismic event
type Earthquake struct {
	ID         string    `json:"id" yaml:"id"`
	Magnitude  float64   `json:"magnitude" yaml:"magnitude"`
	Place      string    `json:"place,omitempty" yaml:"place,omitempty"`
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
	DistanceKm float64   `json:"distance_km,omitempty" yaml:"distance_km,omitempty"`
	DepthKm    float64   `json:"depth_km,omitempty" yaml:"depth_km,omitempty"`
}

// SeismicRecord lists earthquakes near a location
type SeismicRecord struct {
	RadiusKm float64      `json:"radius_km,omitempty" yaml:"radius_km,omitempty"`
	Events   []Earthquake `json:"events" yaml:"events"`
}

func (SeismicRecord) Category() Category { return CategorySeismic }

// CountAtLeast returns the number of events with magnitude >= min
func (r SeismicRecord) CountAtLeast(min float64) int {
	n := 0
	for _, e := range r.Events {
		if e.Magnitude >= min {
			n++
		}
	}
	return n
}

// WeatherRecord holds current conditions
type WeatherRecord struct {
	TemperatureC *float64 `json:"temperature_c,omitempty" yaml:"temperature_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty" yaml:"humidity_pct,omitempty"`
	WindKph      *float64 `json:"wind_kph,omitempty" yaml:"wind_kph,omitempty"`
	Conditions   string   `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Alerts       []string `json:"alerts,omitempty" yaml:"alerts,omitempty"`
}

func (WeatherRecord) Category() Category { return CategoryWeather }

// WalkabilityRecord holds 0-100 mobility scores
type WalkabilityRecord struct {
	WalkScore    *int   `json:"walkscore,omitempty" yaml:"walkscore,omitempty"`
	TransitScore *int   `json:"transit_score,omitempty" yaml:"transit_score,omitempty"`
	BikeScore    *int   `json:"bike_score,omitempty" yaml:"bike_score,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (WalkabilityRecord) Category() Category { return CategoryWalkability }

// AmenitiesRecord counts nearby amenities per kind (grocery, school, park, ...)
type AmenitiesRecord struct {
	RadiusMeters int            `json:"radius_meters,omitempty" yaml:"radius_meters,omitempty"`
	Counts       map[string]int `json:"counts" yaml:"counts"`
}

func (AmenitiesRecord) Category() Category { return CategoryAmenities }

// Place is a named point of interest
type Place struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Lat       float64  `json:"lat" yaml:"lat"`
	Lng       float64  `json:"lng" yaml:"lng"`
	DistanceM float64  `json:"distance_m,omitempty" yaml:"distance_m,omitempty"`
	Rating    *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// PlacesRecord lists named nearby places
type PlacesRecord struct {
	Places []Place `json:"places" yaml:"places"`
}

func (PlacesRecord) Category() Category { return CategoryPlaces }

// NewRecord returns an empty record pointer suitable for decoding the
// given category's payload, or nil for an unknown category.
func NewRecord(c Category) Record {
	switch c {
	case CategoryFlood:
		return &FloodRecord{}
	case CategoryDisasters:
		return &DisasterRecord{}
	case CategoryEnvironment:
		return &EnvironmentRecord{}
	case CategorySeismic:
		return &SeismicRecord{}
	case CategoryWeather:
		return &WeatherRecord{}
	case CategoryWalkability:
		return &WalkabilityRecord{}
	case CategoryAmenities:
		return &AmenitiesRecord{}
	case CategoryPlaces:
		return &PlacesRecord{}
	default:
		return nil
	}
}
