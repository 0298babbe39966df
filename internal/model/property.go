package model

import "time"

// PropertyCandidate carries listing attributes plus externally enriched data.
// Every attribute is optional; nil means the value is unknown.
type PropertyCandidate struct {
	ID      string `json:"id" yaml:"id"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Listing attributes
	Price     *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Beds      *float64 `json:"beds,omitempty" yaml:"beds,omitempty"`
	Baths     *float64 `json:"baths,omitempty" yaml:"baths,omitempty"`
	Sqft      *float64 `json:"sqft,omitempty" yaml:"sqft,omitempty"`
	LotSize   *float64 `json:"lot_size,omitempty" yaml:"lot_size,omitempty"` // square feet
	YearBuilt *int     `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	HasPool   *bool    `json:"has_pool,omitempty" yaml:"has_pool,omitempty"`
	HasGarage *bool    `json:"has_garage,omitempty" yaml:"has_garage,omitempty"`
	HOAFee    *float64 `json:"hoa_fee,omitempty" yaml:"hoa_fee,omitempty"` // monthly

	// Enrichment
	FloodZone       *string  `json:"flood_zone,omitempty" yaml:"flood_zone,omitempty"`
	WalkScore       *float64 `json:"walk_score,omitempty" yaml:"walk_score,omitempty"`
	TransitScore    *float64 `json:"transit_score,omitempty" yaml:"transit_score,omitempty"`
	BikeScore       *float64 `json:"bike_score,omitempty" yaml:"bike_score,omitempty"`
	CrimeScore      *float64 `json:"crime_score,omitempty" yaml:"crime_score,omitempty"` // 0-100, higher means more crime
	SchoolRating    *float64 `json:"school_rating,omitempty" yaml:"school_rating,omitempty"`
	AirQuality      *float64 `json:"air_quality,omitempty" yaml:"air_quality,omitempty"`         // AQI
	NoiseLevel      *float64 `json:"noise_level,omitempty" yaml:"noise_level,omitempty"`         // dB
	InternetSpeed   *float64 `json:"internet_speed,omitempty" yaml:"internet_speed,omitempty"`   // Mbps
	RentalEstimate  *float64 `json:"rental_estimate,omitempty" yaml:"rental_estimate,omitempty"` // monthly
	AppreciationPct *float64 `json:"appreciation_rate,omitempty" yaml:"appreciation_rate,omitempty"`
	CommuteMinutes  *float64 `json:"commute_minutes,omitempty" yaml:"commute_minutes,omitempty"`
}

// UserContext carries the buyer's constraints used by relative factors
type UserContext struct {
	UserID    string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	BudgetMin *float64 `json:"budget_min,omitempty" yaml:"budget_min,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty" yaml:"budget_max,omitempty"`
	MinBeds   *float64 `json:"min_beds,omitempty" yaml:"min_beds,omitempty"`
	MinBaths  *float64 `json:"min_baths,omitempty" yaml:"min_baths,omitempty"`
	MinSqft   *float64 `json:"min_sqft,omitempty" yaml:"min_sqft,omitempty"`

	// AsOf is copied into PropertyScore.CalculatedAt
	AsOf time.Time `json:"as_of,omitempty" yaml:"as_of,omitempty"`
}

// Float returns a pointer to v. Handy for building candidates in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }
