package match

import (
	"math"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

// NeutralScore is the normalized score used when a factor's raw value is missing
const NeutralScore = 5.0

// Factor categories
const (
	CategoryFinancial   = "financial"
	CategoryProperty    = "property"
	CategoryLocation    = "location"
	CategoryEnvironment = "environment"
	CategoryLifestyle   = "lifestyle"
	CategoryInvestment  = "investment"
)

// Factor IDs
const (
	FactorPriceVsBudget = "price_vs_budget"
	FactorHOAFee        = "hoa_fee"
	FactorSqft          = "sqft"
	FactorLotSize       = "lot_size"
	FactorYearBuilt     = "year_built"
	FactorBeds          = "beds"
	FactorBaths         = "baths"
	FactorPool          = "pool"
	FactorGarage        = "garage"
	FactorCommuteTime   = "commute_time"
	FactorWalkScore     = "walk_score"
	FactorTransitScore  = "transit_score"
	FactorBikeScore     = "bike_score"
	FactorSchoolRating  = "school_rating"
	FactorSafety        = "safety"
	FactorFloodRisk     = "flood_risk"
	FactorAirQuality    = "air_quality"
	FactorNoiseLevel    = "noise_level"
	FactorInternetSpeed = "internet_speed"
	FactorAppreciation  = "appreciation"
	FactorCapRate       = "cap_rate"
)

// NormalizeFunc extracts a factor's raw value and scores it on [0,10].
// ok=false means the value was missing or unknown and the neutral default applies;
// raw still reports whatever input was available.
type NormalizeFunc func(c model.PropertyCandidate, u model.UserContext) (raw interface{}, score float64, ok bool)

// Factor describes how one scoring factor is computed
type Factor struct {
	ID        string
	Name      string
	Category  string
	Neutral   float64
	Normalize NormalizeFunc
	// EnabledByDefault marks factors that are on in a fresh preference vector
	EnabledByDefault bool
}

// factors is the registry in canonical order
var factors = []Factor{
	{ID: FactorPriceVsBudget, Name: "Price vs Budget", Category: CategoryFinancial, Neutral: NeutralScore, Normalize: normalizePriceVsBudget, EnabledByDefault: true},
	{ID: FactorHOAFee, Name: "HOA Fee", Category: CategoryFinancial, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.HOAFee }, hoaFeeSteps)},
	{ID: FactorSqft, Name: "Square Footage", Category: CategoryProperty, Neutral: NeutralScore, Normalize: normalizeSqft, EnabledByDefault: true},
	{ID: FactorLotSize, Name: "Lot Size", Category: CategoryProperty, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.LotSize }, lotSizeSteps)},
	{ID: FactorYearBuilt, Name: "Year Built", Category: CategoryProperty, Neutral: NeutralScore, Normalize: normalizeYearBuilt, EnabledByDefault: true},
	{ID: FactorBeds, Name: "Bedrooms", Category: CategoryProperty, Neutral: NeutralScore, Normalize: normalizeBeds, EnabledByDefault: true},
	{ID: FactorBaths, Name: "Bathrooms", Category: CategoryProperty, Neutral: NeutralScore, Normalize: normalizeBaths, EnabledByDefault: true},
	{ID: FactorPool, Name: "Pool", Category: CategoryProperty, Neutral: NeutralScore, Normalize: presence(func(c model.PropertyCandidate) *bool { return c.HasPool })},
	{ID: FactorGarage, Name: "Garage", Category: CategoryProperty, Neutral: NeutralScore, Normalize: presence(func(c model.PropertyCandidate) *bool { return c.HasGarage })},
	{ID: FactorCommuteTime, Name: "Commute Time", Category: CategoryLocation, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.CommuteMinutes }, commuteSteps), EnabledByDefault: true},
	{ID: FactorWalkScore, Name: "Walk Score", Category: CategoryLocation, Neutral: NeutralScore, Normalize: tenths(func(c model.PropertyCandidate) *float64 { return c.WalkScore }), EnabledByDefault: true},
	{ID: FactorTransitScore, Name: "Transit Score", Category: CategoryLocation, Neutral: NeutralScore, Normalize: tenths(func(c model.PropertyCandidate) *float64 { return c.TransitScore })},
	{ID: FactorBikeScore, Name: "Bike Score", Category: CategoryLocation, Neutral: NeutralScore, Normalize: tenths(func(c model.PropertyCandidate) *float64 { return c.BikeScore })},
	{ID: FactorSchoolRating, Name: "School Rating", Category: CategoryLocation, Neutral: NeutralScore, Normalize: normalizeSchoolRating, EnabledByDefault: true},
	{ID: FactorSafety, Name: "Safety", Category: CategoryLocation, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.CrimeScore }, crimeSteps), EnabledByDefault: true},
	{ID: FactorFloodRisk, Name: "Flood Risk", Category: CategoryEnvironment, Neutral: NeutralScore, Normalize: normalizeFloodRisk, EnabledByDefault: true},
	{ID: FactorAirQuality, Name: "Air Quality", Category: CategoryEnvironment, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.AirQuality }, airQualitySteps)},
	{ID: FactorNoiseLevel, Name: "Noise Level", Category: CategoryEnvironment, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.NoiseLevel }, noiseSteps)},
	{ID: FactorInternetSpeed, Name: "Internet Speed", Category: CategoryLifestyle, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.InternetSpeed }, internetSteps)},
	{ID: FactorAppreciation, Name: "Appreciation", Category: CategoryInvestment, Neutral: NeutralScore, Normalize: stepped(func(c model.PropertyCandidate) *float64 { return c.AppreciationPct }, appreciationSteps)},
	{ID: FactorCapRate, Name: "Cap Rate", Category: CategoryInvestment, Neutral: NeutralScore, Normalize: normalizeCapRate},
}

// Factors returns a copy of every registered factor in canonical order
func Factors() []Factor {
	out := make([]Factor, len(factors))
	copy(out, factors)
	return out
}

// LookupFactor returns the descriptor for id
func LookupFactor(id string) (Factor, bool) {
	for _, f := range factors {
		if f.ID == id {
			return f, true
		}
	}
	return Factor{}, false
}

// stepped scores a numeric attribute through a fixed table
func stepped(get func(model.PropertyCandidate) *float64, table StepTable) NormalizeFunc {
	return func(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
		v := get(c)
		if !usable(v) {
			return nil, 0, false
		}
		return *v, table.Apply(*v), true
	}
}

// tenths scores a 0-100 attribute as round(raw/10)
func tenths(get func(model.PropertyCandidate) *float64) NormalizeFunc {
	return func(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
		v := get(c)
		if !usable(v) {
			return nil, 0, false
		}
		return *v, math.Round(*v / 10), true
	}
}

// presence scores a boolean feature: 10 present, 0 absent
func presence(get func(model.PropertyCandidate) *bool) NormalizeFunc {
	return func(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
		v := get(c)
		if v == nil {
			return nil, 0, false
		}
		if *v {
			return true, 10, true
		}
		return false, 0, true
	}
}

func normalizePriceVsBudget(c model.PropertyCandidate, u model.UserContext) (interface{}, float64, bool) {
	if !usable(c.Price) {
		return nil, 0, false
	}
	if !usable(u.BudgetMax) || *u.BudgetMax <= 0 {
		return *c.Price, 0, false
	}
	return *c.Price, priceRatioSteps.Apply(*c.Price / *u.BudgetMax), true
}

func normalizeSqft(c model.PropertyCandidate, u model.UserContext) (interface{}, float64, bool) {
	if !usable(c.Sqft) {
		return nil, 0, false
	}
	sqft := *c.Sqft
	if !usable(u.MinSqft) || *u.MinSqft <= 0 {
		return sqft, sqftSteps.Apply(sqft), true
	}

	minSqft := *u.MinSqft
	if sqft < minSqft {
		if sqft >= 0.9*minSqft {
			return sqft, 4, true
		}
		return sqft, 2, true
	}
	// one point per full 10% above the minimum
	bonus := math.Floor((sqft-minSqft)*10/minSqft + 1e-9)
	return sqft, math.Min(7+bonus, 10), true
}

func normalizeYearBuilt(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
	if c.YearBuilt == nil {
		return nil, 0, false
	}
	year := *c.YearBuilt
	return year, yearBuiltSteps.Apply(float64(year)), true
}

func normalizeBeds(c model.PropertyCandidate, u model.UserContext) (interface{}, float64, bool) {
	return relativeCount(c.Beds, u.MinBeds, bedsSteps)
}

func normalizeBaths(c model.PropertyCandidate, u model.UserContext) (interface{}, float64, bool) {
	return relativeCount(c.Baths, u.MinBaths, bathsSteps)
}

// relativeCount scores against the user's minimum when one is stated
func relativeCount(v, minimum *float64, fallback StepTable) (interface{}, float64, bool) {
	if !usable(v) {
		return nil, 0, false
	}
	if usable(minimum) && *minimum > 0 {
		return *v, relativeSteps(*minimum).Apply(*v), true
	}
	return *v, fallback.Apply(*v), true
}

func normalizeSchoolRating(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
	if !usable(c.SchoolRating) {
		return nil, 0, false
	}
	return *c.SchoolRating, *c.SchoolRating, true
}

// normalizeFloodRisk buckets a FEMA zone. Unknown zones fall back to neutral.
func normalizeFloodRisk(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
	if c.FloodZone == nil {
		return nil, 0, false
	}
	raw := *c.FloodZone
	zone := strings.ToUpper(strings.TrimSpace(raw))

	switch {
	case zone == "":
		return raw, 0, false
	case strings.HasPrefix(zone, "B") || strings.Contains(zone, "X500") ||
		strings.Contains(zone, "SHADED X") || strings.Contains(zone, "0.2 PCT"):
		return raw, 6, true
	case strings.HasPrefix(zone, "X") || strings.HasPrefix(zone, "C"):
		return raw, 10, true
	case strings.HasPrefix(zone, "A"):
		return raw, 2, true
	case strings.HasPrefix(zone, "V"):
		return raw, 1, true
	default:
		return raw, 0, false
	}
}

// normalizeCapRate scores (rent*12/price)*100 in percent
func normalizeCapRate(c model.PropertyCandidate, _ model.UserContext) (interface{}, float64, bool) {
	if !usable(c.RentalEstimate) {
		return nil, 0, false
	}
	if !usable(c.Price) || *c.Price <= 0 {
		return *c.RentalEstimate, 0, false
	}
	capRate := (*c.RentalEstimate * 12 / *c.Price) * 100
	return capRate, capRateSteps.Apply(capRate), true
}

// usable reports a present, finite number
func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
