package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

// BaseScore is the starting point before any category adjustment
const BaseScore = 70

// Factor names reported in CompositeScore.Factors
const (
	FactorWalkability = "Walkability"
	FactorTransit     = "Transit Access"
	FactorFlood       = "Flood Risk"
	FactorAirQuality  = "Air Quality"
	FactorAmenities   = "Nearby Amenities"
	FactorSeismic     = "Seismic Activity"
)

const (
	amenityCap          = 15.0
	significantQuakeMag = 4.0
)

// Scorer computes the composite livability/risk score. It is stateless;
// categories without data contribute nothing.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate applies every category adjustment to the base score and
// returns the clamped score, its grade, a summary and the factor list.
func (s *Scorer) Calculate(result model.AggregationResult) model.CompositeScore {
	var factors []model.RiskFactor

	// 1. Walkability and transit
	if rec, ok := recordAs[model.WalkabilityRecord](result.Data[model.CategoryWalkability]); ok {
		factors = append(factors, s.walkability(rec)...)
	}

	// 2. Flood zone
	if rec, ok := recordAs[model.FloodRecord](result.Data[model.CategoryFlood]); ok {
		factors = append(factors, s.floodRisk(rec))
	}

	// 3. Air quality
	if rec, ok := recordAs[model.EnvironmentRecord](result.Data[model.CategoryEnvironment]); ok && rec.AQI != nil {
		factors = append(factors, s.airQuality(*rec.AQI))
	}

	// 4. Amenities
	if rec, ok := recordAs[model.AmenitiesRecord](result.Data[model.CategoryAmenities]); ok {
		if f, ok := s.amenities(rec); ok {
			factors = append(factors, f)
		}
	}

	// 5. Seismic
	if rec, ok := recordAs[model.SeismicRecord](result.Data[model.CategorySeismic]); ok {
		if f, ok := s.seismic(rec); ok {
			factors = append(factors, f)
		}
	}

	total := float64(BaseScore)
	for _, f := range factors {
		total += f.Impact
	}
	score := clampScore(int(math.Round(total)))

	if factors == nil {
		factors = []model.RiskFactor{}
	}

	return model.CompositeScore{
		Score:   score,
		Grade:   Grade(score),
		Summary: Summarize(factors),
		Factors: factors,
	}
}

// walkability scores walk score and, when present, transit score
func (s *Scorer) walkability(rec model.WalkabilityRecord) []model.RiskFactor {
	var out []model.RiskFactor

	if rec.WalkScore != nil {
		ws := *rec.WalkScore
		out = append(out, model.RiskFactor{
			Name:   FactorWalkability,
			Impact: math.Round(float64(ws)*0.3) - 15,
			Reason: fmt.Sprintf("Walk Score of %d", ws),
		})
	}

	if rec.TransitScore != nil {
		ts := *rec.TransitScore
		out = append(out, model.RiskFactor{
			Name:   FactorTransit,
			Impact: math.Round(float64(ts)*0.1) - 5,
			Reason: fmt.Sprintf("Transit Score of %d", ts),
		})
	}

	return out
}

// floodRisk maps a FEMA zone designation to an adjustment
func (s *Scorer) floodRisk(rec model.FloodRecord) model.RiskFactor {
	zone := strings.ToUpper(strings.TrimSpace(rec.Zone))
	f := model.RiskFactor{Name: FactorFlood}

	switch {
	case zone == "":
		f.Reason = "Flood zone not determined"
	case strings.HasPrefix(zone, "A") || strings.HasPrefix(zone, "V"):
		f.Impact = -20
		f.Reason = fmt.Sprintf("Zone %s is a high-risk special flood hazard area", zone)
	case strings.HasPrefix(zone, "B") || isModerateX(zone):
		f.Impact = -5
		f.Reason = fmt.Sprintf("Zone %s carries moderate flood risk", zone)
	case strings.HasPrefix(zone, "X") || strings.HasPrefix(zone, "C"):
		f.Impact = 10
		f.Reason = fmt.Sprintf("Zone %s has minimal flood risk", zone)
	default:
		f.Reason = fmt.Sprintf("Zone %s has undetermined flood risk", zone)
	}

	return f
}

// isModerateX reports the shaded X zone spellings (0.2% annual chance)
func isModerateX(zone string) bool {
	return strings.Contains(zone, "X500") ||
		strings.Contains(zone, "SHADED X") ||
		strings.Contains(zone, "0.2 PCT")
}

// airQuality maps an AQI reading to an adjustment
func (s *Scorer) airQuality(aqi int) model.RiskFactor {
	f := model.RiskFactor{Name: FactorAirQuality}

	switch {
	case aqi > 150:
		f.Impact = -15
		f.Reason = fmt.Sprintf("Unhealthy air quality (AQI %d)", aqi)
	case aqi > 100:
		f.Impact = -10
		f.Reason = fmt.Sprintf("Unhealthy for sensitive groups (AQI %d)", aqi)
	case aqi > 50:
		f.Impact = 0
		f.Reason = fmt.Sprintf("Moderate air quality (AQI %d)", aqi)
	default:
		f.Impact = 5
		f.Reason = fmt.Sprintf("Good air quality (AQI %d)", aqi)
	}

	return f
}

// amenities sums per-kind bonuses, capped at amenityCap
func (s *Scorer) amenities(rec model.AmenitiesRecord) (model.RiskFactor, bool) {
	kinds := make([]string, 0, len(rec.Counts))
	for k := range rec.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	bonus := 0.0
	total := 0
	var present []string
	for _, k := range kinds {
		n := rec.Counts[k]
		switch {
		case n > 10:
			bonus += 2
		case n > 5:
			bonus += 1.5
		case n > 0:
			bonus += 1
		default:
			continue
		}
		total += n
		present = append(present, k)
	}

	if len(present) == 0 {
		return model.RiskFactor{}, false
	}

	return model.RiskFactor{
		Name:   FactorAmenities,
		Impact: math.Min(bonus, amenityCap),
		Reason: fmt.Sprintf("%d amenities nearby across %d categories (%s)", total, len(present), strings.Join(present, ", ")),
	}, true
}

// seismic penalizes frequent significant earthquakes; omitted when the
// adjustment is zero
func (s *Scorer) seismic(rec model.SeismicRecord) (model.RiskFactor, bool) {
	n := rec.CountAtLeast(significantQuakeMag)

	var impact float64
	switch {
	case n > 5:
		impact = -10
	case n > 2:
		impact = -5
	default:
		return model.RiskFactor{}, false
	}

	return model.RiskFactor{
		Name:   FactorSeismic,
		Impact: impact,
		Reason: fmt.Sprintf("%d earthquakes of magnitude %.1f+ recorded nearby", n, significantQuakeMag),
	}, true
}

// Summarize lists positive factors as strengths and negative ones as concerns
func Summarize(factors []model.RiskFactor) string {
	var strengths, concerns []string
	for _, f := range factors {
		switch {
		case f.Impact > 0:
			strengths = append(strengths, f.Name)
		case f.Impact < 0:
			concerns = append(concerns, f.Name)
		}
	}

	var parts []string
	if len(strengths) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(strengths, ", ")+".")
	}
	if len(concerns) > 0 {
		parts = append(parts, "Concerns: "+strings.Join(concerns, ", ")+".")
	}
	if len(parts) == 0 {
		return "No significant strengths or concerns identified."
	}
	return strings.Join(parts, " ")
}

// recordAs extracts a concrete record whether it was stored by value or pointer
func recordAs[T any](r model.Record) (T, bool) {
	switch v := any(r).(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
