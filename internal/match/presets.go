package match

import (
	"time"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Built-in preset names
const (
	PresetBalanced = "balanced"
	PresetFamily   = "family"
	PresetInvestor = "investor"
	PresetCommuter = "commuter"
	PresetLuxury   = "luxury"
	PresetBudget   = "budget"
)

// DefaultFactors returns every registered factor with weight 1, enabled
// according to the factor's default
func DefaultFactors() []model.ScoringFactor {
	out := make([]model.ScoringFactor, 0, len(factors))
	for _, f := range factors {
		out = append(out, model.ScoringFactor{
			ID:       f.ID,
			Name:     f.Name,
			Category: f.Category,
			Weight:   1,
			Enabled:  f.EnabledByDefault,
		})
	}
	return out
}

// DefaultPreferences returns a fresh preference vector for a user
func DefaultPreferences(userID string, now time.Time) model.ScoringPreferences {
	return model.ScoringPreferences{
		UserID:    userID,
		Factors:   DefaultFactors(),
		Preset:    PresetBalanced,
		UpdatedAt: now,
	}
}

func set(id string, weight float64) model.FactorOverride {
	on := true
	return model.FactorOverride{ID: id, Weight: &weight, Enabled: &on}
}

func off(id string) model.FactorOverride {
	disabled := false
	return model.FactorOverride{ID: id, Enabled: &disabled}
}

// BuiltinPresets returns the presets shipped with the engine
func BuiltinPresets() []model.Preset {
	balanced := make([]model.FactorOverride, 0, len(factors))
	for _, f := range factors {
		weight := 1.0
		enabled := f.EnabledByDefault
		balanced = append(balanced, model.FactorOverride{ID: f.ID, Weight: &weight, Enabled: &enabled})
	}

	return []model.Preset{
		{
			Name:        PresetBalanced,
			Description: "Equal weight across the default factors",
			Overrides:   balanced,
		},
		{
			Name:        PresetFamily,
			Description: "Space, schools and safety first",
			Overrides: []model.FactorOverride{
				set(FactorBeds, 2),
				set(FactorBaths, 1.5),
				set(FactorSqft, 1.5),
				set(FactorSchoolRating, 3),
				set(FactorSafety, 2.5),
				set(FactorLotSize, 1),
				set(FactorGarage, 1),
				set(FactorNoiseLevel, 1),
				set(FactorAirQuality, 1),
				set(FactorPool, 0.5),
			},
		},
		{
			Name:        PresetInvestor,
			Description: "Rental yield and appreciation",
			Overrides: []model.FactorOverride{
				set(FactorCapRate, 3),
				set(FactorAppreciation, 2.5),
				set(FactorPriceVsBudget, 2),
				set(FactorHOAFee, 1.5),
				set(FactorFloodRisk, 1.5),
				set(FactorSchoolRating, 0.5),
				set(FactorYearBuilt, 0.5),
				off(FactorCommuteTime),
			},
		},
		{
			Name:        PresetCommuter,
			Description: "Short commutes and good transit",
			Overrides: []model.FactorOverride{
				set(FactorCommuteTime, 3),
				set(FactorTransitScore, 2.5),
				set(FactorWalkScore, 2),
				set(FactorBikeScore, 1),
				set(FactorInternetSpeed, 1),
				off(FactorLotSize),
			},
		},
		{
			Name:        PresetLuxury,
			Description: "Size, amenities and newer construction",
			Overrides: []model.FactorOverride{
				set(FactorSqft, 2.5),
				set(FactorLotSize, 2),
				set(FactorPool, 2),
				set(FactorYearBuilt, 2),
				set(FactorGarage, 1.5),
				set(FactorNoiseLevel, 1.5),
				set(FactorPriceVsBudget, 0.5),
			},
		},
		{
			Name:        PresetBudget,
			Description: "Lowest total cost of ownership",
			Overrides: []model.FactorOverride{
				set(FactorPriceVsBudget, 3),
				set(FactorHOAFee, 2.5),
				set(FactorSqft, 0.5),
				off(FactorPool),
				off(FactorLotSize),
			},
		},
	}
}
