package model

import "time"

// ScoringFactor is one entry of a user's weight vector. Identity is ID.
type ScoringFactor struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Enabled  bool    `json:"enabled" yaml:"enabled"`
}

// ScoringPreferences is a user's weight vector plus the preset it came from
type ScoringPreferences struct {
	UserID    string          `json:"user_id" yaml:"user_id"`
	Factors   []ScoringFactor `json:"factors" yaml:"factors"`
	Preset    string          `json:"preset,omitempty" yaml:"preset,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing
func (p ScoringPreferences) Clone() ScoringPreferences {
	out := p
	out.Factors = make([]ScoringFactor, len(p.Factors))
	copy(out.Factors, p.Factors)
	return out
}

// FactorOverride is a partial update to one factor; nil fields are left alone
type FactorOverride struct {
	ID      string   `json:"id" yaml:"id"`
	Weight  *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Enabled *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// Preset is a named bundle of overrides
type Preset struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Overrides   []FactorOverride `json:"overrides" yaml:"overrides"`
}

// FactorScore is the per-factor breakdown of a match score
type FactorScore struct {
	FactorID        string      `json:"factor_id"`
	RawValue        interface{} `json:"raw_value"` // number, string, bool or nil when missing
	NormalizedScore float64     `json:"normalized_score"`
	Weight          float64     `json:"weight"`
	WeightedScore   float64     `json:"weighted_score"`
	MaxPossible     float64     `json:"max_possible"`
	UsedDefault     bool        `json:"used_default,omitempty"` // raw value missing, neutral default applied
}

// PropertyScore is the match score of one candidate against a preference vector
type PropertyScore struct {
	PropertyID   string        `json:"property_id"`
	TotalScore   int           `json:"total_score"`
	FactorScores []FactorScore `json:"factor_scores"`
	Rank         int           `json:"rank,omitempty"`
	CalculatedAt time.Time     `json:"calculated_at"`
}
