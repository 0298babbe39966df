package match

import (
	"fmt"
	"math"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Engine computes match scores of candidates against a preference vector.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	registry map[string]Factor
}

// NewEngine creates an engine over the built-in factor registry
func NewEngine() *Engine {
	reg := make(map[string]Factor, len(factors))
	for _, f := range factors {
		reg[f.ID] = f
	}
	return &Engine{registry: reg}
}

// Validate checks preferences without scoring anything. Unknown factor ids,
// duplicate ids, negative or non-finite weights, weights so large that the
// maximum possible score overflows, and an empty effective factor set are
// all invalid.
func (e *Engine) Validate(prefs model.ScoringPreferences) error {
	seen := make(map[string]bool, len(prefs.Factors))
	effective := 0
	var possible float64

	for _, f := range prefs.Factors {
		if _, ok := e.registry[f.ID]; !ok {
			return model.InvalidConfigf("unknown factor %q", f.ID)
		}
		if seen[f.ID] {
			return model.InvalidConfigf("duplicate factor %q", f.ID)
		}
		seen[f.ID] = true

		if math.IsNaN(f.Weight) || math.IsInf(f.Weight, 0) || f.Weight < 0 {
			return model.InvalidConfigf("factor %q has invalid weight %v", f.ID, f.Weight)
		}
		if f.Enabled && f.Weight > 0 {
			effective++
			possible += 10 * f.Weight
			if math.IsInf(possible, 0) {
				return model.InvalidConfigf("factor %q weight %v is too large", f.ID, f.Weight)
			}
		}
	}

	if effective == 0 {
		return model.InvalidConfigf("no enabled factor with a positive weight")
	}
	return nil
}

// Score computes the weighted match score of one candidate.
//
// Only enabled factors with weight > 0 participate. Missing raw values use
// the factor's neutral default and still count in both sums. The result
// timestamp is taken from u.AsOf so identical inputs give identical output.
func (e *Engine) Score(c model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) (model.PropertyScore, error) {
	if err := e.Validate(prefs); err != nil {
		return model.PropertyScore{}, err
	}

	scores := make([]model.FactorScore, 0, len(prefs.Factors))
	var weighted, possible float64

	for _, pf := range prefs.Factors {
		if !pf.Enabled || pf.Weight <= 0 {
			continue
		}
		desc := e.registry[pf.ID]

		raw, normalized, ok := desc.Normalize(c, u)
		if !ok {
			normalized = desc.Neutral
		}
		normalized = clamp10(normalized)

		fs := model.FactorScore{
			FactorID:        pf.ID,
			RawValue:        raw,
			NormalizedScore: normalized,
			Weight:          pf.Weight,
			WeightedScore:   normalized * pf.Weight,
			MaxPossible:     10 * pf.Weight,
			UsedDefault:     !ok,
		}
		weighted += fs.WeightedScore
		possible += fs.MaxPossible
		scores = append(scores, fs)
	}

	total := 100 * (weighted / possible)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return model.PropertyScore{}, fmt.Errorf("%w: total score for %q is not finite", model.ErrInternal, c.ID)
	}

	return model.PropertyScore{
		PropertyID:   c.ID,
		TotalScore:   clamp100(int(math.Round(total))),
		FactorScores: scores,
		CalculatedAt: u.AsOf,
	}, nil
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
