package match

import (
	"fmt"
	"sort"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Rank returns a copy of scores sorted by total score, highest first.
// Ties keep their input order. Ranks are assigned 1..n.
func Rank(scores []model.PropertyScore) []model.PropertyScore {
	out := make([]model.PropertyScore, len(scores))
	copy(out, scores)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ScoreAll scores every candidate against the same preferences and ranks them.
// Candidates without an id are named candidate-<n> by input position.
func (e *Engine) ScoreAll(candidates []model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) ([]model.PropertyScore, error) {
	if err := e.Validate(prefs); err != nil {
		return nil, err
	}

	scores := make([]model.PropertyScore, 0, len(candidates))
	for i, c := range candidates {
		if c.ID == "" {
			c.ID = fmt.Sprintf("candidate-%d", i+1)
		}
		s, err := e.Score(c, prefs, u)
		if err != nil {
			return nil, fmt.Errorf("failed to score %s: %w", c.ID, err)
		}
		scores = append(scores, s)
	}

	return Rank(scores), nil
}
