package match

// Direction says how a step bound is compared against the raw value
type Direction int

const (
	// AtMost matches when raw <= bound (lower is better)
	AtMost Direction = iota
	// AtLeast matches when raw >= bound (higher is better)
	AtLeast
)

// Step pairs an inclusive bound with the score it yields
type Step struct {
	Bound float64
	Score float64
}

// StepTable is evaluated top-down; the first matching step wins,
// otherwise Else applies.
type StepTable struct {
	Direction Direction
	Steps     []Step
	Else      float64
}

// Apply returns the score for raw
func (t StepTable) Apply(raw float64) float64 {
	for _, s := range t.Steps {
		switch t.Direction {
		case AtMost:
			if raw <= s.Bound {
				return s.Score
			}
		case AtLeast:
			if raw >= s.Bound {
				return s.Score
			}
		}
	}
	return t.Else
}

func atMost(elseScore float64, steps ...Step) StepTable {
	return StepTable{Direction: AtMost, Steps: steps, Else: elseScore}
}

func atLeast(elseScore float64, steps ...Step) StepTable {
	return StepTable{Direction: AtLeast, Steps: steps, Else: elseScore}
}

// Fixed tables. Relative tables (beds, baths, sqft with a minimum) are
// built per call from the user's stated minimum.
var (
	priceRatioSteps = atMost(1,
		Step{0.8, 10}, Step{0.9, 9}, Step{1.0, 7}, Step{1.1, 4}, Step{1.2, 2})

	hoaFeeSteps = atMost(1,
		Step{0, 10}, Step{100, 9}, Step{250, 7}, Step{500, 5}, Step{750, 3})

	commuteSteps = atMost(2,
		Step{15, 10}, Step{25, 8}, Step{35, 6}, Step{45, 4}, Step{60, 3})

	noiseSteps = atMost(1,
		Step{45, 10}, Step{55, 8}, Step{65, 5}, Step{75, 3})

	airQualitySteps = atMost(1,
		Step{50, 10}, Step{100, 7}, Step{150, 4}, Step{200, 2})

	crimeSteps = atMost(1,
		Step{20, 10}, Step{40, 8}, Step{60, 5}, Step{80, 3})

	sqftSteps = atLeast(2,
		Step{3000, 10}, Step{2500, 9}, Step{2000, 8}, Step{1500, 6}, Step{1000, 4})

	lotSizeSteps = atLeast(2,
		Step{43560, 10}, Step{20000, 8}, Step{10000, 6}, Step{5000, 4})

	yearBuiltSteps = atLeast(3,
		Step{2020, 10}, Step{2010, 9}, Step{2000, 8}, Step{1990, 7},
		Step{1980, 6}, Step{1970, 5}, Step{1950, 4})

	bedsSteps = atLeast(2,
		Step{4, 10}, Step{3, 8}, Step{2, 6}, Step{1, 4})

	bathsSteps = atLeast(2,
		Step{3, 10}, Step{2, 8}, Step{1.5, 6}, Step{1, 4})

	internetSteps = atLeast(1,
		Step{1000, 10}, Step{500, 9}, Step{300, 8}, Step{100, 6}, Step{50, 4}, Step{25, 3})

	appreciationSteps = atLeast(1,
		Step{8, 10}, Step{6, 9}, Step{4, 7}, Step{2, 5}, Step{0, 3})

	capRateSteps = atLeast(2,
		Step{10, 10}, Step{8, 8}, Step{6, 6}, Step{4, 4})
)

// relativeSteps scores a count against a stated minimum:
// one over -> 10, meets -> 8, one under -> 5, else 2
func relativeSteps(minimum float64) StepTable {
	return atLeast(2, Step{minimum + 1, 10}, Step{minimum, 8}, Step{minimum - 1, 5})
}
