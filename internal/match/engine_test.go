package match

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/parcelscore/internal/model"
)

func only(id string, weight float64) model.ScoringPreferences {
	return model.ScoringPreferences{
		UserID:  "u1",
		Factors: []model.ScoringFactor{{ID: id, Weight: weight, Enabled: true}},
	}
}

func scoreOne(t *testing.T, c model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) model.PropertyScore {
	t.Helper()
	s, err := NewEngine().Score(c, prefs, u)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	return s
}

func TestEngine_Score_PriceVsBudget(t *testing.T) {
	c := model.PropertyCandidate{ID: "p1", Price: model.Float(450000)}
	u := model.UserContext{BudgetMax: model.Float(500000)}

	s := scoreOne(t, c, only(FactorPriceVsBudget, 1), u)

	fs := s.FactorScores[0]
	if fs.NormalizedScore != 9 {
		t.Errorf("Expected normalized score 9, got %v", fs.NormalizedScore)
	}
	if fs.RawValue != 450000.0 {
		t.Errorf("Expected raw price 450000, got %v", fs.RawValue)
	}
	if s.TotalScore != 90 {
		t.Errorf("Expected total 90, got %d", s.TotalScore)
	}
}

func TestEngine_Score_PriceWithoutBudget(t *testing.T) {
	c := model.PropertyCandidate{Price: model.Float(450000)}

	s := scoreOne(t, c, only(FactorPriceVsBudget, 1), model.UserContext{})

	fs := s.FactorScores[0]
	if fs.NormalizedScore != NeutralScore || !fs.UsedDefault {
		t.Errorf("Expected neutral default, got %+v", fs)
	}
	if fs.RawValue != 450000.0 {
		t.Errorf("Expected raw price to be reported, got %v", fs.RawValue)
	}
}

func TestEngine_Score_SqftOnly(t *testing.T) {
	c := model.PropertyCandidate{Sqft: model.Float(2000)}

	s := scoreOne(t, c, only(FactorSqft, 1), model.UserContext{})

	if s.FactorScores[0].NormalizedScore != 8 {
		t.Errorf("Expected normalized score 8, got %v", s.FactorScores[0].NormalizedScore)
	}
	if s.TotalScore != 80 {
		t.Errorf("Expected total 80, got %d", s.TotalScore)
	}
}

func TestEngine_Score_SqftWithMinimum(t *testing.T) {
	u := model.UserContext{MinSqft: model.Float(2000)}

	tests := []struct {
		sqft float64
		want float64
	}{
		{1700, 2},
		{1800, 4},
		{1999, 4},
		{2000, 7},
		{2199, 7},
		{2200, 8},
		{2400, 9},
		{2600, 10},
		{5000, 10},
	}

	for _, tt := range tests {
		s := scoreOne(t, model.PropertyCandidate{Sqft: model.Float(tt.sqft)}, only(FactorSqft, 1), u)
		if got := s.FactorScores[0].NormalizedScore; got != tt.want {
			t.Errorf("sqft %v: got %v, want %v", tt.sqft, got, tt.want)
		}
	}
}

func TestEngine_Score_BedsBaths(t *testing.T) {
	withMin := model.UserContext{MinBeds: model.Float(3), MinBaths: model.Float(2)}

	tests := []struct {
		name   string
		factor string
		c      model.PropertyCandidate
		u      model.UserContext
		want   float64
	}{
		{"beds over minimum", FactorBeds, model.PropertyCandidate{Beds: model.Float(4)}, withMin, 10},
		{"beds at minimum", FactorBeds, model.PropertyCandidate{Beds: model.Float(3)}, withMin, 8},
		{"beds one under", FactorBeds, model.PropertyCandidate{Beds: model.Float(2)}, withMin, 5},
		{"beds far under", FactorBeds, model.PropertyCandidate{Beds: model.Float(1)}, withMin, 2},
		{"beds no minimum", FactorBeds, model.PropertyCandidate{Beds: model.Float(2)}, model.UserContext{}, 6},
		{"baths at minimum", FactorBaths, model.PropertyCandidate{Baths: model.Float(2)}, withMin, 8},
		{"baths no minimum", FactorBaths, model.PropertyCandidate{Baths: model.Float(1.5)}, model.UserContext{}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scoreOne(t, tt.c, only(tt.factor, 1), tt.u)
			if got := s.FactorScores[0].NormalizedScore; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_Score_FloodRisk(t *testing.T) {
	tests := []struct {
		zone        string
		want        float64
		usedDefault bool
	}{
		{"X", 10, false},
		{"c", 10, false},
		{"X500", 6, false},
		{"B", 6, false},
		{"AE", 2, false},
		{"VE", 1, false},
		{"D", NeutralScore, true},
	}

	for _, tt := range tests {
		c := model.PropertyCandidate{FloodZone: model.String(tt.zone)}
		fs := scoreOne(t, c, only(FactorFloodRisk, 1), model.UserContext{}).FactorScores[0]
		if fs.NormalizedScore != tt.want || fs.UsedDefault != tt.usedDefault {
			t.Errorf("zone %q: got %v (default=%v), want %v (default=%v)",
				tt.zone, fs.NormalizedScore, fs.UsedDefault, tt.want, tt.usedDefault)
		}
		if fs.RawValue != tt.zone {
			t.Errorf("zone %q: raw value %v", tt.zone, fs.RawValue)
		}
	}
}

func TestEngine_Score_Scalars(t *testing.T) {
	tests := []struct {
		name   string
		factor string
		c      model.PropertyCandidate
		want   float64
	}{
		{"walk score rounds", FactorWalkScore, model.PropertyCandidate{WalkScore: model.Float(87)}, 9},
		{"transit score", FactorTransitScore, model.PropertyCandidate{TransitScore: model.Float(32)}, 3},
		{"bike score", FactorBikeScore, model.PropertyCandidate{BikeScore: model.Float(100)}, 10},
		{"school pass-through", FactorSchoolRating, model.PropertyCandidate{SchoolRating: model.Float(7.5)}, 7.5},
		{"school clamped", FactorSchoolRating, model.PropertyCandidate{SchoolRating: model.Float(12)}, 10},
		{"pool present", FactorPool, model.PropertyCandidate{HasPool: model.Bool(true)}, 10},
		{"pool absent", FactorPool, model.PropertyCandidate{HasPool: model.Bool(false)}, 0},
		{"garage unknown", FactorGarage, model.PropertyCandidate{}, NeutralScore},
		{"year built", FactorYearBuilt, model.PropertyCandidate{YearBuilt: model.Int(1995)}, 7},
		{"lot size", FactorLotSize, model.PropertyCandidate{LotSize: model.Float(12000)}, 6},
		{"hoa", FactorHOAFee, model.PropertyCandidate{HOAFee: model.Float(180)}, 7},
		{"commute", FactorCommuteTime, model.PropertyCandidate{CommuteMinutes: model.Float(40)}, 4},
		{"safety", FactorSafety, model.PropertyCandidate{CrimeScore: model.Float(65)}, 3},
		{"air quality", FactorAirQuality, model.PropertyCandidate{AirQuality: model.Float(42)}, 10},
		{"noise", FactorNoiseLevel, model.PropertyCandidate{NoiseLevel: model.Float(70)}, 3},
		{"internet", FactorInternetSpeed, model.PropertyCandidate{InternetSpeed: model.Float(300)}, 8},
		{"appreciation", FactorAppreciation, model.PropertyCandidate{AppreciationPct: model.Float(4.2)}, 7},
		{"cap rate", FactorCapRate, model.PropertyCandidate{Price: model.Float(200000), RentalEstimate: model.Float(1100)}, 6},
		{"cap rate no price", FactorCapRate, model.PropertyCandidate{RentalEstimate: model.Float(1100)}, NeutralScore},
		{"nan treated as missing", FactorNoiseLevel, model.PropertyCandidate{NoiseLevel: model.Float(math.NaN())}, NeutralScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scoreOne(t, tt.c, only(tt.factor, 1), model.UserContext{})
			if got := s.FactorScores[0].NormalizedScore; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_Score_MissingDataIsNeutral(t *testing.T) {
	prefs := DefaultPreferences("u1", time.Time{})

	s := scoreOne(t, model.PropertyCandidate{ID: "empty"}, prefs, model.UserContext{})

	if s.TotalScore != 50 {
		t.Errorf("Expected 50 with every factor neutral, got %d", s.TotalScore)
	}
	for _, fs := range s.FactorScores {
		if !fs.UsedDefault {
			t.Errorf("factor %s: expected neutral default", fs.FactorID)
		}
		if fs.MaxPossible != 10*fs.Weight {
			t.Errorf("factor %s: max possible %v", fs.FactorID, fs.MaxPossible)
		}
	}
}

func TestEngine_Score_WeightedTotal(t *testing.T) {
	prefs := model.ScoringPreferences{Factors: []model.ScoringFactor{
		{ID: FactorSqft, Weight: 1, Enabled: true},         // 8 * 1
		{ID: FactorPool, Weight: 3, Enabled: true},         // 0 * 3
		{ID: FactorGarage, Weight: 2, Enabled: false},      // skipped
		{ID: FactorSchoolRating, Weight: 0, Enabled: true}, // skipped
		{ID: FactorWalkScore, Weight: 1, Enabled: true},    // 10 * 1
	}}
	c := model.PropertyCandidate{
		Sqft:         model.Float(2000),
		HasPool:      model.Bool(false),
		HasGarage:    model.Bool(true),
		SchoolRating: model.Float(10),
		WalkScore:    model.Float(100),
	}

	s := scoreOne(t, c, prefs, model.UserContext{})

	// round(100 * 18 / 50)
	if s.TotalScore != 36 {
		t.Errorf("Expected total 36, got %d", s.TotalScore)
	}
	if len(s.FactorScores) != 3 {
		t.Fatalf("Expected 3 participating factors, got %d", len(s.FactorScores))
	}
	order := []string{FactorSqft, FactorPool, FactorWalkScore}
	for i, id := range order {
		if s.FactorScores[i].FactorID != id {
			t.Errorf("factor %d: expected %s, got %s", i, id, s.FactorScores[i].FactorID)
		}
	}
	if s.FactorScores[1].WeightedScore != 0 || s.FactorScores[1].MaxPossible != 30 {
		t.Errorf("Unexpected pool breakdown: %+v", s.FactorScores[1])
	}
}

func TestEngine_Score_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		factors []model.ScoringFactor
	}{
		{"empty", nil},
		{"all disabled", []model.ScoringFactor{{ID: FactorSqft, Weight: 1, Enabled: false}}},
		{"all zero weight", []model.ScoringFactor{{ID: FactorSqft, Weight: 0, Enabled: true}}},
		{"negative weight", []model.ScoringFactor{{ID: FactorSqft, Weight: -1, Enabled: true}}},
		{"nan weight", []model.ScoringFactor{{ID: FactorSqft, Weight: math.NaN(), Enabled: true}}},
		{"infinite weight", []model.ScoringFactor{{ID: FactorSqft, Weight: math.Inf(1), Enabled: true}}},
		{"weight overflows max possible", []model.ScoringFactor{{ID: FactorSqft, Weight: 1e308, Enabled: true}}},
		{"weight sum overflows", []model.ScoringFactor{
			{ID: FactorSqft, Weight: 1e307, Enabled: true},
			{ID: FactorBeds, Weight: 1e307, Enabled: true},
		}},
		{"unknown factor", []model.ScoringFactor{{ID: "view_quality", Weight: 1, Enabled: true}}},
		{"duplicate factor", []model.ScoringFactor{
			{ID: FactorSqft, Weight: 1, Enabled: true},
			{ID: FactorSqft, Weight: 2, Enabled: true},
		}},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Score(model.PropertyCandidate{}, model.ScoringPreferences{Factors: tt.factors}, model.UserContext{})
			if !errors.Is(err, model.ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestEngine_Score_Idempotent(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := model.PropertyCandidate{
		ID:        "p1",
		Price:     model.Float(380000),
		Beds:      model.Float(3),
		Baths:     model.Float(2),
		Sqft:      model.Float(1850),
		FloodZone: model.String("AE"),
	}
	u := model.UserContext{BudgetMax: model.Float(400000), MinBeds: model.Float(3), AsOf: asOf}
	prefs := DefaultPreferences("u1", asOf)

	engine := NewEngine()
	first, err := engine.Score(c, prefs, u)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Score(c, prefs, u)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical scores, got %+v and %+v", first, second)
	}
	if !first.CalculatedAt.Equal(asOf) {
		t.Errorf("Expected calculated_at %v, got %v", asOf, first.CalculatedAt)
	}
}

func TestEngine_Score_TotalInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := NewEngine()

	maybe := func(limit float64) *float64 {
		if rng.Intn(4) == 0 {
			return nil
		}
		return model.Float(rng.Float64() * limit)
	}

	for i := 0; i < 200; i++ {
		prefs := model.ScoringPreferences{Factors: DefaultFactors()}
		for j := range prefs.Factors {
			prefs.Factors[j].Weight = rng.Float64() * 5
			prefs.Factors[j].Enabled = rng.Intn(2) == 0
		}
		prefs.Factors[0].Enabled = true
		prefs.Factors[0].Weight = 1

		c := model.PropertyCandidate{
			Price:          maybe(2_000_000),
			Beds:           maybe(8),
			Baths:          maybe(6),
			Sqft:           maybe(6000),
			LotSize:        maybe(100000),
			HOAFee:         maybe(1500),
			WalkScore:      maybe(100),
			SchoolRating:   maybe(14),
			CrimeScore:     maybe(100),
			InternetSpeed:  maybe(2000),
			RentalEstimate: maybe(8000),
			CommuteMinutes: maybe(120),
		}
		u := model.UserContext{BudgetMax: maybe(1_500_000), MinBeds: maybe(5), MinSqft: maybe(4000)}

		s, err := engine.Score(c, prefs, u)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if s.TotalScore < 0 || s.TotalScore > 100 {
			t.Fatalf("iteration %d: total %d out of range", i, s.TotalScore)
		}
		for _, fs := range s.FactorScores {
			if fs.NormalizedScore < 0 || fs.NormalizedScore > 10 {
				t.Fatalf("iteration %d: %s normalized %v out of range", i, fs.FactorID, fs.NormalizedScore)
			}
		}
	}
}

func TestFactors_Registry(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Factors() {
		if seen[f.ID] {
			t.Errorf("duplicate factor id %s", f.ID)
		}
		seen[f.ID] = true
		if f.Normalize == nil {
			t.Errorf("factor %s has no normalizer", f.ID)
		}
		if f.Neutral < 0 || f.Neutral > 10 {
			t.Errorf("factor %s neutral %v out of range", f.ID, f.Neutral)
		}
	}

	if err := NewEngine().Validate(DefaultPreferences("u1", time.Time{})); err != nil {
		t.Errorf("default preferences should be valid: %v", err)
	}
}

func TestEngine_Score_LargeFiniteWeights(t *testing.T) {
	prefs := model.ScoringPreferences{Factors: []model.ScoringFactor{
		{ID: FactorSqft, Weight: 1e300, Enabled: true},
		{ID: FactorWalkScore, Weight: 1e300, Enabled: true},
	}}
	c := model.PropertyCandidate{Sqft: model.Float(2000), WalkScore: model.Float(100)}

	s := scoreOne(t, c, prefs, model.UserContext{})

	// Same as weights of 1: round(100 * 18 / 20)
	if s.TotalScore != 90 {
		t.Errorf("Expected total 90, got %d", s.TotalScore)
	}
}
