package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/store"
)

// preferenceFlags are shared by match and rank
type preferenceFlags struct {
	prefsFile string
	userID    string
	preset    string
	budgetMin float64
	budgetMax float64
	minBeds   float64
	minBaths  float64
	minSqft   float64
	jsonOut   bool
}

func (f *preferenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.prefsFile, "prefs", "", "preferences file (YAML or JSON)")
	cmd.Flags().StringVar(&f.userID, "user", "", "use the stored preferences of this user")
	cmd.Flags().StringVar(&f.preset, "preset", "", "apply a named preset on top of the preferences")
	cmd.Flags().Float64Var(&f.budgetMin, "budget-min", 0, "buyer's minimum budget")
	cmd.Flags().Float64Var(&f.budgetMax, "budget-max", 0, "buyer's maximum budget")
	cmd.Flags().Float64Var(&f.minBeds, "min-beds", 0, "buyer's minimum bedrooms")
	cmd.Flags().Float64Var(&f.minBaths, "min-baths", 0, "buyer's minimum bathrooms")
	cmd.Flags().Float64Var(&f.minSqft, "min-sqft", 0, "buyer's minimum square feet")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print JSON instead of a table")
}

// userContext builds the buyer context; zero-valued flags are left unset
func (f *preferenceFlags) userContext(now time.Time) model.UserContext {
	u := model.UserContext{UserID: f.userID, AsOf: now.UTC()}
	if f.budgetMin > 0 {
		u.BudgetMin = model.Float(f.budgetMin)
	}
	if f.budgetMax > 0 {
		u.BudgetMax = model.Float(f.budgetMax)
	}
	if f.minBeds > 0 {
		u.MinBeds = model.Float(f.minBeds)
	}
	if f.minBaths > 0 {
		u.MinBaths = model.Float(f.minBaths)
	}
	if f.minSqft > 0 {
		u.MinSqft = model.Float(f.minSqft)
	}
	return u
}

// preferences resolves the weight vector: file, then stored user, then defaults.
// A preset, when named, is merged on top.
func (f *preferenceFlags) preferences(ctx context.Context, cfg *model.Config, catalog *match.Catalog, now time.Time) (model.ScoringPreferences, error) {
	var (
		prefs model.ScoringPreferences
		err   error
	)

	switch {
	case f.prefsFile != "":
		prefs, err = loadPreferencesFile(f.prefsFile)
	case f.userID != "":
		var s *store.Store
		s, err = store.Open(ctx, cfg.Store, catalog)
		if err != nil {
			return prefs, fmt.Errorf("open preferences store: %w", err)
		}
		defer func() { _ = s.Close() }()
		prefs, err = s.Get(ctx, f.userID)
	default:
		prefs = match.DefaultPreferences(f.userID, now)
	}
	if err != nil {
		return prefs, err
	}

	if f.preset != "" {
		return catalog.Apply(prefs, f.preset)
	}
	return prefs, nil
}

// loadPreferencesFile reads ScoringPreferences from YAML or JSON
func loadPreferencesFile(path string) (model.ScoringPreferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ScoringPreferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var prefs model.ScoringPreferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return model.ScoringPreferences{}, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return prefs, nil
}

// loadCatalog returns the built-in presets plus any from --presets-file
func loadCatalog() (*match.Catalog, error) {
	catalog := match.DefaultCatalog()
	if presetsFile == "" {
		return catalog, nil
	}
	if err := catalog.LoadPresetFile(presetsFile); err != nil {
		return nil, err
	}
	return catalog, nil
}
