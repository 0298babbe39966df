package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/pipeline"
)

var matchFlags preferenceFlags

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <candidate.json>",
	Short: "Score one property against a buyer's preferences",
	Long: `Match scores a property candidate against a weighted preference vector
and prints the per-factor breakdown. Missing property data scores neutral.

Preferences come from --prefs, else the stored preferences of --user, else
the balanced defaults.

Example:
  parcelscore match house.json --budget-max 500000
  parcelscore match house.json --prefs prefs.yaml --preset family
  parcelscore match house.json --user alice --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchFlags.register(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var candidate model.PropertyCandidate
	if err := readJSONFile(args[0], &candidate); err != nil {
		return err
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	now := time.Now()
	prefs, err := matchFlags.preferences(context.Background(), cfg, catalog, now)
	if err != nil {
		return err
	}

	engine := match.NewEngine()
	score, err := engine.Score(candidate, prefs, matchFlags.userContext(now))
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	if matchFlags.jsonOut {
		return renderer.WriteJSON(cmd.OutOrStdout(), score)
	}
	renderer.RenderBreakdown(cmd.OutOrStdout(), score)
	return nil
}

// readJSONFile decodes a JSON file into v
func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
