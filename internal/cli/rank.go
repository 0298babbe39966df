package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/pipeline"
)

var rankFlags preferenceFlags

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank <candidates.json>",
	Short: "Rank properties against a buyer's preferences",
	Long: `Rank scores every candidate in a JSON array and prints them best first.
Ties keep their input order.

Example:
  parcelscore rank listings.json --budget-max 650000 --min-beds 3
  parcelscore rank listings.json --preset investor --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankFlags.register(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var candidates []model.PropertyCandidate
	if err := readJSONFile(args[0], &candidates); err != nil {
		return err
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	now := time.Now()
	prefs, err := rankFlags.preferences(context.Background(), cfg, catalog, now)
	if err != nil {
		return err
	}

	scores, err := match.NewEngine().ScoreAll(candidates, prefs, rankFlags.userContext(now))
	if err != nil {
		return fmt.Errorf("rank failed: %w", err)
	}
	ranked := match.Rank(scores)

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	if rankFlags.jsonOut {
		return renderer.WriteJSON(cmd.OutOrStdout(), ranked)
	}
	renderer.RenderRanking(cmd.OutOrStdout(), ranked)
	return nil
}
