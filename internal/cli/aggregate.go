package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/pipeline"
	"github.com/ppiankov/parcelscore/internal/telemetry"
)

var (
	aggLat       float64
	aggLng       float64
	aggAddress   string
	aggToggles   []string
	aggFIPS      string
	aggRadius    int
	aggJSON      string
	aggNarrative bool
	aggTimeout   time.Duration
	aggFixtures  string
)

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Gather location data and compute a livability score",
	Long: `Aggregate queries every requested data category for one location in
parallel, then scores whatever data came back:
- Each category is fetched independently; failures are reported, not fatal
- The score starts at 70 and is adjusted per available category
- Output lists every adjustment with its reason

Example:
  parcelscore aggregate --lat 26.14 --lng -81.79 --toggles flood,weather
  parcelscore aggregate --lat 40.71 --lng -74.00 --fixtures ./testdata --json out.json
  parcelscore aggregate --lat 34.05 --lng -118.24 --toggles all --narrative`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	aggregateCmd.Flags().Float64Var(&aggLat, "lat", 0, "latitude (-90..90)")
	aggregateCmd.Flags().Float64Var(&aggLng, "lng", 0, "longitude (-180..180)")
	aggregateCmd.Flags().StringVar(&aggAddress, "address", "", "street address (passed to adapters)")
	aggregateCmd.Flags().StringSliceVar(&aggToggles, "toggles", []string{model.ToggleAll}, "categories to query, or 'all'")
	aggregateCmd.Flags().StringVar(&aggFIPS, "fips", "", "county FIPS code")
	aggregateCmd.Flags().IntVar(&aggRadius, "radius", 0, "search radius in meters (default from config)")
	aggregateCmd.Flags().StringVar(&aggJSON, "json", "", "write the response as JSON to this path ('-' for stdout)")
	aggregateCmd.Flags().BoolVar(&aggNarrative, "narrative", false, "attach an LLM narrative (requires llm.provider)")
	aggregateCmd.Flags().DurationVar(&aggTimeout, "timeout", 2*time.Minute, "overall timeout")

	aggregateCmd.Flags().StringVar(&aggFixtures, "fixtures", "", "serve categories from <dir>/<category>.json")

	_ = aggregateCmd.MarkFlagRequired("lat")
	_ = aggregateCmd.MarkFlagRequired("lng")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if aggFixtures != "" {
		cfg.Sources.FixtureDir = aggFixtures
	}
	logger := newLogger()

	ctx, cancel := context.WithTimeout(context.Background(), aggTimeout)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if p.Registry().Len() == 0 {
		return fmt.Errorf("no data sources configured (set sources.endpoints in the config or pass --fixtures)")
	}

	req := model.AggregationRequest{
		Lat:      aggLat,
		Lng:      aggLng,
		Address:  aggAddress,
		Toggles:  aggToggles,
		FIPSCode: aggFIPS,
		Radius:   aggRadius,
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Location: %.5f, %.5f\n", req.Lat, req.Lng)
		fmt.Fprintf(os.Stderr, "Sources:  %v\n", p.Registry().Categories())
		fmt.Fprintf(os.Stderr, "Toggles:  %v\n", req.Toggles)
		fmt.Fprintln(os.Stderr)
	}

	var resp *model.AggregationResponse
	if aggNarrative {
		if !p.NarrativeEnabled() {
			fmt.Fprintf(os.Stderr, "Warning: --narrative ignored, no LLM provider configured (llm.provider)\n")
		}
		resp, err = p.AggregateWithNarrative(ctx, req)
	} else {
		resp, err = p.Aggregate(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	renderer := p.Renderer()
	switch aggJSON {
	case "":
		renderer.RenderSummary(cmd.OutOrStdout(), req, resp)
	case "-":
		return renderer.WriteJSON(cmd.OutOrStdout(), resp)
	default:
		if err := renderer.RenderJSON(resp, aggJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		renderer.RenderSummary(cmd.OutOrStdout(), req, resp)
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", aggJSON)
	}

	return nil
}
