package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/pipeline"
	"github.com/ppiankov/parcelscore/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
	batchToggles []string
	batchFixture string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Aggregate many locations from a file in parallel",
	Long: `Batch aggregates every location listed in a file:
- One location per line: lat,lng[,address]
- Lines starting with # are ignored
- Locations run in parallel with a configurable worker count
- Each result is written to its own JSON file

Example:
  parcelscore batch locations.txt
  parcelscore batch locations.txt --concurrency 8 --output-dir ./scores
  parcelscore batch locations.txt --toggles flood,environment --fixtures ./testdata`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./parcelscore-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringSliceVar(&batchToggles, "toggles", []string{model.ToggleAll}, "categories to query, or 'all'")
	batchCmd.Flags().StringVar(&batchFixture, "fixtures", "", "serve categories from <dir>/<category>.json")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchFixture != "" {
		cfg.Sources.FixtureDir = batchFixture
	}
	logger := newLogger()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	runID := uuid.NewString()
	runDir := filepath.Join(outputDir, runID)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  parcelscore Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", runDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if p.Registry().Len() == 0 {
		return fmt.Errorf("no data sources configured (set sources.endpoints in the config or pass --fixtures)")
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading locations from file...\n")
	reqs, err := worker.ReadLocationsFromFile(file, batchToggles)
	if err != nil {
		return fmt.Errorf("read locations: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d locations\n\n", len(reqs))

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	processor.OnProgress(func(r *worker.LocationResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", locationLabel(r.Request), r.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ %s (score: %d/100, %d unavailable)\n",
			locationLabel(r.Request), r.Response.PropertyScore.Score, len(r.Response.Errors))
	})

	results := processor.ProcessLocations(ctx, reqs)

	successCount := 0
	failureCount := 0
	renderer := p.Renderer()

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			continue
		}

		path := filepath.Join(runDir, fmt.Sprintf("%04d-%s.json", result.Index+1, sanitizeFilename(locationLabel(result.Request))))
		if err := renderer.RenderJSON(result.Response, path); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", locationLabel(result.Request), err)
			continue
		}
		successCount++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:       %s\n", runID)
	fmt.Fprintf(os.Stderr, "  Total:     %d locations\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", runDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// locationLabel names a location by address, falling back to coordinates
func locationLabel(req model.AggregationRequest) string {
	if req.Address != "" {
		return req.Address
	}
	return fmt.Sprintf("%.5f,%.5f", req.Lat, req.Lng)
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		",", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "location"
	}

	return s
}
