package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/parcelscore/internal/store"
)

var presetUser string

// presetCmd represents the preset command
var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "List and apply preference presets",
	Long: `Presets are named bundles of weight overrides (family, investor,
commuter, luxury, budget, balanced). Applying one only changes the factors
it names; every other factor keeps its current weight.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-12s %-9s %s\n", "NAME", "FACTORS", "DESCRIPTION")
		for _, p := range catalog.List() {
			fmt.Fprintf(out, "%-12s %-9d %s\n", p.Name, len(p.Overrides), p.Description)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a preset's overrides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		p, err := catalog.Get(args[0])
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal preset: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply a preset to a user's stored preferences",
	Long: `Apply merges a preset into the stored preferences of --user and saves
the result in the configured store (store.backend).

Example:
  parcelscore preset apply family --user alice
  PARCELSCORE_STORE_BACKEND=file parcelscore preset apply investor --user bob`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(presetUser) == "" {
			return fmt.Errorf("--user is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		ctx := context.Background()
		s, err := store.Open(ctx, cfg.Store, catalog)
		if err != nil {
			return fmt.Errorf("open preferences store: %w", err)
		}
		defer func() { _ = s.Close() }()

		prefs, err := s.ApplyPreset(ctx, presetUser, args[0])
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("marshal preferences: %w", err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Applied preset %q for %s (store: %s)\n\n", prefs.Preset, presetUser, cfg.Store.Backend)
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetApplyCmd)

	presetApplyCmd.Flags().StringVar(&presetUser, "user", "", "user whose preferences are updated")
}
