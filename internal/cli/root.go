// Package cli defines the autovision command tree.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/parkbench/autovision/internal/config"
	"github.com/parkbench/autovision/internal/logging"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autovision",
		Short: "Vehicle attribute detection for listing photos",
		Long: `Autovision infers a vehicle's make, model, exterior color, and approximate
model year from listing photos, using a local zero-shot vision-language model
against a catalog of valid makes and models.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env if present; ignore errors.
			_ = godotenv.Load()
			cfg := config.Load()
			logging.Init(true, logging.ParseLevel(cfg.Log.Level))
		},
	}

	cmd.AddCommand(newDetectCmd())
	cmd.AddCommand(newTaxonomyCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}
