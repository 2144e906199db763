package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parkbench/autovision/internal/config"
	"github.com/parkbench/autovision/internal/taxonomy"
)

func newTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect the make/model catalog",
	}
	cmd.AddCommand(newTaxonomyInfoCmd())
	return cmd
}

func newTaxonomyInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print catalog size and version fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			loader := taxonomy.NewLoader(
				cfg.Engine.DatasetPath, cfg.Engine.MinSupport, cfg.Engine.MaxModelLen)

			catalog, err := loader.Load()
			if err != nil {
				return err
			}

			fmt.Printf("dataset:  %s\n", cfg.Engine.DatasetPath)
			fmt.Printf("version:  %s\n", catalog.Version)
			fmt.Printf("makes:    %d\n", len(catalog.Makes))
			fmt.Printf("models:   %d\n", catalog.NumModels())
			return nil
		},
	}
}
