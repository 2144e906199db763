package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parkbench/autovision/internal/cache"
	"github.com/parkbench/autovision/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the detection cache",
	}
	cmd.AddCommand(newCachePurgeCmd())
	return cmd
}

func newCachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete all cached detections (user overrides are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.Cache.Path == "" {
				return fmt.Errorf("caching is disabled (AUTOVISION_CACHE_PATH is empty)")
			}

			store, err := cache.Open(cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Purge(); err != nil {
				return err
			}
			fmt.Println("cache purged")
			return nil
		},
	}
}
