package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/cache/redis"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Redis lookup cache",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <namespace>...",
	Short: "Delete cached entries in one or more namespaces",
	Long: `Namespaces: ot:search (entity lookups), ot:evidence (interaction lists),
embedding (text embeddings).

Example:
  bioinsight cache invalidate ot:evidence`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCacheInvalidate,
}

func init() {
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	if !cfg.Redis.Enabled {
		return errors.New("redis is not enabled in config")
	}

	ctx := cmd.Context()
	rc, err := redis.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL())
	if err != nil {
		return err
	}
	defer rc.Close()

	for _, ns := range args {
		if err := rc.Invalidate(ctx, ns); err != nil {
			return fmt.Errorf("invalidate %s: %w", ns, err)
		}
	}
	return nil
}
