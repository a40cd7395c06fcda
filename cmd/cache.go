package cmd

import (
	"fmt"
	"os"

	"md2rt/pkg/cache"
	"md2rt/pkg/config"
	"md2rt/pkg/errors"
	"md2rt/pkg/utils"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the render cache",
	Long: `Rendered HTML is cached in SQLite, keyed by the SHA-256 of the Markdown,
so copying the same text again does not hit the renderer.`,
}

var cacheInfoCmd = NewCommand("info", "Show render cache statistics", "").
	WithArgsValidation(0).
	WithConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		return withCache(cfg, func(cm *cache.Manager) error {
			info, err := cm.GetCacheInfo(cfg.CachePath())
			if err != nil {
				return errors.CacheError(err)
			}

			w := outputFor(cmd)
			if w.IsStructured() {
				return w.Write(info)
			}
			w.Printf("Path: %s\n", info.Path)
			w.Printf("Entries: %d (%d fresh)\n", info.Entries, info.Fresh)
			w.Printf("TTL: %s\n", info.TTL)
			w.Printf("Oldest: %s\n", FormatTimestamp(info.Oldest))
			return nil
		})
	}).
	Build()

var cacheClearCmd = NewCommand("clear", "Delete every cached render", "").
	WithArgsValidation(0).
	WithConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		return withCache(cfg, func(cm *cache.Manager) error {
			count, err := cm.Count()
			if err != nil {
				return errors.CacheError(err)
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is already empty.")
				return nil
			}

			ok, err := ConfirmDestructive("clear the render cache", map[string]string{
				"Path":    cfg.CachePath(),
				"Entries": fmt.Sprint(count),
			})
			if err != nil {
				return err
			}
			if !ok {
				return errors.CancelledError("cache clear")
			}

			removed, err := cm.Clear()
			if err != nil {
				return errors.CacheError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached %s.\n", removed, utils.Plural(int(removed), "render", "renders"))
			return nil
		})
	}).
	Build()

var cachePurgeCmd = NewCommand("purge", "Delete cached renders older than the TTL", "").
	WithArgsValidation(0).
	WithConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		return withCache(cfg, func(cm *cache.Manager) error {
			removed, err := cm.Purge()
			if err != nil {
				return errors.CacheError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired %s.\n", removed, utils.Plural(int(removed), "render", "renders"))
			return nil
		})
	}).
	Build()

// withCache opens the cache database for fn. A missing database is reported
// instead of being created.
func withCache(cfg *config.Config, fn func(*cache.Manager) error) error {
	if _, err := os.Stat(cfg.CachePath()); os.IsNotExist(err) {
		return errors.NewWithSuggestion(errors.ExitCodeCache,
			"no render cache at "+cfg.CachePath(),
			"The cache is created by the first conversion with the cache enabled.")
	}
	cm, err := cache.NewManager(cfg.CachePath(), cfg.Cache.TTL)
	if err != nil {
		return errors.CacheError(err)
	}
	defer cm.Close()
	return fn(cm)
}
