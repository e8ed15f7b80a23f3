package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediatree/internal/metacache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the metadata cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached probe results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			printCacheEntries(cmd.OutOrStdout(), store.Path(), entries)
			return nil
		},
	}
}

func printCacheEntries(out io.Writer, path string, entries []metacache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(out, "Cache %s is empty\n", path)
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		duration, size, container := "", "", "(undecodable)"
		if md := entry.Metadata; md != nil {
			duration = formatMillis(md.Duration.Milliseconds())
			size = formatSize(md.Size)
			container = md.Container
		}
		probed := ""
		if !entry.ProbedAt.IsZero() {
			probed = humanize.Time(entry.ProbedAt)
		}
		rows = append(rows, []string{filepath.Base(entry.Path), container, duration, size, probed})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"File", "Container", "Duration", "Size", "Probed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d entries in %s\n", len(entries), path)
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached probe result",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop cache entries for missing or modified files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale cache entries\n", removed)
			return nil
		},
	}
}

// openCache opens the cache database directly. SQLite serializes access
// with a running daemon.
func openCache(ctx *commandContext) (*metacache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := metacache.Open(cfg.CacheDBPath(), nil)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}
	return store, nil
}
