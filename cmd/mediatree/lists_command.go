package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"mediatree/internal/lists"
)

func newListsCommand(ctx *commandContext) *cobra.Command {
	listsCmd := &cobra.Command{
		Use:   "lists",
		Short: "Inspect persisted playback lists",
	}

	listsCmd.AddCommand(&cobra.Command{
		Use:   "names",
		Short: "Show the lists on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := listStore(ctx)
			if err != nil {
				return err
			}
			names, err := store.Names()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No lists in %s\n", store.Dir())
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	})

	listsCmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Show the entries of a list (history when name is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := listStore(ctx)
			if err != nil {
				return err
			}
			name := listName(args)
			entries, skipped, err := store.Load(name)
			if err != nil {
				return err
			}
			printListEntries(cmd.OutOrStdout(), name, entries, skipped)
			return nil
		},
	})

	listsCmd.AddCommand(&cobra.Command{
		Use:   "clear [name]",
		Short: "Delete a list (history when name is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := listStore(ctx)
			if err != nil {
				return err
			}
			name := listName(args)
			if err := store.Clear(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared list %s\n", name)
			return nil
		},
	})

	return listsCmd
}

func listStore(ctx *commandContext) (*lists.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return lists.NewStore(cfg.Paths.ListsDir, 0, nil), nil
}

func listName(args []string) string {
	if len(args) == 1 && args[0] != "" {
		return args[0]
	}
	return lists.HistoryName
}

func printListEntries(out io.Writer, name string, entries []lists.Entry, skipped []lists.Skipped) {
	if len(entries) == 0 {
		fmt.Fprintf(out, "List %s is empty\n", name)
	} else {
		rows := make([][]string, 0, len(entries))
		// Newest first.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			sub := e.SubtitleLang
			if e.SubtitleSource != "" {
				sub += " (" + e.SubtitleSource + ")"
			}
			rows = append(rows, []string{
				strconv.Itoa(len(entries) - i),
				e.Tag,
				e.Payload,
				formatMillis(e.Resume.Milliseconds()),
				sub,
				e.Player,
			})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"#", "Tag", "Item", "Resume", "Subtitle", "Player"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}
	for _, s := range skipped {
		fmt.Fprintf(out, "Skipped line %d: %v\n", s.Line, s.Err)
	}
}
