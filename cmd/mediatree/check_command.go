package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediatree/internal/api"
	"mediatree/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify folders, cache locations, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderChecks(out, api.FromChecks(results)))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func renderChecks(out io.Writer, checks []api.CheckResult) string {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		state := "ok"
		switch {
		case !c.Passed && c.Optional:
			state = "missing (optional)"
		case !c.Passed:
			state = "FAILED"
		}
		rows = append(rows, []string{c.Name, state, c.Detail})
	}
	return renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil)
}
