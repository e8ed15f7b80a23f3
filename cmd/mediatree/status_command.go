package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediatree/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw API response")
	return cmd
}

func printStatus(out io.Writer, s *api.DaemonStatus) {
	fmt.Fprintf(out, "Daemon:     %s (pid %d)\n", runningLabel(s.Running), s.PID)
	fmt.Fprintf(out, "Nodes:      %d registered, %d tombstones\n", s.Nodes, s.Tombstones)
	fmt.Fprintf(out, "Playback:   %d active\n", s.ActivePlayback)
	printScanStatus(out, s.Scan)
	if s.Disc != nil {
		if s.Disc.Detected {
			fmt.Fprintf(out, "Disc:       %s %s on %s\n", s.Disc.Label, s.Disc.Type, s.Disc.Device)
		} else {
			fmt.Fprintf(out, "Disc:       none in %s\n", s.Disc.Device)
		}
	}
	fmt.Fprintf(out, "Cache:      %s\n", s.CacheDBPath)
	fmt.Fprintf(out, "Lists:      %s\n", s.ListsDir)
	fmt.Fprintf(out, "Lock:       %s\n", s.LockFilePath)
	if len(s.Checks) > 0 {
		fmt.Fprintln(out, renderChecks(out, s.Checks))
	}
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
