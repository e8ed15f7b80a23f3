package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mediatree/internal/api"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Control background library scans",
	}
	scanCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a full library scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.StartScan(cmd.Context())
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scan %s started\n", resp.ScanID)
			return nil
		},
	})
	scanCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the running scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.StopScan(cmd.Context())
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			if resp.Stopped {
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No scan running")
			}
			return nil
		},
	})
	scanCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the running and last scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			printScanStatus(cmd.OutOrStdout(), status.Scan)
			return nil
		},
	})
	return scanCmd
}

func printScanStatus(out io.Writer, s api.ScanStatus) {
	switch {
	case s.Running && s.Stopping:
		fmt.Fprintf(out, "Scan:       stopping (%s)\n", s.ScanID)
	case s.Running:
		fmt.Fprintf(out, "Scan:       running since %s (%s)\n", s.StartedAt, s.ScanID)
	default:
		fmt.Fprintln(out, "Scan:       idle")
	}
	if s.Last == nil {
		return
	}
	outcome := "finished"
	switch {
	case s.Last.Canceled:
		outcome = "stopped"
	case s.Last.Error != "":
		outcome = "failed: " + s.Last.Error
	}
	fmt.Fprintf(out, "Last scan:  %s at %s, %d containers, %d leaves, %d failures in %s\n",
		outcome, s.Last.FinishedAt, s.Last.Containers, s.Last.Leaves, s.Last.Failures,
		(time.Duration(s.Last.DurationMillis) * time.Millisecond).String())
}
