package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediatree/internal/api"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "browse [id]",
		Short: "List the children of a container (root when id is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := "0"
			if len(args) == 1 {
				id = args[0]
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Browse(cmd.Context(), id)
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			printBrowse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw API response")
	return cmd
}

func printBrowse(out io.Writer, resp *api.BrowseResponse) {
	fmt.Fprintf(out, "%s (id %d, %d children)\n", resp.Node.Name, resp.Node.ID, len(resp.Children))
	if len(resp.Children) == 0 {
		return
	}
	rows := make([][]string, 0, len(resp.Children))
	for _, child := range resp.Children {
		rows = append(rows, []string{
			strconv.Itoa(child.ID),
			child.Name,
			kindLabel(child),
			formatMillis(child.DurationMillis),
			formatSize(child.Size),
			variantSummary(child),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"ID", "Name", "Kind", "Duration", "Size", "Variant"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func newNodeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "node <id>",
		Short: "Show a node and its resolved metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Node(cmd.Context(), args[0])
			if err != nil {
				return wrapAPIError(err, ctx.apiAddress())
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			printNode(cmd.OutOrStdout(), resp.Node, client.StreamURL(resp.Node.ID))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw API response")
	return cmd
}

func printNode(out io.Writer, n api.NodeDetail, streamURL string) {
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(out, "%-12s %s\n", label+":", value)
		}
	}
	line("Name", n.Name)
	line("ID", strconv.Itoa(n.ID))
	line("Kind", kindLabel(n.Node))
	line("Duration", formatMillis(n.DurationMillis))
	line("Size", formatSize(n.Size))
	line("Type", n.MimeType)
	line("Video", strings.TrimSpace(n.VideoCodec+" "+n.Resolution))
	line("Title", n.Title)
	line("Artist", n.Artist)
	line("Album", n.Album)
	line("Variant", variantSummary(n.Node))
	if !n.Folder {
		line("Seekable", yesNo(n.Seekable))
		line("Stream", streamURL)
	}
	if n.Invalid {
		line("Invalid", "yes")
	}
	for _, t := range n.AudioTracks {
		line("Audio", fmt.Sprintf("#%d %s", t.ID, t.Label))
	}
	for _, t := range n.SubtitleTracks {
		line("Subtitle", fmt.Sprintf("#%d %s", t.ID, t.Label))
	}
}
