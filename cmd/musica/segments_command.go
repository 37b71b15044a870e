package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"musica/internal/api"
	"musica/internal/config"
	"musica/internal/segmentstore"
	"musica/internal/services"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "segments NAME",
		Short: "List the segments stored for a script (disk mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := args[0]
			store, err := segmentstore.OpenExisting(cmd.Context(), cfg.SegmentDir(), name)
			if err != nil {
				if errors.Is(err, services.ErrStore) && cfg.Segments.Mode == config.SegmentModeMemory {
					return fmt.Errorf("%w (segments.mode is %q; stores only persist in %q mode)", err, config.SegmentModeMemory, config.SegmentModeDisk)
				}
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			segments := api.FromSegmentRecords(records)
			if jsonOutput {
				return writeJSON(cmd, api.SegmentListResponse{Script: name, Segments: segments})
			}
			out := cmd.OutOrStdout()
			if len(segments) == 0 {
				fmt.Fprintf(out, "No segments stored for %s\n", name)
				return nil
			}
			fmt.Fprint(out, renderTable(
				[]string{"Line", "Type", "ID", "Speaker", "Tachie", "Content"},
				buildSegmentRows(segments),
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildSegmentRows(segments []api.Segment) [][]string {
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		id := ""
		if seg.MessageID != nil {
			id = strconv.Itoa(*seg.MessageID)
		}
		rows = append(rows, []string{
			strconv.Itoa(seg.Line),
			seg.Type,
			id,
			seg.SpeakerName,
			seg.SpeakerTachie,
			truncate(seg.Content, maxContentWidth),
		})
	}
	return rows
}
