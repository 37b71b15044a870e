package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"musica/internal/daemonrun"
	"musica/internal/queue"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputDir string
	var watch bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enumerate the input directory and run the parse and dispatch workers",
		Long: `Enumerate the input directory, create one parse job per script and process
parse and dispatch jobs until both queues are drained. With --watch the runner
keeps going and enqueues scripts created or modified later, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				InputDir: inputDir,
				Watch:    watch,
				LogLevel: logLevel,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enqueued %d file(s)\n", result.Enqueued)
			fmt.Fprint(out, renderStageStats(result.Stats, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Input directory (defaults to paths.input_dir)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and enqueue new or modified scripts")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	return cmd
}

func renderStageStats(stats map[queue.Stage]queue.StageStats, colorize bool) string {
	rows := make([][]string, 0, len(queue.Stages()))
	for _, st := range queue.Stages() {
		s := stats[st]
		rows = append(rows, []string{
			string(st),
			st.JobName(),
			countLabel(s.Pending, false, false),
			countLabel(s.Running, false, false),
			countLabel(s.Failed, colorize, true),
		})
	}
	return renderTable(
		[]string{"Stage", "Queue", "Pending", "Running", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}
