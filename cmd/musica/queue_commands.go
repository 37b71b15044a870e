package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"musica/internal/api"
	"musica/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the stage queues",
	}

	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job counts per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromStageStats(stats, nil))
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderStageStats(stats, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var stageFlags []string
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStages(stageFlags)
			if err != nil {
				return err
			}
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := api.NewQueueService(store).List(cmd.Context(), stages, statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if jobs == nil {
						jobs = []api.Job{}
					}
					return writeJSON(cmd, api.QueueListResponse{Jobs: jobs})
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Queue", "File", "Status", "Attempts", "Updated", "Error"},
					buildQueueListRows(jobs, shouldColorize(out)),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&stageFlags, "stage", "s", nil, "Filter by stage or queue name (repeatable)")
	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status: pending, running, failed (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildQueueListRows(jobs []api.Job, colorize bool) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Queue,
			job.FileName,
			statusLabel(job.Status, colorize),
			strconv.Itoa(job.Attempts),
			job.UpdatedAt,
			truncate(job.ErrorMessage, maxContentWidth),
		})
	}
	return rows
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				job, err := api.NewQueueService(store).Describe(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", ids[0])
				}
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable(
					[]string{"Field", "Value"},
					buildJobDetailRows(*job, shouldColorize(out)),
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildJobDetailRows(job api.Job, colorize bool) [][]string {
	rows := [][]string{
		{"ID", strconv.FormatInt(job.ID, 10)},
		{"Job ID", job.JobID},
		{"Queue", job.Queue},
		{"File", job.FileName},
		{"Path", job.FilePath},
		{"Status", statusLabel(job.Status, colorize)},
		{"Attempts", strconv.Itoa(job.Attempts)},
		{"Created", job.CreatedAt},
		{"Updated", job.UpdatedAt},
	}
	if job.WorkerID != "" {
		rows = append(rows, []string{"Worker", job.WorkerID})
	}
	if job.LastHeartbeat != "" {
		rows = append(rows, []string{"Heartbeat", job.LastHeartbeat})
	}
	if job.ErrorMessage != "" {
		rows = append(rows, []string{"Error", job.ErrorMessage})
	}
	return rows
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var stageFlags []string

	cmd := &cobra.Command{
		Use:   "retry [ID...]",
		Short: "Move failed jobs back to pending",
		Long:  "Move failed jobs back to pending. Without IDs every failed job on the selected stages is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStages(stageFlags)
			if err != nil {
				return err
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), stages, ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d job(s)\n", count)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&stageFlags, "stage", "s", nil, "Limit to stage or queue name (repeatable)")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var stageFlags []string
	var statusFlags []string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete jobs from the queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStages(stageFlags)
			if err != nil {
				return err
			}
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			if !all && len(stages) == 0 && len(statuses) == 0 {
				return fmt.Errorf("refusing to clear every queue; pass --all or narrow with --stage/--status")
			}
			return ctx.withStore(func(store *queue.Store) error {
				count, err := store.Clear(cmd.Context(), stages, statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", count)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&stageFlags, "stage", "s", nil, "Limit to stage or queue name (repeatable)")
	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Limit to status: pending, running, failed (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every job on every stage")
	return cmd
}

func parseStages(values []string) ([]queue.Stage, error) {
	stages := make([]queue.Stage, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		st, err := queue.ParseStage(value)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		normalized := queue.Status(strings.ToLower(strings.TrimSpace(value)))
		switch normalized {
		case "":
			continue
		case queue.StatusPending, queue.StatusRunning, queue.StatusFailed:
			statuses = append(statuses, normalized)
		default:
			return nil, fmt.Errorf("unknown status %q", value)
		}
	}
	return statuses, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
