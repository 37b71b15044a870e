package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/scan"
	"musica/internal/segmentstore"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue [DIR]",
		Short: "Create parse jobs for every script under DIR without processing them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.InputDir
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				if root, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}
			scanner, err := scan.NewFromConfig(cfg, root)
			if err != nil {
				return err
			}
			refs, err := scanner.Files(cmd.Context())
			if err != nil {
				return err
			}

			logger := logging.NewNop()
			registry := segmentstore.NewRegistryFromConfig(cfg, logger)
			defer registry.Close()

			return ctx.withStore(func(store *queue.Store) error {
				count, err := scan.NewEnqueuer(registry, store, logger).EnqueueAll(cmd.Context(), refs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %d file(s) from %s\n", count, scanner.Root())
				return nil
			})
		},
	}
}
