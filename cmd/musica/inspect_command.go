package main

import (
	"os"

	"github.com/spf13/cobra"

	"musica/internal/config"
	"musica/internal/script"
	"musica/internal/services"
	"musica/internal/textutil"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the syntax tree of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return services.Wrap(services.ErrValidation, "", "read script", path, err)
			}
			src, err := textutil.Decode(data, cfg.Input.Encoding)
			if err != nil {
				return services.Wrap(services.ErrParse, "", "decode script", path, err)
			}
			tree, err := script.Parser{}.Parse(src)
			if err != nil {
				return services.Wrap(services.ErrParse, "", "parse script", path, err)
			}
			return tree.Dump(cmd.OutOrStdout())
		},
	}
}
