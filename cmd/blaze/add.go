package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newAddCmd(logger *slog.Logger) *cobra.Command {
	var verbose, all, dryRun bool

	cmd := &cobra.Command{
		Use:   "add [FILES...]",
		Short: "Chunk and stage files",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.Add(cmd.Context(), args, verbose, all, dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged %d file(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each staged file")
	cmd.Flags().BoolVar(&all, "all", false, "stage every tracked, non-ignored file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be staged without staging it")
	return cmd
}
