package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newOptimizeCmd(logger *slog.Logger) *cobra.Command {
	var gc, repack, dryRun bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Garbage-collect unreferenced chunks and compact metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			if !gc && !repack {
				gc = true
			}

			summary, err := r.Optimize(cmd.Context(), gc, repack, dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&gc, "gc", false, "remove unreferenced chunks")
	cmd.Flags().BoolVar(&repack, "repack", false, "no-op (metadata is compacted on every optimize run without --dry-run)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without mutating")
	return cmd
}
