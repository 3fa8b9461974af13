package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	var chunks, files, storage bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report chunk, storage, and commit counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			s, err := r.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			showAll := !chunks && !files && !storage
			if chunks || showAll {
				fmt.Fprintf(out, "chunks:       %d\n", s.ChunkCount)
			}
			if storage || showAll {
				fmt.Fprintf(out, "storage bytes: %d\n", s.StorageBytes)
			}
			if files || showAll {
				fmt.Fprintf(out, "commits:      %d\n", s.CommitCount)
				fmt.Fprintf(out, "staged files: %d\n", s.StagedFiles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&chunks, "chunks", false, "report chunk count only")
	cmd.Flags().BoolVar(&files, "files", false, "report commit/staged-file counts only")
	cmd.Flags().BoolVar(&storage, "storage", false, "report storage bytes only")
	return cmd
}
