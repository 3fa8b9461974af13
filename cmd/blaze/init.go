package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"blaze/internal/repo"

	"github.com/spf13/cobra"
)

func newInitCmd(logger *slog.Logger) *cobra.Command {
	var noIgnore bool
	var chunkSizeKB int

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create a new repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			abs, err := absPath(path)
			if err != nil {
				return err
			}

			initOpts := repo.InitOptions{NoIgnore: noIgnore}
			if chunkSizeKB > 0 {
				initOpts.ChunkSize = chunkSizeKB * 1024
			}

			r, already, err := repo.Init(abs, initOpts, repoOptions(cmd, logger))
			if err != nil {
				return err
			}
			defer r.Close()

			if already {
				fmt.Fprintf(cmd.OutOrStdout(), "already initialized: %s\n", abs)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized repository in %s\n", abs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noIgnore, "no-ignore", false, "skip writing a default ignore file")
	cmd.Flags().IntVar(&chunkSizeKB, "chunk-size", 0, "target chunk size in KB (default 64)")
	return cmd
}

func absPath(path string) (string, error) {
	return filepath.Abs(path)
}
