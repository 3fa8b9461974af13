package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newStatusCmd(logger *slog.Logger) *cobra.Command {
	var short, ignored bool
	var untrackedFiles string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show staged and working-tree changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if short {
				for _, c := range result.Staged {
					fmt.Fprintf(out, "S %s %s\n", c.Kind, c.Path)
				}
				for _, c := range result.Working {
					fmt.Fprintf(out, "W %s %s\n", c.Kind, c.Path)
				}
				return nil
			}

			fmt.Fprintln(out, "Staged changes (HEAD -> staging):")
			for _, c := range result.Staged {
				fmt.Fprintf(out, "  %s: %s\n", c.Kind, c.Path)
			}
			fmt.Fprintln(out, "Working tree changes (staging -> disk):")
			for _, c := range result.Working {
				fmt.Fprintf(out, "  %s: %s\n", c.Kind, c.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "condensed one-line-per-change output")
	cmd.Flags().BoolVar(&ignored, "ignored", false, "accepted but has no effect; ignored paths are never reported")
	cmd.Flags().StringVar(&untrackedFiles, "untracked-files", "normal", "accepted (no|normal|all) but has no effect; untracked files are always reported as added")
	return cmd
}
