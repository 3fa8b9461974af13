package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newVerifyCmd(logger *slog.Logger) *cobra.Command {
	var fix, chunks, verbose bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check metadata and chunk integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.Verify(cmd.Context(), fix, chunks, verbose)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Issues) == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			for _, issue := range result.Issues {
				fmt.Fprintln(out, issue)
			}
			return fmt.Errorf("verify found %d issue(s)", len(result.Issues))
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "remove dangling chunk-record references")
	cmd.Flags().BoolVar(&chunks, "chunks", false, "recompute and verify chunk digests")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every chunk checked")
	return cmd
}
