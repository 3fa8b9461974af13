package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newCommitCmd(logger *slog.Logger) *cobra.Command {
	var message string
	var all, verbose, allowEmpty bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Seal staged files into a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			digest, err := r.Commit(cmd.Context(), message, all, verbose, allowEmpty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", digest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "first add every non-ignored file that differs from staging, including unstaged files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each committed file")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "allow a commit with no staged changes")
	return cmd
}
