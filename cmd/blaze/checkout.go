package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(logger *slog.Logger) *cobra.Command {
	var force bool
	var newBranch string

	cmd := &cobra.Command{
		Use:   "checkout TARGET",
		Short: "Restore the working tree to a commit or branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			digest, err := r.Checkout(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}

			if newBranch != "" {
				if err := r.BranchCreate(cmd.Context(), newBranch); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s\n", digest)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "discard a dirty working tree")
	cmd.Flags().StringVarP(&newBranch, "branch", "b", "", "create a new branch at the checked-out commit")
	return cmd
}
