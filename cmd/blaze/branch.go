package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

func newBranchCmd(logger *slog.Logger) *cobra.Command {
	var del, forceDel, all bool

	cmd := &cobra.Command{
		Use:   "branch [NAME]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx := cmd.Context()

			if (del || forceDel) && len(args) == 1 {
				return r.BranchDelete(ctx, args[0])
			}

			if len(args) == 1 {
				return r.BranchCreate(ctx, args[0])
			}

			refs, err := r.BranchList(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(refs))
			for name := range refs {
				if !all && name == "HEAD" {
					continue
				}
				names = append(names, name)
			}
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s %s\n", name, refs[name])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&del, "delete", "d", false, "delete a branch")
	cmd.Flags().BoolVarP(&forceDel, "force-delete", "D", false, "force-delete a branch")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include HEAD in the listing")
	return cmd
}
