package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newLogCmd(logger *slog.Logger) *cobra.Command {
	var limit int
	var oneline, stat bool
	var since string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			commits, err := r.Log(cmd.Context(), limit, since)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range commits {
				if oneline {
					fmt.Fprintf(out, "%s %s\n", c.Digest, c.Message)
					continue
				}
				fmt.Fprintf(out, "commit %s\n", c.Digest)
				fmt.Fprintf(out, "Date:  %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339))
				fmt.Fprintf(out, "\n    %s\n\n", c.Message)
				if stat {
					fmt.Fprintf(out, "    %d file(s)\n\n", len(c.Files))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "limit the number of commits shown (0 = all)")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "show each commit on a single line")
	cmd.Flags().BoolVar(&stat, "stat", false, "show a file count per commit")
	cmd.Flags().StringVar(&since, "since", "", "show only commits at or after this commit")
	return cmd
}
