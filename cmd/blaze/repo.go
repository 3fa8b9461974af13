package main

import (
	"log/slog"
	"os"

	"blaze/internal/repo"

	"github.com/spf13/cobra"
)

// repoOptions builds repo.Options from the --prefix persistent flag and
// the injected logger, shared by every subcommand that touches a
// repository.
func repoOptions(cmd *cobra.Command, logger *slog.Logger) repo.Options {
	prefix, _ := cmd.Flags().GetString("prefix")
	return repo.Options{Prefix: prefix, Logger: logger}
}

// openRepo opens the repository rooted at the current working directory.
func openRepo(cmd *cobra.Command, logger *slog.Logger) (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return repo.Open(cwd, repoOptions(cmd, logger))
}
