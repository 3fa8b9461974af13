// Command blaze is a thin CLI front end over the blaze engine. It maps
// flags to engine calls and formats results; it carries no business logic
// of its own, the way cmd/gastrolog wraps its own orchestrator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"blaze/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	logger := logging.Default(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	rootCmd := &cobra.Command{
		Use:   "blaze",
		Short: "Chunk-addressed local version control",
	}
	rootCmd.PersistentFlags().String("prefix", "blaze", "repository directory/ignore-file prefix")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		newInitCmd(logger),
		newAddCmd(logger),
		newCommitCmd(logger),
		newLogCmd(logger),
		newStatusCmd(logger),
		newCheckoutCmd(logger),
		newBranchCmd(logger),
		newStatsCmd(logger),
		newVerifyCmd(logger),
		newOptimizeCmd(logger),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
