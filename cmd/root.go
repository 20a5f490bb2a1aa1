package cmd

import (
	"fmt"
	"os"

	"relation-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "relation-manager",
	Short: "Relation Manager Service",
	Long: `Relation Manager reconciles the child collections of database records
against incoming payloads: one-to-many children are created, updated and
deleted, many-to-many children are linked and unlinked.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding with the development config keeps CLI failures readable
		cfg := &logger.Config{
			Level:  "debug",
			Format: logger.FormatConsole,
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
