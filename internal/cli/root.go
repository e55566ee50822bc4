// Package cli implements the chanbench command tree.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRoot constructs the chanbench root command with the run and inspect
// subcommands.
func NewRoot() *cobra.Command {
	var (
		logLevel  string
		logFormat string
		logger    = zap.NewNop()
	)

	root := &cobra.Command{
		Use:          "chanbench",
		Short:        "Benchmark and inspect blocking channels",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			logger, err = newLogger(cmd.ErrOrStderr(), logLevel, logFormat)
			return
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", envString("LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", envString("LOG_FORMAT", "console"), "Log format: console|json")

	getLogger := func() *zap.Logger { return logger }

	root.AddCommand(newRunCommand(getLogger))
	root.AddCommand(newInspectCommand(getLogger))
	return root
}
