// Package cli implements the macae command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is reported by tracing and the root command.
var Version = "dev"

type globalFlags struct {
	config string
	debug  bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "macae",
		Short:         "Multi-agent coordination engine with human approval checkpoints",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "development logging at debug level")
	root.AddCommand(newServeCommand(flags), newRunCommand(flags))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newLogger(debug bool, level zapcore.Level) (*zap.SugaredLogger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
