package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
)

// app carries state shared by all subcommands.
type app struct {
	verbose bool
	logger  *zap.Logger
}

func (a *app) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "archverify",
		Short: "Verify compiled JVM classes against your architecture",
		Long: "archverify reads .class files, jars, and wars and checks every class reference against " +
			"the packages and dependencies declared in your design.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newGraphCmd(a))
	cmd.AddCommand(newConvertCmd(a))
	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
