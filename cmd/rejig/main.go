// Command rejig deploys the Rejig protocol and reports on its artifacts.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rejig-app/rejig-deploy/internal/config"
)

var (
	verbose    bool
	configPath string
	network    string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rejig",
	Short: "Deployment tooling for the Rejig protocol",
	Long: `rejig deploys the Rejig social graph contracts from their compiled
artifacts, pre-computing every contract address from the deployer nonce, and
writes the resulting address and ABI files for the front end.

Configuration is read from rejig.yaml when present, and from ../.env and .env.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadDotEnv(config.DotEnvFiles...); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds the CLI logger. --verbose always wins over the configured level.
func newLogger(c config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(c.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "Network to use (default: the configured default network)")

	for _, c := range []*cobra.Command{fullDeployCmd, deployLocalhostCmd} {
		c.Flags().BoolVar(&unpause, "unpause", false, "Unpause the protocol after deploying")
	}

	rootCmd.AddCommand(fullDeployCmd)
	rootCmd.AddCommand(deployLocalhostCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(addressCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
