// Package root contains the root command for the application
package root

import (
	"fjacquet/txn-import/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	Database   string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// AppConfig is loaded before any subcommand runs.
	AppConfig *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "txn-import",
		Short: "Import bank statement lines as pending transactions and review them.",
		Long: `txn-import turns freeform bank statement text into categorized pending
transactions. Each pending transaction can then be accepted into the ledger,
categorized on demand with AI, edited or discarded.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return LoadConfig()
		},
	}

	// SharedFlags holds the persistent flags of the root command.
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.txn-import, .txn-import or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Override the configured log level")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Database, "db", "", "Override the configured database path")
}

// LoadConfig reads .env and the configuration, applies flag overrides and
// configures Log.
func LoadConfig() error {
	if file, err := config.LoadEnv(); err != nil {
		Log.WithError(err).Warn("Failed to load .env file")
	} else if file != "" {
		Log.WithField("file", file).Debug("Loaded environment variables")
	}

	cfg, err := config.LoadConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.Database != "" {
		cfg.Database.Path = SharedFlags.Database
	}

	config.ApplyLogging(Log, cfg)
	AppConfig = cfg
	return nil
}
