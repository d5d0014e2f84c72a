// Package cli wires the tickbook commands: the API server plus the
// admin tools that talk straight to the store.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tickbook/tickbook/internal/config"
	"github.com/tickbook/tickbook/internal/logger"
	"github.com/tickbook/tickbook/internal/store"
)

var (
	cfgPath  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tickbook",
	Short: "Tickbook - time tracking API server",
	Long: `Tickbook is a multi-tenant time-tracking API: clients, projects,
start/stop timers and manual time logs with an overlap-free timeline,
reporting and a daily over-8-hours notification.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		logger.Init(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "tickbook.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(userCmd)
}

// openStore connects to the configured database and applies
// migrations.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
