// Package cli implements platformctl, the operator command line.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/logger"
)

const commandName = "platformctl"

// NewRootCommand creates the platformctl root command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Operate the Nexzo platform database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewRulePacksCommand())

	return cmd
}

// connect loads configuration the same way the services do and opens the
// database. The returned func closes it.
func connect() (*gorm.DB, *zap.Logger, func(), error) {
	cfg, err := config.Load(commandName)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: commandName,
	}); err != nil {
		return nil, nil, nil, err
	}
	log := logger.GetLogger()

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, log, func() {
		_ = database.Close(db)
		_ = log.Sync()
	}, nil
}
