package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every platform table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, closeDB, err := connect()
			if err != nil {
				return err
			}
			defer closeDB()

			models := model.All()
			if err := database.MigrateModels(db, models...); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			log.Info("Migration complete", zap.Int("models", len(models)))
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d models\n", len(models))
			return nil
		},
	}
}
