package main

import (
	"github.com/spf13/cobra"

	"github.com/yanizio/adept-auth/internal/database"
)

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply profile-table migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := boot(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := database.Migrate(cfg.Database.Driver, cfg.Database.ResolvedDSN()); err != nil {
				return err
			}
			log.Infow("migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
