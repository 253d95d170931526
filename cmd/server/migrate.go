package main

import (
	"github.com/spf13/cobra"

	"lumeer-engine/internal/config"
	"lumeer-engine/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadConfig()
		cfg := config.AppConfig
		log := newLogger(cfg)

		database, err := db.Connect(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close(database, log)

		return db.Migrate(database, log)
	},
}
