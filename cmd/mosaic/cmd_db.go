package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/config"
	"github.com/mosaicpim/mosaic/database/seeders"
	"github.com/mosaicpim/mosaic/pkg/database"
	"github.com/mosaicpim/mosaic/pkg/migration"
)

var seedTenantFlag string

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

// mosaic migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		return migration.New(database.DB).Run()
	},
}

// mosaic migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		fmt.Println("Rolling back last batch…")
		return migration.New(database.DB).Rollback()
	},
}

// mosaic migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		return migration.New(database.DB).Status()
	},
}

// mosaic seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the demo tenant's catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		if err := migration.New(database.DB).Run(); err != nil {
			return err
		}

		states := repositories.NewStateRepository()
		fmt.Println("Running seeders…")
		return seeders.Run(&seeders.CatalogSeeder{
			Tenant:   seedTenantFlag,
			Settings: repositories.NewSettingsRepository(states),
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedTenantFlag, "tenant", "t", "demo", "Tenant to seed")
}
