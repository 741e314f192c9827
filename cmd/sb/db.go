package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the audit archive tables",
		Long:  "Connects to the configured archive database (sqlite or mysql) and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath, envPath)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath, envPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("no database configured (set database.driver)")
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}
