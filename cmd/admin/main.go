package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tair/goldlink/pkg/config"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "goldlink-admin",
		Short:         "Operator tooling for the goldlink marketplace",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a config file")

	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(createOwnerCmd(&configPath))
	rootCmd.AddCommand(refreshRatesCmd(&configPath))
	rootCmd.AddCommand(auditCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds what every subcommand needs
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func openEnv(configPath string) (*env, error) {
	cfg, err := config.LoadTooling(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Init("goldlink-admin", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	db, err := database.Open(cfg.Database.Driver, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}
