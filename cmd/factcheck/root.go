package main

import (
	"fmt"

	"open-factcheck/internal/config"
	"open-factcheck/internal/database"
	"open-factcheck/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "factcheck",
	Short: "Open Fact-Check - claim verification and ranking service",
	Long: `factcheck runs the claim verification service: users submit claims,
accredited reviewers attach verdicts with sources, and engagement drives the
trending list and the reviewer leaderboard.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "YAML config file; environment variables override it")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, rescoreCmd, tokenCmd)
}

// app bundles what every subcommand needs
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
	a.log.Sync()
}
