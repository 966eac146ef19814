package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/worktally/internal/config"
	"github.com/worktally/internal/logging"
	"github.com/worktally/internal/missing"
	"github.com/worktally/internal/storage"
	"github.com/worktally/internal/tracker"
	"github.com/worktally/internal/work"
)

var (
	cfg            *config.Config
	db             *storage.Database
	logger         *slog.Logger
	rules          *work.Rules
	scannerService *missing.Scanner
	trackerService *tracker.Tracker
)

var rootCmd = &cobra.Command{
	Use:           "worktally",
	Short:         "Work-time accounting over logged worklogs",
	Long:          `Worktally compares logged work with the expected working time of each day, week and month and finds workdays that are missing worklogs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(os.Stderr, viper.GetBool("verbose"))
		cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))

		var err error
		if path := viper.GetString("config"); path != "" {
			cfg, err = config.LoadFrom(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		if dbPath := viper.GetString("database"); dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		origin, local, err := cfg.Locations()
		if err != nil {
			return err
		}
		rules, err = cfg.Rules()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return err
		}
		db, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return err
		}

		scannerService = missing.NewScanner(missing.Config{
			Source:      db,
			Rules:       rules,
			HoursPerDay: cfg.HoursPerDayDecimal(),
			OriginZone:  origin,
			LocalZone:   local,
			Logger:      logger,
		})
		trackerService = tracker.New(tracker.Config{
			Source:      db,
			Store:       db,
			Rules:       rules,
			HoursPerDay: cfg.HoursPerDayDecimal(),
			DaysPerWeek: cfg.DaysPerWeekDecimal(),
			OriginZone:  origin,
			LocalZone:   local,
			Logger:      logger,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	viper.SetEnvPrefix("WORKTALLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.worktally.yaml)")
	rootCmd.PersistentFlags().String("database", "", "worklog database path")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(daysCmd)
	rootCmd.AddCommand(missingCmd)
	rootCmd.AddCommand(firstMissingCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(archiveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error("command failed", "error", err, "error_kind", logging.ErrorKind(err))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
