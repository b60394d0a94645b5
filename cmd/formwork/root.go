package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/formwork/internal/config"
	"github.com/aretw0/formwork/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formwork",
	Short: "Formwork is a form definition and conditional logic engine",
	Long: `Formwork stores versioned form templates, evaluates their conditional logic and
validates responses against the questions that end up visible.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.Log.Level = level
		}
		cfg = loaded
		logger = logging.FromConfig(cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "formwork.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
}
