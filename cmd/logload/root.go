package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/logload/internal/config"
	_ "github.com/gyeh/logload/internal/store/all"
)

var (
	cfg        = config.Default()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "logload",
	Short:         "Server log → database bulk loader",
	Long:          "Parses MongoDB server log lines into structured records and bulk-loads them into a database through a pool of batching workers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; values already in the environment win.
		_ = godotenv.Load()
		if !cmd.Flags().Changed("uri") && cfg.URI == "" {
			cfg.URI = os.Getenv("LOGLOAD_URI")
		}
		if configFile == "" {
			return nil
		}
		if err := cfg.LoadFromFile(configFile, cmd.Flags().Changed); err != nil {
			return fmt.Errorf("load %s: %w", configFile, err)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.URI, "uri", os.Getenv("LOGLOAD_URI"), "Store URI, e.g. postgres://…, mongodb://…, sqlite://path (or set LOGLOAD_URI)")
	pf.StringVar(&cfg.Target, "target", "", "Destination as <database>.<collection>")
	pf.StringVar(&cfg.LogFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&configFile, "config", "", "YAML config file; explicit flags override its values")
}
