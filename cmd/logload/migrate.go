package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/logload/internal/exitcode"
	"github.com/gyeh/logload/internal/logging"
	"github.com/gyeh/logload/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the destination schema, table or collection index",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log, err := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if err := cfg.ValidateStore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	target, _ := cfg.ParsedTarget()

	st, err := store.Open(ctx, cfg.URI, storeLogger(log))
	if err != nil {
		log.Error().Err(err).Msg("store connection failed")
		os.Exit(exitcode.StoreConnError)
	}
	defer st.Close(ctx)

	applied, err := store.Migrate(ctx, st, target)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		st.Close(ctx)
		os.Exit(exitcode.StoreWriteError)
	}
	if !applied {
		log.Info().Str("target", target.String()).Msg("store needs no migration")
		return nil
	}

	log.Info().Str("target", target.String()).Msg("migration applied successfully")
	return nil
}
