package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"relief-disbursement-gateway/config"
	pgStorage "relief-disbursement-gateway/internal/adapter/storage/postgres"
	"relief-disbursement-gateway/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, env vars suffice)")
	flag.Parse()

	command := "up"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := pgStorage.MigrateCommand(context.Background(), cfg.Database, command); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}

	log.Info().Str("command", command).Msg("migration command completed")
}
