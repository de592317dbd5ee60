package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"photo-agency/internal/adapters/cli"
	"photo-agency/internal/config"
	"photo-agency/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := cli.NewRuntime(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer rt.Close()

	if err := cli.Serve(ctx, rt); err != nil {
		log.Error().Err(err).Msg("server stopped")
		stop()
		rt.Close()
		os.Exit(1)
	}
}
