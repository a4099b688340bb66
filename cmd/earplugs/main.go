package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"earplugs/internal/store"
	"earplugs/shared/go/config"
	"earplugs/shared/go/logging"
)

func main() {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	dataStore := store.New(db)
	app := newApplication(cfg, db, dataStore)

	if err := bootstrapAdmin(ctx, cfg, app.users); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	}

	if err := serve(ctx, cfg, app.handler()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
