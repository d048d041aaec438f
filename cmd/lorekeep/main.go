package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/lorekeep/lorekeep/db"
	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/config"
	"github.com/lorekeep/lorekeep/internal/mailer"
	"github.com/lorekeep/lorekeep/internal/router"
	"github.com/lorekeep/lorekeep/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	database, err := db.Connect(cfg.DatabaseDSN)

	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.Migrate(database); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	uploads, err := storage.NewStore(cfg.UploadDir)

	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	var m mailer.Mailer = mailer.LogMailer{}

	if cfg.ResendAPIKey != "" {
		m = mailer.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.PublicURL)
	} else {
		log.Warn().Msg("RESEND_API_KEY not set, outbound email disabled")
	}

	r := router.New(router.Dependencies{
		DB:      database,
		Tokens:  auth.NewManager(cfg.JWTSecret),
		Mailer:  m,
		Uploads: uploads,
	})

	log.Info().Str("port", cfg.Port).Msg("starting server")

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
