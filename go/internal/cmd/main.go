package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/typerace/go/internal/gateway"
	"github.com/mcdev12/typerace/go/internal/session"
	"github.com/mcdev12/typerace/go/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	roomStore, closeStore, err := setupStore(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up room store")
	}
	defer closeStore()

	gatewayConfig := gateway.Config{
		Connection: gateway.DefaultConnectionConfig(),
		Session: session.Config{
			ReferenceText:  config.Race.ReferenceText,
			CountdownTicks: config.Race.CountdownSeconds,
		},
	}
	gatewayService := gateway.NewService(roomStore, gatewayConfig)

	server := setupServer(config, gatewayService)

	go func() {
		log.Info().Str("port", config.Server.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func setupStore(ctx context.Context, config *Config) (store.Store, func(), error) {
	switch config.Store.Backend {
	case "memory":
		log.Info().Msg("using in-process room store")
		return store.NewMemory(), func() {}, nil
	default:
		natsConfig := store.DefaultNATSConfig()
		natsConfig.URL = config.Store.NATS.URL
		natsConfig.Bucket = config.Store.NATS.Bucket
		natsStore, err := store.NewNATS(ctx, natsConfig)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("url", natsConfig.URL).Str("bucket", natsConfig.Bucket).Msg("using NATS room store")
		return natsStore, natsStore.Close, nil
	}
}
