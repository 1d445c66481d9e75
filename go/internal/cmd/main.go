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
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bidwize/bw-gateway/go/clients/bidwize_api_client"
	"github.com/bidwize/bw-gateway/go/internal/gateway"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	api := bidwize_api_client.NewBidwizeApiClient(config.Backend.BaseURL)
	api.SetTimeout(config.backendTimeout())

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	watcher := gateway.NewWatcher(gateway.NewBackend(api), cm, clockwork.NewRealClock())

	handler := gateway.NewHandler(api, watcher)
	wsHandler := gateway.NewWebSocketHandler(cm, watcher)
	server := setupServer(config, handler, wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("backend", config.Backend.BaseURL).
			Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	watcher.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
