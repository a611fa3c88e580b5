package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noamsl/finboard/internal/aggregate"
	"github.com/noamsl/finboard/internal/api"
	"github.com/noamsl/finboard/internal/blob"
	"github.com/noamsl/finboard/internal/config"
	"github.com/noamsl/finboard/internal/docstore"
	"github.com/noamsl/finboard/internal/logger"
	"github.com/noamsl/finboard/internal/repository"
)

func main() {
	cfg := config.Load()

	var (
		port   = flag.String("port", cfg.Port, "HTTP server port")
		bucket = flag.String("bucket", cfg.Bucket, "GCS bucket holding the tracker document (or set GCS_BUCKET env)")
		object = flag.String("object", cfg.ObjectName, "object name of the tracker document")
	)
	flag.Parse()
	cfg.Port = *port
	cfg.Bucket = *bucket
	cfg.ObjectName = *object

	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.LegacyLastWriteWins {
		log.Warn().Msg("Legacy last-write-wins saves enabled - concurrent writes can be lost")
	}

	ctx := context.Background()

	// Select the blob backend.
	var blobStore blob.Store
	switch cfg.BlobBackend {
	case "memory":
		log.Warn().Msg("Using in-memory blob backend - data is lost on exit")
		blobStore = blob.NewMemory()
	default:
		gcs, err := blob.NewGCS(ctx, cfg.Bucket, blob.GCSOptions{
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.StorageEndpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS store")
		}
		defer gcs.Close()
		blobStore = gcs
	}

	store := docstore.NewJSONStore(blobStore, cfg.ObjectName, log)
	conv := aggregate.NewConverter(cfg.BaseCurrency, cfg.Rates)

	cards := repository.NewCardRepository(store, conv, cfg.LegacyLastWriteWins, log)
	banks := repository.NewBankRepository(store, conv, cfg.LegacyLastWriteWins, log)
	trips := repository.NewTripRepository(store, cfg.LegacyLastWriteWins, log)

	server := api.NewServer(cards, banks, trips, log)

	handler := api.Recovery(log)(
		api.RequestLogger(log)(
			api.RequestID(
				api.CORS(server.Handler()),
			),
		),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("object", cfg.ObjectName).Msg("Starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
