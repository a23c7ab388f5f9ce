package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veridetect/plagiscan/internal/api"
	"github.com/veridetect/plagiscan/internal/config"
	"github.com/veridetect/plagiscan/internal/detector"
	"github.com/veridetect/plagiscan/internal/embedclient"
	"github.com/veridetect/plagiscan/internal/health"
	"github.com/veridetect/plagiscan/internal/ingestor"
	"github.com/veridetect/plagiscan/internal/objectstore"
	"github.com/veridetect/plagiscan/internal/vectorstore"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := embedclient.New(embedclient.Config{
		Endpoint:    cfg.EmbedEndpoint,
		APIKey:      cfg.EmbedAPIKey,
		Model:       cfg.EmbedModel,
		Dimensions:  cfg.EmbedDims,
		BatchSize:   cfg.EmbedBatchSize,
		MaxAttempts: cfg.EmbedMaxAttempts,
		Timeout:     cfg.EmbedTimeout,
	})

	store := vectorstore.NewREST(cfg.VectorStoreURL, cfg.VectorStoreIndex, cfg.VectorStoreAPIKey, cfg.SearchTimeout)
	if err := store.EnsureIndex(ctx, cfg.EmbedDims); err != nil {
		log.Error("failed to ensure vector store index", "error", err)
		os.Exit(1)
	}

	objects := objectstore.NewClient(cfg.ObjectStoreURL, cfg.ObjectStoreAccessKey, cfg.ObjectStoreSecretKey)

	chunkCfg := chunkerConfig(cfg)

	det := detector.New(embedder, store, detector.Config{
		ChunkConfig:         chunkCfg,
		Thresholds:          detector.Thresholds{Critical: cfg.SimilarityCritical, High: cfg.SimilarityHigh, Medium: cfg.SimilarityMedium, Low: cfg.SimilarityLow},
		MaxParallelSearches: cfg.MaxParallelSearches,
		DefaultTopK:         cfg.TopKResults,
		DefaultMinScore:     cfg.MinScoreThreshold,
		MaxResultsPerSource: cfg.MaxResultsPerSource,
		NumCandidatesFloor:  100,
		SearchTimeout:       cfg.SearchTimeout,
	})
	ing := ingestor.New(embedder, store, chunkCfg)

	prober := health.NewProber()
	prober.Register("vector_store", func(ctx context.Context) error {
		_, _, err := store.SearchDocuments(ctx, "", 1, 0)
		return err
	})
	prober.Register("embedder", func(ctx context.Context) error {
		_, err := embedder.Embed(ctx, []string{"health check"})
		return err
	})
	prober.Register("object_store", func(ctx context.Context) error {
		_, err := objects.FetchObject(ctx, "healthcheck", "ping")
		if err != nil {
			// A 404 on a nonexistent probe object still proves the store
			// is reachable; any other failure is a real outage.
			return ignoreNotFound(err)
		}
		return nil
	})
	prober.Start(cfg.HealthCheckInterval)

	srv := api.NewServer(det, ing, objects, prober, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		prober.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		embedder.Close()
		store.Close()
		objects.Close()
	}()

	log.Info("starting plagiscan", "port", cfg.Port, "chunk_preset", cfg.ChunkPreset)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
