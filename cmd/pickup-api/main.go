// README: Entry point; loads config, wires collaborators, starts HTTP server and the cycle scheduler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pickup/internal/audit"
	"pickup/internal/config"
	httptransport "pickup/internal/http"
	"pickup/internal/http/handlers"
	"pickup/internal/infra"
	"pickup/internal/logger"
	"pickup/internal/metrics"
	"pickup/internal/modules/location"
	"pickup/internal/modules/matching"
	"pickup/internal/modules/trip"
)

func main() {
	log := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("db init", "error", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	// Spatial scoring needs geocoding; without an API key the matcher
	// still runs on the time-only policy.
	var resolver location.Resolver
	if cfg.Maps.APIKey != "" {
		mapsClient, err := infra.NewMaps(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", "error", err)
		}
		resolver = location.NewCachedResolver(
			location.NewGoogleResolver(mapsClient),
			location.NewRedisCache(redisClient),
			log,
		)
	} else if cfg.Matching.ScoringPolicy == config.ScoringSpatial {
		log.Fatal("GOOGLE_MAPS_API_KEY is required for spatial scoring")
	}

	tripStore := trip.NewStore(dbPool)
	auditSink := audit.NewLogSink(log)
	m := metrics.NewMetrics("pickup")

	matchingSvc := matching.NewService(tripStore, tripStore, resolver, auditSink, m, cfg.Matching)

	matchingHandler := handlers.NewMatchingHandler(matchingSvc, cfg.Matching.Location())
	router := httptransport.NewRouter(matchingHandler, log)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go matchingSvc.RunScheduler(ctx)

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Info("pickup-api listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server", "error", err)
	}
}
