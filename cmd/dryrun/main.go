// README: One-shot dry-run: runs a matching cycle without persisting and writes the CSV artifact.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pickup/internal/audit"
	"pickup/internal/config"
	"pickup/internal/infra"
	"pickup/internal/logger"
	"pickup/internal/modules/location"
	"pickup/internal/modules/matching"
	"pickup/internal/modules/trip"
)

func main() {
	csvPath := flag.String("csv", "matches_dryrun.csv", "CSV path for the dry-run output")
	flag.Parse()

	log := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load", "error", err)
	}

	ctx := context.Background()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("db init", "error", err)
	}
	defer dbPool.Close()

	var resolver location.Resolver
	if cfg.Maps.APIKey != "" {
		mapsClient, err := infra.NewMaps(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", "error", err)
		}
		resolver = location.NewCachedResolver(
			location.NewGoogleResolver(mapsClient),
			location.NewRedisCache(infra.NewRedis(cfg.Redis.Addr)),
			log,
		)
	}

	tripStore := trip.NewStore(dbPool)
	// Metrics are nil here: a one-shot run has nothing to scrape.
	svc := matching.NewService(tripStore, tripStore, resolver, audit.NewLogSink(log), nil, cfg.Matching)

	report, err := svc.RunCycle(ctx, time.Now().In(cfg.Matching.Location()), true)
	if err != nil {
		log.Fatal("cycle", "error", err)
	}

	if len(report.Groups) == 0 {
		fmt.Println("No matches to write.")
		return
	}

	f, err := os.Create(*csvPath)
	if err != nil {
		log.Fatal("create csv", "error", err)
	}
	defer f.Close()

	if err := matching.WriteCSV(f, report.Groups); err != nil {
		log.Fatal("write csv", "error", err)
	}
	fmt.Printf("Wrote dry-run CSV with %d matches -> %s\n", len(report.Groups), *csvPath)
}
