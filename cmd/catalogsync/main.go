package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/bootstrap"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/cache"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/database"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
)

// Runs one catalog sync and prints the result as JSON.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := bootstrap.New(ctx, database.GetDB(), cache.NewStore(cache.GetClient()), catalogsync.NewFeedClientFromEnv())
	res, err := services.Syncer.Sync(ctx)
	if err != nil {
		if rerr := services.Statistics.RecordFailure(ctx, err); rerr != nil {
			log.Printf("Recording failure failed: %v", rerr)
		}
		if res == nil {
			log.Fatalf("Catalog sync failed: %v", err)
		}
		log.Printf("Catalog sync interrupted: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		log.Fatal(encErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
