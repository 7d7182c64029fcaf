package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/infra/db/postgres"
	"youtube-ai-summary/internal/infra/db/sqlite"
	"youtube-ai-summary/internal/infra/redis"
)

// sampleVideoID is the id served by the file provider after setup.
const sampleVideoID = "dQw4w9WgXcQ"

const sampleCaptions = `WEBVTT

00:00:00.000 --> 00:00:04.000
Welcome to this short talk about writing services in Go.

00:00:04.000 --> 00:00:09.000
We will look at worker pools, bounded queues and how to shut them down cleanly.

00:00:09.000 --> 00:00:14.000
Then we stream job progress to the browser with server-sent events.
`

// This script is for setting up a clean, predictable job store state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	log.Println("--- Starting E2E Environment Setup ---")

	log.Printf("[1/3] Wiping %s job store...", cfg.Store.Backend)
	if err := wipeStore(ctx, cfg); err != nil {
		log.Fatalf("wipe store: %v", err)
	}

	log.Println("[2/3] Clearing rate limit windows...")
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer client.Close()
		n, err := client.DeleteMatching(ctx, "rate_limit:*")
		if err != nil {
			log.Fatalf("clear rate limits: %v", err)
		}
		log.Printf("      removed %d keys", n)
	}

	log.Println("[3/3] Seeding sample captions...")
	if cfg.Subtitle.Provider == "file" {
		if err := seedCaptions(cfg.Subtitle.FileDir); err != nil {
			log.Fatalf("seed captions: %v", err)
		}
		log.Printf("      try: POST /api/jobs/subtitles?url=https://youtu.be/%s", sampleVideoID)
	} else {
		log.Println("      skipped (subtitle.provider is not file)")
	}

	log.Println("--- E2E Environment Setup Complete ---")
}

func wipeStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		_, err = pool.Exec(ctx, `TRUNCATE jobs`)
		return err
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		_, err = db.ExecContext(ctx, `DELETE FROM jobs`)
		return err
	case "redis":
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		n, err := client.DeleteMatching(ctx, "job:*")
		log.Printf("      removed %d jobs", n)
		return err
	case "memory":
		log.Println("      nothing to do for the memory store")
		return nil
	default:
		return fmt.Errorf("unknown backend %q", cfg.Store.Backend)
	}
}

func seedCaptions(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, sampleVideoID+".vtt"), []byte(sampleCaptions), 0o644)
}
