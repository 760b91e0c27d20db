package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/history"
)

func main() {
	days := flag.Int("days", 30, "delete messages older than this many days")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Mongo.URI == "" {
		log.Fatal("MONGO_URI is required")
	}

	ctx := context.Background()

	store, err := history.NewMongoStore(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Printf("close mongo: %v", err)
		}
	}()

	cutoff := time.Now().UTC().AddDate(0, 0, -*days)
	deleted, err := store.DeleteBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("cleanup: %v", err)
	}

	log.Printf("deleted %d messages older than %d days", deleted, *days)
}
