package main

import (
	"log"
	"os"

	"github.com/kncci/jiinue-dashboard/internal/api"
	"github.com/kncci/jiinue-dashboard/internal/config"
	"github.com/kncci/jiinue-dashboard/internal/sheet"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cache := sheet.NewCache(cfg.CacheTTL(), nil)
	loader := sheet.NewLoader(sheet.NewFetcher(), cache, cfg.Sheet.URL, cfg.Columns, cfg.ParticipantRules())

	srv := api.NewServer(cfg, loader)
	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
