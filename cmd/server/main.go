// Package main - Entry point for the storage ordering server
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"staas-order/adapters/history"
	"staas-order/api"
	"staas-order/core/order"
	"staas-order/core/selection"
	"staas-order/internal/config"
	"staas-order/internal/logging"
	"staas-order/slapi"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	cfgPath := flag.String("config", "", "Config file path")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".staas-order.json")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.ApplyEnv()
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("initializing logging: %v", err)
	}
	defer logging.Sync()

	if cfg.API.Username == "" || cfg.API.APIKey == "" {
		log.Fatal("API credentials are not configured; set SL_USERNAME and SL_API_KEY or add them to the config file")
	}

	client := slapi.NewClient(&slapi.Config{
		Endpoint: cfg.API.Endpoint,
		Username: cfg.API.Username,
		APIKey:   cfg.API.APIKey,
		Timeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	session := order.NewSession(client, order.Options{
		PackageType:     cfg.Order.PackageType,
		OSFormatKeyName: cfg.Order.OSFormatKeyName,
		Mapping: selection.TypeCategoryMapping{
			Categories: cfg.Order.StorageTypeCategories,
			Default:    cfg.Order.StorageTypeCategoryDefault,
		},
	})

	var store history.Store
	if cfg.History.Enabled {
		store, err = history.NewStore(history.Backend(cfg.History.Backend), cfg.History.Directory)
		if err != nil {
			log.Fatalf("opening order history: %v", err)
		}
		defer store.Close()
	}

	apiServer := api.NewServerWithHistory(version, session, store)

	fmt.Printf("🚀 Storage Order Server v%s\n", version)
	fmt.Printf("   API:     http://localhost%s\n", *addr)
	fmt.Printf("   Catalog: %s\n", cfg.API.Endpoint)
	fmt.Println()

	if err := apiServer.ListenAndServe(*addr); err != nil {
		log.Fatal(err)
	}
}
