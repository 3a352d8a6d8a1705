// Command reco-server runs the msflix recommendation engine API.
package main

import (
	"fmt"
	"os"

	"github.com/msflix/reco-engine/internal/config"
	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/reco"
	"github.com/msflix/reco-engine/internal/store"
	"github.com/msflix/reco-engine/internal/tmdb"
	"github.com/msflix/reco-engine/internal/userstate"
	"github.com/msflix/reco-engine/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	var st store.Store
	if cfg.Store.Path == "" {
		st = store.NewMemory()
	} else {
		badgerStore, err := store.OpenBadger(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		st = badgerStore
	}
	defer st.Close()

	client, err := tmdb.NewClient(tmdb.Config{
		BaseURL: cfg.TMDB.BaseURL,
		APIKey:  cfg.TMDB.APIKey,
		Timeout: cfg.TMDB.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating TMDB client: %w", err)
	}
	catalog := tmdb.NewBreakerClient(client)

	users := userstate.NewService(st)
	poolCache := reco.NewPoolCache(st, cfg.Reco.PoolCacheTTL)
	engine := reco.NewEngine(catalog, st, users, poolCache, reco.Options{
		MinRating:       cfg.Reco.MinRating,
		MinVotes:        cfg.Reco.MinVotes,
		MaxPoolSize:     cfg.Reco.MaxPoolSize,
		HistoryCapacity: cfg.Reco.HistoryCapacity,
	})

	server := web.NewServer(web.ServerConfig{
		Addr:     cfg.Server.Addr,
		Handlers: web.NewHandlers(engine, users, catalog),
	})
	return server.Run()
}
