package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/discovered-games/careerbingo/internal/bingo"
	"github.com/discovered-games/careerbingo/internal/bingo/match"
	"github.com/discovered-games/careerbingo/internal/cache"
	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/discovered-games/careerbingo/internal/clock"
	"github.com/discovered-games/careerbingo/internal/content"
	"github.com/discovered-games/careerbingo/internal/database"
	eventlogDb "github.com/discovered-games/careerbingo/internal/database/eventlog/database"
	"github.com/discovered-games/careerbingo/internal/logging"
	"github.com/discovered-games/careerbingo/internal/server"
	"github.com/discovered-games/careerbingo/internal/shutdown"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, done := shutdown.New()
	defer done()

	config := bingo.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, config, done); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config bingo.Config, done func()) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	cat := catalog.Default()
	if config.CatalogPath != "" {
		loaded, err := catalog.NewFromFile(config.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	}
	logger.Infof("catalog loaded, %d entities", cat.Len())

	db, err := database.NewFromEnv(ctx, &config.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}
	defer db.Close(ctx)

	summaryCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	recorder := eventlogDb.New(db, summaryCache)
	broadcaster := match.BroadcastFunc(func(sessionID string, ev match.Event) {
		logger.Debugf("event %s, session %s: %+v", ev.Kind(), sessionID, ev)
	})

	registry := bingo.NewRegistry(
		&config,
		cat,
		content.NewCatalogProvider(cat),
		broadcaster,
		recorder,
		clock.NewReal(),
	)

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.ServeHTTP(ctx, &http.Server{Handler: mux})
	})

	group.Go(func() error {
		if err := http.ListenAndServe(":"+config.ProfPort, nil); err != nil {
			logger.Errorf("pprof default server: %v", err)
			done()
		}
		return nil
	})

	group.Go(func() error {
		return registry.Run(ctx)
	})

	group.Go(func() error {
		return runLobby(ctx, registry)
	})

	return group.Wait()
}

// runLobby keeps a perpetual simulated room alive so the server has live
// sessions to observe out of the box.
func runLobby(ctx context.Context, registry *bingo.Registry) error {
	logger := logging.FromContext(ctx).Named("main.runLobby")

	const room = "lobby"
	tiers := []string{"easy", "medium", "medium", "hard"}

	for {
		for i, tier := range tiers {
			identity := bingo.Identity{
				Name:    fmt.Sprintf("bot-%d", i+1),
				Kind:    match.KindSimulated,
				Profile: match.ProfileForTier(tier),
			}
			if _, err := registry.Join(room, identity); err != nil {
				return fmt.Errorf("join lobby: %w", err)
			}
		}

		session, err := registry.StartSession(room)
		if err != nil {
			return fmt.Errorf("start lobby session: %w", err)
		}
		logger.Infof("lobby session %s started", session.ID)

		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			logger.Infof("lobby session %s completed, reason %s", session.ID, session.Reason())
		}
	}
}
