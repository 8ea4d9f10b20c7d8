package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fadedpez/vaultspin/internal/adapters/httpapi"
	"github.com/fadedpez/vaultspin/internal/config"
	"github.com/fadedpez/vaultspin/internal/logging"
	"github.com/fadedpez/vaultspin/pkg/auth"
	"github.com/fadedpez/vaultspin/pkg/catalog"
	collectionRepo "github.com/fadedpez/vaultspin/pkg/repositories/collection"
	ledgerRepo "github.com/fadedpez/vaultspin/pkg/repositories/ledger"
	"github.com/fadedpez/vaultspin/pkg/scheduler"
	"github.com/fadedpez/vaultspin/pkg/services/engine"
	ledgerSvc "github.com/fadedpez/vaultspin/pkg/services/ledger"
	"github.com/fadedpez/vaultspin/pkg/services/reel"
	"github.com/fadedpez/vaultspin/pkg/services/resolver"
	"github.com/fadedpez/vaultspin/pkg/storage"
	storageFile "github.com/fadedpez/vaultspin/pkg/storage/file"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.LevelFromString(cfg.LogLevel))
	logger.Info("Starting vaultspin (env=%s, storage=%s, draw=%s)", cfg.Environment, cfg.StorageType, cfg.DrawAuthority)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load pack catalog: %v", err)
	}
	logger.Info("Catalog loaded with %d packs", len(cat.Keys()))

	// Points ledger storage
	var pointsRepo ledgerRepo.Repository
	if cfg.StorageType == "sqlite" {
		dbPath := filepath.Join(cfg.DataDir, "ledger.db")
		repo, err := ledgerRepo.NewSQLiteRepository(dbPath)
		if err != nil {
			log.Printf("Failed to initialize SQLite ledger at %s: %v", dbPath, err)
			log.Println("Falling back to in-memory ledger")
			pointsRepo = ledgerRepo.NewMemoryRepository()
		} else {
			pointsRepo = repo
			logger.Info("SQLite ledger ready at %s", dbPath)
		}
	} else {
		pointsRepo = ledgerRepo.NewMemoryRepository()
		log.Println("Using in-memory ledger (balances will be lost on restart)")
	}
	defer pointsRepo.Close()

	// Collection storage
	var cardRepo collectionRepo.Repository
	if cfg.StorageType == "sqlite" {
		dbPath := filepath.Join(cfg.DataDir, "collection.db")
		repo, err := collectionRepo.NewSQLiteRepository(dbPath)
		if err != nil {
			log.Printf("Failed to initialize SQLite collection at %s: %v", dbPath, err)
			log.Println("Falling back to in-memory collection")
			cardRepo = collectionRepo.NewMemoryRepository()
		} else {
			cardRepo = repo
			logger.Info("SQLite collection ready at %s", dbPath)
		}
	} else {
		cardRepo = collectionRepo.NewMemoryRepository()
		log.Println("Using in-memory collection (ownership will be lost on restart)")
	}
	defer cardRepo.Close()

	// Optional open-history archive
	var archive *collectionRepo.ElasticsearchRepository
	if cfg.ElasticEnabled {
		esCfg := collectionRepo.DefaultElasticsearchConfig()
		esCfg.URL = cfg.ElasticURL
		decorated, err := collectionRepo.NewElasticsearchRepository(cardRepo, esCfg)
		if err != nil {
			log.Printf("Failed to initialize Elasticsearch archive: %v", err)
			log.Println("Continuing without the open-history archive")
		} else {
			archive = decorated
			cardRepo = decorated
			logger.Info("Elasticsearch archive enabled at %s", cfg.ElasticURL)
		}
	}

	// Local open-history journal
	history, err := storageFile.New(&storage.Options{
		Path:        filepath.Join(cfg.DataDir, "history.json"),
		MaxAge:      30 * 24 * time.Hour,
		AutoCleanup: false, // the maintenance scheduler trims it
	})
	if err != nil {
		log.Fatalf("Failed to open history journal: %v", err)
	}

	points := ledgerSvc.NewService(pointsRepo)

	draws, err := resolver.New(resolver.Odds{
		Legendary: cfg.OddsLegendary,
		Ultra:     cfg.OddsUltra,
		Epic:      cfg.OddsEpic,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to build resolver: %v", err)
	}

	var remote resolver.RemoteDraw
	if cfg.DrawAuthority == "remote" {
		remote = resolver.NewHTTPRemoteDraw(cfg.RemoteDrawURL, cfg.RemoteDrawTimeout)
		logger.Info("Draw authority delegated to %s", cfg.RemoteDrawURL)
	}

	animator := reel.NewAnimator(reel.DefaultConfig(), nil, nil, resolver.DefaultRNG())

	eng, err := engine.New(engine.Config{
		PaidRewardPoints: cfg.PaidRewardPoints,
		FreeOpenCost:     cfg.FreeOpenCost,
		ReelLength:       reel.DefaultLength,
		SettleTimeout:    cfg.SettleTimeout,
		RemoteTimeout:    cfg.RemoteDrawTimeout,
	}, engine.Deps{
		Catalog:  cat,
		Resolver: draws,
		Remote:   remote,
		Animator: animator,
		Ledger:   points,
		Store:    cardRepo,
		History:  history,
		Logger:   logger,
		OnStatus: func(s engine.Status) {
			logger.Debug("[STATUS] %s: %s", s.Severity, s.Text)
		},
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	authSvc := auth.NewStaticService(cfg.AuthTokens, cfg.AllowGuests)

	e := echo.New()
	e.HideBanner = true
	handler := httpapi.NewHandler(eng, cat, points, cardRepo, draws, authSvc, logger)
	handler.Register(e)

	// Background maintenance
	maintOpts := []scheduler.MaintenanceOption{
		scheduler.WithHistory(history, 30*24*time.Hour),
	}
	if archive != nil {
		maintOpts = append(maintOpts, scheduler.WithArchive(archive))
	}
	maintenance := scheduler.NewMaintenanceScheduler(maintOpts...)
	maintenance.Start(context.Background())
	defer maintenance.Stop()

	go func() {
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
	logger.Info("Listening on %s. Press Ctrl+C to exit", cfg.Addr)

	// Wait for interrupt signal to gracefully shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
