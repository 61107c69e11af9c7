package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/gift-exchange/internal/config"
	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	"github.com/riskibarqy/gift-exchange/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/gift-exchange/internal/infrastructure/registry/remote"
	cacherepo "github.com/riskibarqy/gift-exchange/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/gift-exchange/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/gift-exchange/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/gift-exchange/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/gift-exchange/internal/platform/cache"
	idgen "github.com/riskibarqy/gift-exchange/internal/platform/id"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
	"github.com/riskibarqy/gift-exchange/internal/platform/resilience"
	"github.com/riskibarqy/gift-exchange/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// NewHTTPServer builds the API server and returns a cleanup func that
// releases storage handles after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	store, err := newStorage(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var cacheStore *basecache.Store
	if cfg.CacheEnabled {
		cacheStore = basecache.NewStore(cfg.CacheTTL)
	}

	ids := idgen.NewUUIDGenerator()
	var (
		registry           participant.Registry
		participantService *usecase.ParticipantService
	)
	switch cfg.RegistryMode {
	case config.RegistryRemote:
		client, err := remote.NewClient(&http.Client{Timeout: cfg.RegistryTimeout}, remote.Config{
			BaseURL:        cfg.RegistryBaseURL,
			APIKey:         cfg.RegistryAPIKey,
			Timeout:        cfg.RegistryTimeout,
			BatchSize:      cfg.RegistryBatchSize,
			MaxConcurrency: cfg.RegistryMaxConcurrency,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.RegistryCircuitEnabled,
				FailureThreshold: cfg.RegistryCircuitFailureCount,
				OpenTimeout:      cfg.RegistryCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.RegistryCircuitHalfOpenMaxReq,
			},
		}, logger.Named("registry"))
		if err != nil {
			_ = store.close()
			return nil, nil, fmt.Errorf("build participant registry client: %w", err)
		}
		registry = client
		if cacheStore != nil {
			registry = cacherepo.NewRegistry(client, cacheStore)
		}
	default:
		participants := store.participants
		if cacheStore != nil {
			participants = cacherepo.NewParticipantRepository(participants, cacheStore)
		}
		registry = participants
		participantService = usecase.NewParticipantService(participants, store.games, ids)
	}

	gameService := usecase.NewGameService(store.games, registry, ids, logger, cfg.CompletionWorkers)
	if cfg.QStashEnabled {
		publisher, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
		}, logger.Named("jobqueue"))
		if err != nil {
			_ = store.close()
			return nil, nil, fmt.Errorf("build completion scheduler: %w", err)
		}
		gameService.SetCompletionScheduler(publisher)
	}
	handler := httpapi.NewHandler(gameService, participantService, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		OrganizerKey:       cfg.OrganizerKey,
		InternalJobToken:   cfg.InternalJobToken,
	})

	logger.Info("application wired",
		"storage_driver", cfg.StorageDriver,
		"registry_mode", cfg.RegistryMode,
		"cache_enabled", cfg.CacheEnabled,
		"completion_scheduler_enabled", cfg.QStashEnabled,
		"organizer_routes_enabled", cfg.OrganizerKey != "",
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return server, store.close, nil
}

type storage struct {
	participants participant.Repository
	games        game.Repository
	close        func() error
}

func newStorage(cfg config.Config, logger *logging.Logger) (storage, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		var seed []participant.Participant
		if cfg.SeedDemoParticipants {
			seed = memory.SeedParticipants(time.Now().UTC())
		}
		return storage{
			participants: memory.NewParticipantRepository(seed),
			games:        memory.NewGameRepository(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return storage{}, err
	}
	logger.Info("postgres connected", "db_name", dbNameFromURL(cfg.DBURL), "db_host", dbHostForLog(cfg.DBURL))

	return storage{
		participants: postgres.NewParticipantRepository(db),
		games:        postgres.NewGameRepository(db),
		close:        db.Close,
	}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
