package app

import (
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/config"
	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
	"github.com/riskibarqy/domatch/internal/domain/user"
	"github.com/riskibarqy/domatch/internal/infrastructure/account/supabase"
	"github.com/riskibarqy/domatch/internal/infrastructure/messaging/evolution"
	cacherepo "github.com/riskibarqy/domatch/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/domatch/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/domatch/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/domatch/internal/interfaces/httpapi"
	"github.com/riskibarqy/domatch/internal/observability"
	"github.com/riskibarqy/domatch/internal/platform/cache"
	idgen "github.com/riskibarqy/domatch/internal/platform/id"
	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/platform/resilience"
	"github.com/riskibarqy/domatch/internal/usecase"
)

// App is the assembled service: the HTTP server plus the pieces the process
// drives outside of request handling.
type App struct {
	Server       *http.Server
	Integrations *usecase.IntegrationService
	Metrics      *observability.Metrics

	closers []io.Closer
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	var errs error
	for _, c := range a.closers {
		errs = errors.CombineErrors(errs, c.Close())
	}
	return errs
}

type repositories struct {
	players      player.Repository
	profiles     profile.Repository
	communities  community.Repository
	competitions competition.Repository
	games        game.Repository
	tournaments  tournament.Repository
	tasks        integration.Repository
}

// Options overrides external collaborators; zero values use the configured ones.
type Options struct {
	Verifier user.TokenVerifier
	Gateway  usecase.MessagingGateway
}

func New(cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("http server addr cannot be empty")
	}

	application := &App{Metrics: observability.NewMetrics()}

	repos, err := openRepositories(cfg, logger, application)
	if err != nil {
		return nil, err
	}
	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.communities = cacherepo.NewCommunityRepository(repos.communities, store)
		repos.competitions = cacherepo.NewCompetitionRepository(repos.competitions, store)
		repos.players = cacherepo.NewPlayerRepository(repos.players, store)
	}

	verifier := opts.Verifier
	if verifier == nil {
		client := supabase.NewClient(supabase.ClientConfig{
			BaseURL:        cfg.SupabaseURL,
			AnonKey:        cfg.SupabaseAnonKey,
			Timeout:        cfg.SupabaseTimeout,
			CacheTTL:       cfg.SupabaseCacheTTL,
			CircuitBreaker: cfg.SupabaseCircuit,
			Logger:         logger.Named("supabase"),
		})
		application.Metrics.TrackBreaker(client.Breaker())
		verifier = client
	}

	gateway := opts.Gateway
	if gateway == nil && cfg.EvolutionEnabled {
		client := evolution.NewClient(evolution.ClientConfig{
			BaseURL:  cfg.EvolutionBaseURL,
			APIKey:   cfg.EvolutionAPIKey,
			Instance: cfg.EvolutionInstance,
			Timeout:  cfg.EvolutionTimeout,
			Retry: resilience.RetryPolicy{
				Attempts: cfg.EvolutionRetries + 1,
				Backoff:  cfg.EvolutionRetryBackoff,
			},
			CircuitBreaker: cfg.EvolutionCircuit,
			Logger:         logger.Named("evolution"),
		})
		application.Metrics.TrackBreaker(client.Breaker())
		gateway = client
	}

	ids := idgen.NewUUIDGenerator()
	metrics := application.Metrics

	playerSvc := usecase.NewPlayerService(repos.players, ids)
	communitySvc := usecase.NewCommunityService(repos.communities, playerSvc, repos.tasks, gateway, ids, metrics, logger)
	competitionSvc := usecase.NewCompetitionService(repos.competitions, repos.communities, repos.games, ids)
	gameSvc := usecase.NewGameService(repos.games, repos.competitions, repos.communities, repos.players, ids, cfg.GameTiePolicy, metrics)
	tournamentSvc := usecase.NewTournamentService(repos.tournaments, repos.players, ids, metrics)
	sessionSvc := usecase.NewSessionService(verifier, repos.profiles)
	application.Integrations = usecase.NewIntegrationService(repos.tasks, communitySvc, usecase.IntegrationConfig{
		Workers:   cfg.IntegrationRetryWorkers,
		BatchSize: cfg.IntegrationRetryBatchSize,
		Lease:     cfg.IntegrationRetryLease,
		Backoff: integration.Backoff{
			Base:        cfg.IntegrationRetryBaseBackoff,
			Max:         cfg.IntegrationRetryMaxBackoff,
			MaxAttempts: cfg.IntegrationRetryMaxAttempts,
		},
	}, metrics, logger)

	handler := httpapi.NewHandler(httpapi.Services{
		Sessions:     sessionSvc,
		Players:      playerSvc,
		Communities:  communitySvc,
		Competitions: competitionSvc,
		Games:        gameSvc,
		Tournaments:  tournamentSvc,
		Integrations: application.Integrations,
	}, logger)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler:            handler,
		Sessions:           sessionSvc,
		Metrics:            metrics,
		Logger:             logger,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	application.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return application, nil
}

func openRepositories(cfg config.Config, logger *logging.Logger, application *App) (repositories, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openDB(cfg)
		if err != nil {
			return repositories{}, err
		}
		application.closers = append(application.closers, db)
		logger.Info("store ready", "driver", cfg.StoreDriver, "db_name", dbNameFromURL(cfg.DBURL))
		return repositories{
			players:      postgres.NewPlayerRepository(db),
			profiles:     postgres.NewProfileRepository(db),
			communities:  postgres.NewCommunityRepository(db),
			competitions: postgres.NewCompetitionRepository(db),
			games:        postgres.NewGameRepository(db),
			tournaments:  postgres.NewTournamentRepository(db),
			tasks:        postgres.NewIntegrationRepository(db),
		}, nil
	case config.StoreMemory, "":
		store := memory.NewStore()
		logger.Info("store ready", "driver", config.StoreMemory)
		return repositories{
			players:      memory.NewPlayerRepository(store),
			profiles:     memory.NewProfileRepository(store),
			communities:  memory.NewCommunityRepository(store),
			competitions: memory.NewCompetitionRepository(store),
			games:        memory.NewGameRepository(store),
			tournaments:  memory.NewTournamentRepository(store),
			tasks:        memory.NewIntegrationRepository(store),
		}, nil
	default:
		return repositories{}, errors.Newf("unsupported store driver %q", cfg.StoreDriver)
	}
}
