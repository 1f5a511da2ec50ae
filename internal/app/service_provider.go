package app

import (
	flipAPI "cashflip/internal/api/flip"
	simulationAPI "cashflip/internal/api/simulation"
	"cashflip/internal/config"
	"cashflip/internal/config/env"
	"cashflip/internal/locker"
	"cashflip/internal/logger"
	"cashflip/internal/metrics"
	"cashflip/internal/middleware"
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"cashflip/internal/repository/catalog_repo"
	"cashflip/internal/repository/config_repo"
	"cashflip/internal/repository/flip_repo"
	"cashflip/internal/repository/player_stats_repo"
	"cashflip/internal/repository/rtp_stats_repo"
	"cashflip/internal/repository/session_repo"
	"cashflip/internal/repository/simulation_repo"
	"cashflip/internal/repository/wallet_repo"
	"cashflip/internal/service"
	"cashflip/internal/service/flip"
	"cashflip/internal/service/simulation"
	"cashflip/pkg/resp"
	"context"
	"net/http"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ServiceProvider struct {
	//TXManager
	txManager trm.Manager

	// Database
	pgConfig config.PGConfig
	dbClient *pgxpool.Pool

	// Ambient
	logCfg   config.LogConfig
	log      *zap.Logger
	jwtCfg   config.JWTConfig
	redisCfg config.RedisConfig
	locker   locker.Locker

	// Flip bits
	engineCfg       config.EngineConfig
	sessionRepo     repository.SessionRepository
	flipRepo        repository.FlipRepository
	walletRepo      repository.WalletRepository
	catalogRepo     repository.CatalogRepository
	configRepo      repository.ConfigRepository
	playerStatsRepo repository.PlayerStatsRepository
	rtpStatsRepo    repository.RTPStatsRepository
	flipServ        service.FlipService
	flipHand        *flipAPI.Handler

	// Simulation bits
	simulationRepo repository.SimulationRepository
	simulationServ service.SimulationService
	simulationHand *simulationAPI.Handler

	// Router and HTTP config
	httpCfg config.HTTPConfig
	router  chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		dbc, err := pgxpool.New(ctx, sp.PgConfig().DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}
		err = dbc.Ping(ctx)
		if err != nil {
			panic("failed to ping db: " + err.Error())
		}
		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		m, err := manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}
		sp.txManager = m
	}
	return sp.txManager
}

func (sp *ServiceProvider) LogCfg() config.LogConfig {
	if sp.logCfg == nil {
		cfg, err := env.NewLogConfig()
		if err != nil {
			panic("failed to get log config: " + err.Error())
		}
		sp.logCfg = cfg
	}
	return sp.logCfg
}

func (sp *ServiceProvider) Logger() *zap.Logger {
	if sp.log == nil {
		l, err := logger.New(sp.LogCfg())
		if err != nil {
			panic("failed to create logger: " + err.Error())
		}
		sp.log = l
	}
	return sp.log
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) RedisCfg() config.RedisConfig {
	if sp.redisCfg == nil {
		cfg, err := env.NewRedisConfig()
		if err != nil {
			panic("failed to get redis config: " + err.Error())
		}
		sp.redisCfg = cfg
	}
	return sp.redisCfg
}

// Locker - redis, если он настроен, иначе блокировки в памяти (годится для одного инстанса)
func (sp *ServiceProvider) Locker(ctx context.Context) locker.Locker {
	if sp.locker == nil {
		cfg := sp.RedisCfg()
		if !cfg.Enabled() {
			sp.Logger().Warn("redis is not configured, using in-process session locks")
			sp.locker = locker.NewMemoryLocker()
			return sp.locker
		}

		l := locker.NewRedisLocker(&redis.Options{
			Addr:     cfg.Address(),
			Password: cfg.Password(),
			DB:       cfg.DB(),
		})
		if err := l.Client.Ping(ctx).Err(); err != nil {
			panic("failed to ping redis: " + err.Error())
		}
		sp.locker = l
	}
	return sp.locker
}

func (sp *ServiceProvider) EngineCfg() config.EngineConfig {
	if sp.engineCfg == nil {
		cfg, err := env.NewEngineConfigFromYAML("config.yaml")
		if err != nil {
			panic("failed to get engine config: " + err.Error())
		}
		sp.engineCfg = cfg
	}
	return sp.engineCfg
}

func (sp *ServiceProvider) SessionRepository(ctx context.Context) repository.SessionRepository {
	if sp.sessionRepo == nil {
		sp.sessionRepo = session_repo.NewSessionRepository(sp.DBClient(ctx), sp.EngineCfg().DBLockTimeout())
	}
	return sp.sessionRepo
}

func (sp *ServiceProvider) FlipRepository(ctx context.Context) repository.FlipRepository {
	if sp.flipRepo == nil {
		sp.flipRepo = flip_repo.NewFlipRepository(sp.DBClient(ctx))
	}
	return sp.flipRepo
}

func (sp *ServiceProvider) WalletRepository(ctx context.Context) repository.WalletRepository {
	if sp.walletRepo == nil {
		sp.walletRepo = wallet_repo.NewWalletRepository(sp.DBClient(ctx), sp.EngineCfg().DBLockTimeout())
	}
	return sp.walletRepo
}

func (sp *ServiceProvider) CatalogRepository(ctx context.Context) repository.CatalogRepository {
	if sp.catalogRepo == nil {
		sp.catalogRepo = catalog_repo.NewCatalogRepository(sp.DBClient(ctx))
	}
	return sp.catalogRepo
}

func (sp *ServiceProvider) ConfigRepository(ctx context.Context) repository.ConfigRepository {
	if sp.configRepo == nil {
		sp.configRepo = config_repo.NewConfigRepository(sp.DBClient(ctx))
	}
	return sp.configRepo
}

func (sp *ServiceProvider) PlayerStatsRepository(ctx context.Context) repository.PlayerStatsRepository {
	if sp.playerStatsRepo == nil {
		sp.playerStatsRepo = player_stats_repo.NewPlayerStatsRepository(sp.DBClient(ctx))
	}
	return sp.playerStatsRepo
}

func (sp *ServiceProvider) RTPStatsRepository() repository.RTPStatsRepository {
	if sp.rtpStatsRepo == nil {
		sp.rtpStatsRepo = rtp_stats_repo.NewRTPStatsRepository(sp.Logger(), sp.EngineCfg().RTPWindowSize())
	}
	return sp.rtpStatsRepo
}

func (sp *ServiceProvider) SimulationRepository(ctx context.Context) repository.SimulationRepository {
	if sp.simulationRepo == nil {
		sp.simulationRepo = simulation_repo.NewSimulationRepository(sp.DBClient(ctx))
	}
	return sp.simulationRepo
}

func (sp *ServiceProvider) FlipService(ctx context.Context) service.FlipService {
	if sp.flipServ == nil {
		sp.flipServ = flip.NewFlipService(flip.Deps{
			SessionRepo:     sp.SessionRepository(ctx),
			FlipRepo:        sp.FlipRepository(ctx),
			WalletRepo:      sp.WalletRepository(ctx),
			CatalogRepo:     sp.CatalogRepository(ctx),
			ConfigRepo:      sp.ConfigRepository(ctx),
			SimulationRepo:  sp.SimulationRepository(ctx),
			PlayerStatsRepo: sp.PlayerStatsRepository(ctx),
			RTPStatsRepo:    sp.RTPStatsRepository(),
			Locker:          sp.Locker(ctx),
			TxManager:       sp.TXManager(ctx),
			Cfg:             sp.EngineCfg(),
			Log:             sp.Logger().Named("flip"),
		})
	}
	return sp.flipServ
}

func (sp *ServiceProvider) FlipHandler(ctx context.Context) *flipAPI.Handler {
	if sp.flipHand == nil {
		sp.flipHand = flipAPI.NewHandler(flipAPI.HandlerDeps{
			Serv: sp.FlipService(ctx),
			Log:  sp.Logger().Named("http"),
		})
	}
	return sp.flipHand
}

func (sp *ServiceProvider) SimulationService(ctx context.Context) service.SimulationService {
	if sp.simulationServ == nil {
		sp.simulationServ = simulation.NewSimulationService(sp.SimulationRepository(ctx), sp.Logger().Named("simulation"))
	}
	return sp.simulationServ
}

func (sp *ServiceProvider) SimulationHandler(ctx context.Context) *simulationAPI.Handler {
	if sp.simulationHand == nil {
		sp.simulationHand = simulationAPI.NewHandler(simulationAPI.HandlerDeps{
			Serv: sp.SimulationService(ctx),
			Log:  sp.Logger().Named("http"),
		})
	}
	return sp.simulationHand
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}

	return sp.httpCfg
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		metrics.Init()

		r := chi.NewRouter()
		r.Use(chimw.RequestID)
		r.Use(chimw.Recoverer)

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			resp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Handle("/metrics", promhttp.Handler())

		auth := middleware.Auth(sp.JWTCfg().AccessTokenSecretKey())

		// Flip endpoints
		flipHandler := sp.FlipHandler(ctx)
		r.Route("/flip", func(rr chi.Router) {
			// Проверка честности публичная
			rr.Get("/{sessionID}/verify", flipHandler.Verify)

			rr.Group(func(pr chi.Router) {
				pr.Use(auth)
				pr.Post("/start", flipHandler.Start)
				pr.Get("/session", flipHandler.Current)
				pr.Post("/{sessionID}/flip", flipHandler.Flip)
				pr.Post("/{sessionID}/cashout", flipHandler.Cashout)
				pr.Post("/{sessionID}/pause", flipHandler.Pause)
				pr.Post("/{sessionID}/resume", flipHandler.Resume)
			})
		})

		// Admin endpoints
		simulationHandler := sp.SimulationHandler(ctx)
		r.Route("/admin", func(rr chi.Router) {
			rr.Use(auth, middleware.RequireRole(model.RoleAdmin))
			rr.Get("/simulation", simulationHandler.Get)
			rr.Put("/simulation", simulationHandler.Replace)
		})

		sp.router = r
	}

	return sp.router
}

// Close освобождает внешние подключения
func (sp *ServiceProvider) Close() {
	if l, ok := sp.locker.(*locker.RedisLocker); ok {
		if err := l.Close(); err != nil {
			sp.Logger().Warn("failed to close redis client", zap.Error(err))
		}
	}
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
	if sp.log != nil {
		_ = sp.log.Sync()
	}
}
