// Package app assembles one Midnight instance: the session, the gate, the
// local data store and the adapters behind them.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/midnightlabs/midnight/internal/api"
	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/core/service"
	"github.com/midnightlabs/midnight/internal/infrastructure/assistant"
	"github.com/midnightlabs/midnight/internal/infrastructure/db/mongo"
	"github.com/midnightlabs/midnight/internal/infrastructure/db/redis"
	"github.com/midnightlabs/midnight/internal/infrastructure/http/handlers"
	"github.com/midnightlabs/midnight/internal/infrastructure/identity"
	"github.com/midnightlabs/midnight/internal/infrastructure/local"
	"github.com/midnightlabs/midnight/internal/infrastructure/memory"
	"github.com/midnightlabs/midnight/internal/infrastructure/queue"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
	"github.com/midnightlabs/midnight/internal/pkg/config"
	"github.com/midnightlabs/midnight/pkg/logger"
)

// Options replace adapters that would otherwise be built from Config.
type Options struct {
	Clock     clock.Clock
	Identity  ports.IdentityProvider
	Assistant ports.Assistant
	Profiles  ports.ProfileStore
	Records   ports.RemoteStore
	Registry  *prometheus.Registry
}

// App owns every state container of one instance.
type App struct {
	cfg   *config.Config
	log   zerolog.Logger
	clock clock.Clock

	Demo      *service.DemoFlag
	Identity  ports.IdentityProvider
	Local     *local.Store
	Sessions  *service.SessionManager
	Gate      *service.Gate
	Data      *service.DataStore
	Assistant *service.AssistantService
	Tokens    *service.TokenIssuer
	Cooldown  ports.Cooldown
	Remote    ports.RemoteStore

	mirror      *queue.Dispatcher
	mongoClient *mongodriver.Client
	redisClient *goredis.Client
	checks      map[string]handlers.Check
	registry    *prometheus.Registry
	stopWatch   context.CancelFunc
}

// New connects the configured backends and wires the services. Nothing runs
// until Init.
func New(ctx context.Context, cfg *config.Config, opts Options, log zerolog.Logger) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	a := &App{
		cfg:      cfg,
		log:      log,
		clock:    opts.Clock,
		Demo:     &service.DemoFlag{},
		Local:    local.Open(filepath.Join(cfg.DataDir, "store")),
		checks:   map[string]handlers.Check{},
		registry: opts.Registry,
	}

	profiles, records := opts.Profiles, opts.Records
	if profiles == nil || records == nil {
		var err error
		if profiles, records, err = a.remote(ctx); err != nil {
			return nil, err
		}
	}
	stash, err := a.ephemeral(ctx)
	if err != nil {
		a.disconnect(ctx)
		return nil, err
	}

	a.Identity = opts.Identity
	if a.Identity == nil {
		a.Identity = identity.NewEmulator(identity.Options{
			Stash:       stash,
			Clock:       a.clock,
			BlockPopups: cfg.BlockPopups,
			OAuth: map[domain.AuthProvider]domain.Identity{
				domain.ProviderGoogle: {Email: "google.user@example.com", DisplayName: "Google User"},
				domain.ProviderApple:  {Email: "apple.user@example.com", DisplayName: "Apple User"},
			},
		}, logger.Component(log, "identity"))
	}

	a.Remote = service.NewRemoteGuard(records, a.Demo, a.clock, logger.Component(log, "remote"))
	a.mirror = queue.NewDispatcher(cfg.MirrorWorkers, a.Remote, a.Demo.Enabled, log)

	a.Sessions = service.NewSessionManager(
		a.Identity,
		service.NewProfileGuard(profiles, a.Demo, logger.Component(log, "profiles")),
		a.Local,
		a.Demo,
		service.SessionOptions{MobileRuntime: cfg.MobileRuntime, Clock: a.clock},
		logger.Component(log, "session"),
	)
	a.Gate = service.NewGate(logger.Component(log, "gate"))
	a.Gate.Follow(a.Sessions.Current)
	a.Data = service.NewDataStore(a.Local, a.Sessions.CurrentUserID, service.DataStoreOptions{
		Clock:  a.clock,
		Mirror: a.mirror,
	}, logger.Component(log, "data"))

	ai := opts.Assistant
	if ai == nil {
		ai, err = assistant.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			a.disconnect(ctx)
			return nil, err
		}
	}
	a.Assistant = service.NewAssistantService(a.Data, ai, logger.Component(log, "assistant"))
	a.Tokens = service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, a.clock)

	a.checks["session"] = handlers.ReadyCheck(a.Ready, "session is still loading")
	return a, nil
}

// remote picks MongoDB when configured and process memory otherwise.
func (a *App) remote(ctx context.Context) (ports.ProfileStore, ports.RemoteStore, error) {
	if a.cfg.Mongo.URI == "" {
		a.log.Info().Msg("no MONGO_URI, remote data stays in memory")
		return memory.NewProfiles(), memory.NewRecords(), nil
	}
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
	if err != nil {
		return nil, nil, err
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	a.mongoClient = client
	a.checks["mongodb"] = handlers.MongoCheck(db)
	return mongo.NewProfileRepository(db), mongo.NewRecordRepository(db), nil
}

// ephemeral picks Redis for the resend cooldown and redirect stash when
// configured and process memory otherwise.
func (a *App) ephemeral(ctx context.Context) (identity.RedirectStash, error) {
	if a.cfg.Redis.Addr == "" {
		a.Cooldown = memory.NewCooldown(a.clock)
		return memory.NewRedirectStash(a.clock), nil
	}
	client, err := redis.Connect(ctx, redis.Config{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB})
	if err != nil {
		return nil, err
	}
	a.redisClient = client
	a.checks["redis"] = handlers.RedisCheck(client)
	a.Cooldown = redis.NewCooldown(client)
	return redis.NewRedirectStash(client), nil
}

// Init restores local state, settles the session and starts the background
// workers. The gate leaves Loading before Init returns.
func (a *App) Init(ctx context.Context) error {
	if err := a.Data.Init(); err != nil {
		return err
	}
	a.mirror.Start(context.WithoutCancel(ctx))

	sessions, unsubscribe := a.Sessions.Subscribe()
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopWatch = func() {
		cancel()
		unsubscribe()
	}
	go a.Gate.Watch(watchCtx, sessions)

	if err := a.Sessions.Init(ctx); err != nil {
		return fmt.Errorf("session init: %w", err)
	}
	a.Gate.Apply(a.Sessions.Current())
	a.log.Info().
		Str("gate", string(a.Gate.State())).
		Bool("demo", a.Demo.Enabled()).
		Msg("midnight initialised")
	return nil
}

// Ready reports whether the session has finished loading.
func (a *App) Ready() bool {
	return !a.Sessions.Current().IsLoading
}

// Router returns the HTTP surface of this instance.
func (a *App) Router() *echo.Echo {
	return api.NewRouter(api.Deps{
		Sessions:     a.Sessions,
		CurrentUser:  a.Sessions.CurrentUserID,
		Gate:         a.Gate,
		Data:         a.Data,
		Assistant:    a.Assistant,
		Tokens:       a.Tokens,
		Cooldown:     a.Cooldown,
		ResendWindow: a.cfg.ResendWindow,
		Clock:        a.clock,
		Checks:       a.checks,
		Log:          logger.Component(a.log, "http"),
		Registry:     a.registry,
	})
}

// Teardown stops the workers, flushing pending mirror writes, and closes
// the backends.
func (a *App) Teardown(ctx context.Context) {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	a.Sessions.Close()
	a.mirror.Stop()
	a.disconnect(ctx)
}

func (a *App) disconnect(ctx context.Context) {
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect failed")
		}
		a.mongoClient = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close failed")
		}
		a.redisClient = nil
	}
}
