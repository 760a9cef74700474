package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensectl/internal/amqp"
	"expensectl/internal/backend"
	"expensectl/internal/cache"
	"expensectl/internal/config"
	"expensectl/internal/core"
	"expensectl/internal/gateway"
	"expensectl/internal/guard"
	"expensectl/internal/log"
	"expensectl/internal/navigation"
	"expensectl/internal/query"
	"expensectl/internal/services"
	"expensectl/internal/session"
)

const ephemeralSweepInterval = time.Minute

// App is one wired client: a session store over both tiers, a router, the
// gateway and the services that use it.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Sessions *session.Store
	Router   *navigation.Router
	API      *gateway.Client
	Guard    *guard.Guard
	Expenses *services.ExpenseService
	Form     *services.Form
	Profile  *services.ProfileService
	Auth     *services.AuthService
	Engine   *query.Engine

	// Events is nil unless AMQP_URL is set and the broker was reachable.
	Events *amqp.Client

	durable   *backend.BackendResult
	ephemeral *session.EphemeralTier
	caches    *cache.Manager
}

// NewApp wires the client for cfg. now seeds the default "today" filter.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, now func() time.Time) (*App, error) {
	logger = log.OrDiscard(logger)
	if now == nil {
		now = time.Now
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	durable, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create session backend: %w", err)
	}

	tokens := cache.NewLRUCache[string](16, cfg.EphemeralSessionTTL)
	caches := cache.NewManager(logger)
	caches.Register(tokens)
	ephemeral := session.NewEphemeralTierWithCache(tokens)

	sessions := session.NewStore(durable.Tier, ephemeral, logger)
	router := navigation.NewRouter(navigation.Landing, logger)

	api, err := gateway.New(gateway.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		UserAgent: "expensectl",
	}, sessions, router, logger)
	if err != nil {
		_ = durable.Close()
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Sessions:  sessions,
		Router:    router,
		API:       api,
		Guard:     guard.New(sessions, router, logger),
		Profile:   services.NewProfileService(api, logger),
		Auth:      services.NewAuthService(api, sessions, router, logger),
		durable:   durable,
		ephemeral: ephemeral,
		caches:    caches,
	}

	// A nil *amqp.Client must not become a non-nil interface.
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		events, err := amqp.NewClient(amqp.Config{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
			Prefetch: cfg.AMQPPrefetch,
		}, logger)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, mutation events disabled", log.FieldError, err)
		} else {
			app.Events = events
			publisher = events
		}
	}

	app.Expenses = services.NewExpenseService(api, publisher, logger)
	app.Form = app.Expenses.NewForm()
	app.Engine = query.New(app.Expenses, core.DefaultFilter(now()), logger)
	return app, nil
}

// StartSweeper expires ephemeral tokens in the background. Only long-lived
// processes (shell, watch) need it.
func (a *App) StartSweeper() {
	a.caches.StartCleanup(ephemeralSweepInterval)
}

// Close ends the ephemeral tier and releases the broker and database.
func (a *App) Close() error {
	a.caches.Stop()
	a.ephemeral.End()
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	errs = append(errs, a.durable.Close())
	return errors.Join(errs...)
}
