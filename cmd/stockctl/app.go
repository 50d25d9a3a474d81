// cmd/stockctl/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stock-backoffice/internal/common/auth"
	"stock-backoffice/internal/common/config"
	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/notify"
	"stock-backoffice/internal/common/observability"
	"stock-backoffice/internal/common/scheduler"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/feed"
	activityfeed "stock-backoffice/internal/services/activity-feed"
	massedit "stock-backoffice/internal/services/mass-edit"
	"stock-backoffice/internal/services/permissions"
	priceimport "stock-backoffice/internal/services/price-import"
	propertydetail "stock-backoffice/internal/services/property-detail"
	propertylisting "stock-backoffice/internal/services/property-listing"
	referencedata "stock-backoffice/internal/services/reference-data"
	stockexport "stock-backoffice/internal/services/stock-export"
	"stock-backoffice/internal/stock"
	"stock-backoffice/internal/stock/access"
	"stock-backoffice/internal/stock/bulkedit"
	"stock-backoffice/internal/stock/facets"
	"stock-backoffice/internal/stock/filters"
	"stock-backoffice/internal/stock/search"
	"stock-backoffice/internal/stock/table"
)

// App is everything a command needs, wired from one configuration.
type App struct {
	cfg   *config.Config
	zap   *zap.Logger
	log   logger.Logger
	obs   *observability.Observability
	store *storage.Store

	backend  storage.Backend
	client   *stockhttp.Client
	gate     *auth.Gate
	notifier notify.Notifier
	errors   *apperrors.Handler
	jobs     *scheduler.Jobs

	listing   *propertylisting.Service
	reference *referencedata.Service
	detail    *propertydetail.Service
	export    *stockexport.Service
	activity  *activityfeed.Service
	massEdit  *massedit.Service
	prices    *priceimport.Service
	perms     *permissions.Service
	access    *access.Access

	cache      *search.Cache
	repo       *filters.Repository
	columns    *table.Columns
	cascade    *facets.Cascade
	additional *facets.Additional
	stock      *stock.Store
	feed       *feed.Store
	bulk       *bulkedit.Store
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func tokenSource(cfg config.AuthConfig, timeout time.Duration) auth.TokenSource {
	if cfg.Token != "" {
		return auth.NewStaticSource(cfg.Token)
	}
	return auth.NewKeycloakSource(auth.KeycloakOptions{
		URL:          cfg.Keycloak.URL,
		Realm:        cfg.Keycloak.Realm,
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		Username:     cfg.Keycloak.Username,
		Password:     cfg.Keycloak.Password,
		Timeout:      timeout,
	})
}

// newApp connects storage, logs in and builds services and stores.
func newApp(ctx context.Context, opts globalOptions) (*App, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	app := &App{
		cfg:  cfg,
		zap:  zapLog,
		log:  log,
		obs:  observability.New(cfg.App.Name),
		jobs: scheduler.NewJobs(log),
	}

	err = retryWithBackoff(ctx, func() error {
		var err error
		app.backend, err = storage.Open(ctx, cfg.Storage)
		return err
	}, 5, time.Second, log, "storage connection")
	if err != nil {
		app.Close()
		return nil, err
	}
	app.store = storage.NewStore(app.backend, log)

	app.notifier, err = notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("notifier init failed: %w", err)
	}
	app.errors = apperrors.NewHandler(logger.ForComponent(log, "errors"), app.notifier)

	apiTimeout := config.GetDuration(cfg.API.Timeout)
	app.gate = auth.NewGate(tokenSource(cfg.Auth, apiTimeout), time.Duration(cfg.Auth.ExpirySkew)*time.Second, log)
	if err := app.gate.Login(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("login failed: %w", err)
	}

	validator, err := validation.NewSchemaValidator()
	if err != nil {
		app.Close()
		return nil, err
	}

	app.client = stockhttp.NewClient(stockhttp.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: apiTimeout,
		Grace:   config.GetDuration(cfg.Requests.Grace),
		Auth:    app.gate,
		Logger:  log,
	})

	app.buildServices(validator, apiTimeout)
	app.buildStores()

	log.Info("stockctl ready", map[string]interface{}{
		"api":     cfg.API.BaseURL,
		"storage": cfg.Storage.Backend,
		"notify":  cfg.Notifications.Channel,
	})
	return app, nil
}

func (a *App) buildServices(validator *validation.SchemaValidator, timeout time.Duration) {
	listingCfg := propertylisting.LoadConfig()
	listingCfg.Timeout = timeout
	a.listing = propertylisting.NewService(listingCfg, propertylisting.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Logger:    a.log,
	})

	referenceCfg := referencedata.LoadConfig()
	referenceCfg.Timeout = timeout
	a.reference = referencedata.NewService(referenceCfg, referencedata.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Logger:    a.log,
	})

	detailCfg := propertydetail.LoadConfig()
	detailCfg.Timeout = timeout
	a.detail = propertydetail.NewService(detailCfg, propertydetail.ServiceDependencies{
		Client: a.client,
		Store:  a.store,
		Logger: a.log,
	})

	exportCfg := stockexport.LoadConfig()
	exportCfg.Dir = a.cfg.Export.Dir
	a.export = stockexport.NewService(exportCfg, stockexport.ServiceDependencies{
		Client: a.client,
		Logger: a.log,
	})

	feedCfg := activityfeed.LoadConfig()
	feedCfg.Timeout = timeout
	feedCfg.PerPage = a.cfg.Feed.PerPage
	a.activity = activityfeed.NewService(feedCfg, activityfeed.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Logger:    a.log,
	})

	massCfg := massedit.LoadConfig()
	massCfg.Timeout = timeout
	a.massEdit = massedit.NewService(massCfg, massedit.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Logger:    a.log,
	})

	importCfg := priceimport.LoadConfig()
	importCfg.Timeout = config.GetDuration(a.cfg.Import.Timeout)
	importCfg.MaxSize = a.cfg.Import.MaxSize
	a.prices = priceimport.NewService(importCfg, priceimport.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Logger:    a.log,
	})

	permsCfg := permissions.LoadConfig()
	permsCfg.Timeout = timeout
	permsCfg.CacheTTL = config.GetDuration(a.cfg.Permissions.CacheTTL)
	a.perms = permissions.NewService(permsCfg, permissions.ServiceDependencies{
		Client:    a.client,
		Validator: validator,
		Storage:   a.store,
		Logger:    a.log,
	})
	a.access = access.New(a.perms, a.gate.Subject, a.log)
}

func (a *App) buildStores() {
	a.cache = search.NewCache(a.listing, search.Options{
		TTL:        config.GetDuration(a.cfg.Cache.TTL),
		MaxEntries: a.cfg.Cache.MaxEntries,
		Logger:     a.log,
	})
	a.repo = filters.NewRepository(a.store, a.log)
	a.columns = table.NewColumns(a.store, a.log)
	a.cascade = facets.NewCascade(a.reference, a.log)
	a.additional = facets.NewAdditional(a.reference, a.log)

	a.stock = stock.NewStore(stock.Dependencies{
		Listing:    a.listing,
		Search:     a.cache,
		Export:     a.export,
		Cascade:    a.cascade,
		Additional: a.additional,
		Filters:    a.repo,
		Sorting:    table.NewSorting(a.store, a.log),
		Pagination: table.NewPagination(a.store, a.log),
		Columns:    a.columns,
		Tabs:       table.NewTabs(a.store, a.log),
		Debouncer: scheduler.NewDebouncer(
			config.GetDuration(a.cfg.Search.Debounce),
			config.GetDuration(a.cfg.Search.MaxWait),
		),
		Import:    a.prices,
		Access:    a.access,
		Errors:    a.errors,
		Telemetry: a.obs,
		Logger:    a.log,
	})

	a.feed = feed.NewStore(a.activity, feed.Options{
		PerPage:      a.cfg.Feed.PerPage,
		ReadDebounce: config.GetDuration(a.cfg.Feed.ReadDebounce),
		Logger:       a.log,
	})

	a.bulk = bulkedit.NewStore(bulkedit.Dependencies{
		Editor:   a.massEdit,
		Source:   a.reference,
		Notifier: a.notifier,
		Access:   a.access,
		Errors:   a.errors,
		Logger:   a.log,
	})
}

// scheduleMaintenance registers the periodic sweeps of the request map and
// the search cache, and the unread counter poll.
func (a *App) scheduleMaintenance() error {
	maxAge := config.GetDuration(a.cfg.Requests.MaxAge)
	if err := a.jobs.Every("request-sweep", config.GetDuration(a.cfg.Requests.Sweep), func(context.Context) {
		if n := a.client.Sweep(maxAge); n > 0 {
			a.log.Debug("swept stale requests", map[string]interface{}{"count": n})
		}
	}); err != nil {
		return err
	}

	if err := a.jobs.Every("cache-sweep", config.GetDuration(a.cfg.Cache.Sweep), func(context.Context) {
		if n := a.cache.Sweep(); n > 0 {
			a.log.Debug("swept expired search results", map[string]interface{}{"count": n})
		}
	}); err != nil {
		return err
	}

	return a.feed.Poll(a.jobs, config.GetDuration(a.cfg.Feed.PollInterval))
}

// Close releases everything newApp opened. It is safe on a partly built App.
func (a *App) Close() {
	if a.client != nil {
		a.client.AbortAll()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("failed to close storage", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.obs != nil {
		a.obs.Shutdown()
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}
