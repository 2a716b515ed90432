package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/popguard/internal/guard/common/clock"
	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/config"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/gateways/cdp"
	"github.com/haukened/popguard/internal/guard/gateways/messaging"
	"github.com/haukened/popguard/internal/guard/repos/domainset/bloom"
	"github.com/haukened/popguard/internal/guard/repos/kvstore"
	"github.com/haukened/popguard/internal/guard/repos/ruleset"
	"github.com/haukened/popguard/internal/guard/repos/verdictcache"
	"github.com/haukened/popguard/internal/guard/services/background"
	"github.com/haukened/popguard/internal/guard/services/classifier"
	"github.com/haukened/popguard/internal/guard/services/gate"
	"github.com/haukened/popguard/internal/guard/services/page"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "popguardd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the guard daemon
type Application struct {
	config     *config.AppConfig
	logger     log.Logger
	store      *kvstore.Store
	gate       *gate.Gate
	bus        *messaging.Bus
	background *background.Service
	browser    *cdp.Manager
}

func main() {
	Execute()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// buildClassifier loads the configured ruleset and builds the classifier.
func buildClassifier(cfg *config.AppConfig, logger log.Logger) (*classifier.Classifier, error) {
	rs, err := ruleset.Load(ruleset.Options{
		Directory:    cfg.RulesetDir,
		TrustedLists: cfg.TrustedLists,
		BlockedLists: cfg.BlockedLists,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load ruleset: %w", err)
	}

	cache, err := verdictcache.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}
	log.Info(map[string]any{
		"type": "LRU",
		"size": cfg.CacheSize,
	}, "Verdict cache configured")

	return classifier.New(classifier.Options{
		Ruleset:       rs,
		FilterFactory: bloom.NewFactory(),
		FPRate:        cfg.BloomFPRate,
		Cache:         cache,
		Logger:        logger,
	}), nil
}

// openState opens the settings store and a background service over it.
func openState(cfg *config.AppConfig, logger log.Logger, tabs background.Tabs) (*kvstore.Store, *background.Service, error) {
	store, err := kvstore.Open(cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	svc := background.New(background.Options{
		Store:  store,
		Tabs:   tabs,
		Clock:  clock.RealClock{},
		Logger: logger,
	})
	return store, svc, nil
}

// ensureInstalled writes the defaults the first time a store is used.
func ensureInstalled(ctx context.Context, store *kvstore.Store, svc *background.Service) error {
	var enabled bool
	found, err := store.Get(ctx, domain.KeyIsEnabled, &enabled)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	log.Info(map[string]any{"store": store.Path()}, "Initialising settings store")
	return svc.Install(ctx)
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	cls, err := buildClassifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	g := gate.New(logger)
	bus := messaging.NewBus(messaging.DefaultBufferSize, logger)
	factory := page.NewFactory(page.Options{
		Classifier:        cls,
		Gate:              g,
		Senders:           bus,
		Clock:             clock.RealClock{},
		InteractionWindow: cfg.InteractionWindow,
		ScanInlineScripts: cfg.ScanInlineScripts,
		ScanStringTimers:  cfg.ScanStringTimers,
		Logger:            logger,
	})
	browser := cdp.NewManager(cdp.Options{
		Remote:   cfg.Browser.Remote,
		Headless: cfg.Browser.Headless,
		Stealth:  cfg.Browser.Stealth,
		Logger:   logger,
	}, factory)

	store, svc, err := openState(cfg, logger, browser)
	if err != nil {
		return nil, err
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		store:      store,
		gate:       g,
		bus:        bus,
		background: svc,
		browser:    browser,
	}, nil
}

// Start brings up the background service and message bus. It does not
// touch the browser.
func (app *Application) Start(ctx context.Context) (stop func(), err error) {
	if err := ensureInstalled(ctx, app.store, app.background); err != nil {
		return nil, fmt.Errorf("failed to initialise store: %w", err)
	}
	if err := app.background.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start background service: %w", err)
	}
	if err := app.bus.Start(ctx, app.background); err != nil {
		return nil, fmt.Errorf("failed to start message bus: %w", err)
	}
	unsync := app.gate.Sync(ctx, app.store)
	return func() {
		unsync()
		app.bus.Stop()
	}, nil
}

// Run guards pages until ctx is cancelled
func (app *Application) Run(ctx context.Context, pages []string) error {
	stop, err := app.Start(ctx)
	if err != nil {
		return errors.Join(err, app.store.Close())
	}

	if err := app.browser.Start(ctx); err != nil {
		stop()
		return errors.Join(fmt.Errorf("failed to start browser: %w", err), app.store.Close())
	}
	for _, u := range pages {
		if err := app.browser.Open(ctx, u); err != nil {
			log.Warn(map[string]any{"url": u, "error": err}, "Failed to guard page")
		}
	}

	log.Info(map[string]any{
		"pages":   len(pages),
		"enabled": app.gate.Enabled(),
	}, "Popup guard started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")
	stop()
	return app.Close()
}

// Close releases the browser and the store.
func (app *Application) Close() error {
	done := make(chan error, 1)
	go func() {
		done <- errors.Join(app.browser.Close(), app.store.Close())
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during shutdown")
			return err
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
