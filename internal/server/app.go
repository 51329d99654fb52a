// Package server initializes and runs the vaultkeeper engine: it wires the
// persistence driver, the cache and lock coordinator, the domain services and
// the presence tracker, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/cache"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/players"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/presence"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/storage"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/vaults"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/warehouses"
)

// shutdownTimeout bounds the teardown flush.
const shutdownTimeout = 30 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	manager    storage.RepositoryManager
	store      *cache.Store
	tracker    *presence.Tracker
	players    *players.Service
	warehouses *warehouses.Service
	vaults     *vaults.Service
	dispatcher *warehouses.Dispatcher
}

// NewApp builds the full engine from configuration. The persistence driver
// is selected by cfg.Driver; migrations run during construction.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	limits := vaults.Limits{
		RowWidth:    cfg.VaultRowWidth,
		MinRows:     cfg.VaultRows,
		NameMax:     cfg.VaultNameMax,
		TrustMax:    cfg.VaultTrustMax,
		DefaultName: cfg.VaultDefaultName,
		DefaultIcon: items.ItemType(cfg.VaultDefaultIcon),
	}

	var manager storage.RepositoryManager
	var err error
	switch cfg.Driver {
	case config.DriverPostgres:
		manager, err = storage.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN, limits)
	case config.DriverSQLite:
		manager, err = storage.NewSQLiteRepositoryManager(ctx, cfg.DatabaseDSN, limits)
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	tracker := presence.NewTracker(logger)

	store := cache.New(manager, logger,
		cache.WithSweepInterval(cfg.SweepInterval),
		cache.WithSaveInterval(cfg.SaveInterval),
		cache.WithPresence(tracker.Online))

	playerSvc := players.NewService(store, manager.Players(), players.NoGrants{},
		cfg.BaseVaults, cfg.BaseStock, logger)

	blacklist := make(map[items.ItemType]struct{}, len(cfg.Blacklist))
	for _, tag := range cfg.Blacklist {
		blacklist[items.ItemType(tag)] = struct{}{}
	}
	storable := func(typ items.ItemType) bool {
		if !typ.Valid() {
			return false
		}
		_, banned := blacklist[typ]
		return !banned
	}

	warehouseSvc := warehouses.NewService(store, manager.Warehouses(), warehouses.NewHooks(),
		playerSvc.StockCapacity, storable, logger)

	dispatcher := warehouses.NewDispatcher(warehouseSvc,
		func(ctx context.Context, owner uuid.UUID) (players.Mode, error) {
			p, err := playerSvc.Get(ctx, owner)
			if err != nil {
				return players.ModeNone, err
			}
			return p.Mode, nil
		})

	vaultSvc := vaults.NewService(store, manager.Vaults(), vaults.NewHooks(), limits, logger,
		vaults.WithTTL(cfg.VaultTTL),
		vaults.WithAllowance(playerSvc.VaultAllowance))

	tracker.Subscribe(playerSvc)
	tracker.Subscribe(&warehousePresence{svc: warehouseSvc})

	return &App{
		config:     cfg,
		logger:     logger,
		manager:    manager,
		store:      store,
		tracker:    tracker,
		players:    playerSvc,
		warehouses: warehouseSvc,
		vaults:     vaultSvc,
		dispatcher: dispatcher,
	}, nil
}

// warehousePresence warms and flushes the stock ledger with the player's
// session.
type warehousePresence struct {
	svc *warehouses.Service
}

func (h *warehousePresence) HandleConnect(ctx context.Context, id uuid.UUID) error {
	_, err := h.svc.Load(ctx, id)
	return err
}

func (h *warehousePresence) HandleDisconnect(ctx context.Context, id uuid.UUID) error {
	return h.svc.Evict(ctx, id)
}

// Players exposes the settings service to the embedding host.
func (app *App) Players() *players.Service { return app.players }

// Warehouses exposes the stock ledger service.
func (app *App) Warehouses() *warehouses.Service { return app.warehouses }

// Vaults exposes the vault service.
func (app *App) Vaults() *vaults.Service { return app.vaults }

// Dispatcher exposes the warehouse mode dispatcher.
func (app *App) Dispatcher() *warehouses.Dispatcher { return app.dispatcher }

// Presence exposes the online tracker; the host calls Connect/Disconnect as
// players join and leave.
func (app *App) Presence() *presence.Tracker { return app.tracker }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the background sweep and blocks until the context is cancelled
// or a termination signal arrives, then flushes everything and releases the
// pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.Driver)

	app.initSignalHandler(cancelFunc)
	app.store.Start(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.logger.Info(shutdownCtx, "Shutting down...")
	if err := app.store.Close(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown flush failed", "error", err)
		return
	}
	app.logger.Info(shutdownCtx, "Shutdown complete")
}
