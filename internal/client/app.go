package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	handler "github.com/MKhiriev/go-key-gossip/internal/handler/http"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/server"
	"github.com/MKhiriev/go-key-gossip/internal/service"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/internal/utils"
	"github.com/MKhiriev/go-key-gossip/internal/workers"
	"github.com/MKhiriev/go-key-gossip/models"
)

// App owns every long-lived component of the daemon.
type App struct {
	storages *store.Storages
	services *service.Services
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp opens the store and wires the services on top of engine. The
// services stay idle until Run.
func NewApp(ctx context.Context, cfg *config.ClientConfig, engine crypto.Engine, build models.AppBuildInfo, log *logger.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create storages: %w", err)
	}

	homeserver, err := adapter.NewHTTPHomeserverAdapter(cfg.Adapter, log)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create homeserver adapter: %w", err)
	}

	services, err := service.NewServices(ctx, cfg, service.ServiceDeps{
		Storages: storages,
		Adapter:  homeserver,
		Engine:   engine,
		IDs:      utils.NewUUIDGenerator(),
		Clock:    clock.Real(),
		Metrics:  m,
	}, log)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create services: %w", err)
	}

	all := []workers.Worker{workers.NewSyncWorker(services.SyncJob)}
	if cfg.MetricsAddress != "" {
		h := handler.NewHandler(services.Crypto, storages, metrics.NewHandler(registry), build, log)
		srv, err := server.NewHTTPServer(cfg.MetricsAddress, h.Init(), log)
		if err != nil {
			storages.Close()
			return nil, fmt.Errorf("create status server: %w", err)
		}
		all = append(all, srv)
	}

	return &App{
		storages: storages,
		services: services,
		workers:  workers.New(log, all...),
		logger:   log.Component("app"),
	}, nil
}

// Services exposes the wired services, e.g. to install a recovery key
// before Run.
func (a *App) Services() *service.Services {
	return a.services
}

// Run starts gossiping and blocks until ctx is done. Cached sessions are
// written and the store is closed before it returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.services.Crypto.Start(ctx); err != nil {
		a.shutdown()
		return fmt.Errorf("start crypto service: %w", err)
	}
	a.logger.Info().Str("func", "App.Run").Msg("key gossiping started")

	err := a.workers.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	return errors.Join(err, a.shutdown())
}

func (a *App) shutdown() error {
	// The run context is gone at this point.
	closeErr := a.services.Crypto.Close(context.Background())
	if closeErr != nil {
		a.logger.Err(closeErr).Str("func", "App.shutdown").Msg("failed to close crypto service")
	}
	return errors.Join(closeErr, a.storages.Close())
}
