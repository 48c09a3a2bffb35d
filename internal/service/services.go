package service

import (
	"context"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/store"
)

type Services struct {
	Tracker       DeviceListTracker
	Outgoing      OutgoingKeyRequestManager
	Incoming      IncomingKeyRequestManager
	Backup        KeyBackupService
	BackupLimiter BackupFallbackLimiter
	Sessions      InboundSessionCache
	Crypto        CryptoService
	SyncJob       SyncJob
}

// ServiceDeps are the external collaborators of the service layer.
type ServiceDeps struct {
	Storages *store.Storages
	Adapter  adapter.HomeserverAdapter
	Engine   crypto.Engine
	IDs      IDGenerator
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

// NewServices wires every gossiping component. Both key request managers
// run until ctx is cancelled or Crypto.Close is called.
func NewServices(ctx context.Context, cfg *config.ClientConfig, deps ServiceDeps, logger *logger.Logger) (*Services, error) {
	storages := deps.Storages

	sessions, err := NewInboundSessionCache(storages.InboundSessions, cfg.Crypto, deps.Clock, deps.Metrics, logger)
	if err != nil {
		return nil, err
	}

	tracker := NewDeviceListTracker(cfg.Account, storages.Devices, storages.Rooms, deps.Adapter, deps.Engine, deps.Clock, deps.Metrics, logger)
	backup := NewKeyBackupService(deps.Adapter, deps.Engine, sessions, logger)
	limiter := NewBackupFallbackLimiter(backup, cfg.Crypto, deps.Clock, deps.Metrics, logger)

	outgoing := NewOutgoingKeyRequestManager(ctx, cfg.Account, cfg.Crypto, OutgoingKeyRequestManagerDeps{
		Requests: storages.OutgoingKeys,
		Account:  storages.Account,
		Adapter:  deps.Adapter,
		Limiter:  limiter,
		Cache:    sessions,
		IDs:      deps.IDs,
		Clock:    deps.Clock,
		Metrics:  deps.Metrics,
	}, logger)

	incoming := NewIncomingKeyRequestManager(ctx, cfg.Account, IncomingKeyRequestManagerDeps{
		Devices:        storages.Devices,
		Rooms:          storages.Rooms,
		SharedSessions: storages.SharedSessions,
		Audit:          storages.Audit,
		Adapter:        deps.Adapter,
		Engine:         deps.Engine,
		Cache:          sessions,
		IDs:            deps.IDs,
		Clock:          deps.Clock,
		Metrics:        deps.Metrics,
	}, logger)

	cryptoService := NewCryptoService(cfg.Account, cfg.Crypto, CryptoServiceDeps{
		Tracker:        tracker,
		Outgoing:       outgoing,
		Incoming:       incoming,
		Cache:          sessions,
		Devices:        storages.Devices,
		Rooms:          storages.Rooms,
		SharedSessions: storages.SharedSessions,
		Account:        storages.Account,
		Engine:         deps.Engine,
		Metrics:        deps.Metrics,
	}, logger)

	return &Services{
		Tracker:       tracker,
		Outgoing:      outgoing,
		Incoming:      incoming,
		Backup:        backup,
		BackupLimiter: limiter,
		Sessions:      sessions,
		Crypto:        cryptoService,
		SyncJob:       NewSyncJob(deps.Adapter, cryptoService, storages.Account, deps.Clock, cfg.Workers, logger),
	}, nil
}
