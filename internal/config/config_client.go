package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the homeserver adapter.
type ClientAdapter struct {
	// BaseURL is the homeserver base URL.
	BaseURL string
	// AccessToken authenticates every request.
	AccessToken string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// ClientAccount identifies the logged in device.
type ClientAccount struct {
	UserID   string
	DeviceID string
}

// ClientDB contains local database connection settings.
type ClientDB struct {
	// DSN is the SQLite connection string of the crypto store.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientCrypto is the gossiping policy consumed by the services.
type ClientCrypto struct {
	GossipingEnabled                         bool
	LimitRoomKeyRequestsToMyDevices          bool
	DiscardForwardedKeysFromUntrustedDevices bool
	BackupRetryWindow                        time.Duration
	RequestRetryCount                        int
	MaxBackupCallsPerSync                    int
	SessionCacheCapacity                     int
	SessionFlushDelay                        time.Duration
}

// ClientWorkers contains background sync settings.
type ClientWorkers struct {
	SyncTimeout    time.Duration
	SyncRetryDelay time.Duration
}

// ClientConfig is the runtime configuration assembled from [StructuredConfig].
type ClientConfig struct {
	Adapter        ClientAdapter
	Account        ClientAccount
	Storage        ClientStorage
	Crypto         ClientCrypto
	Workers        ClientWorkers
	MetricsAddress string
	LogFilePath    string
}

// GetClientConfig builds and validates the runtime config view from the
// merged structured configuration.
func GetClientConfig(flags *FlagValues) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)

	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps a [StructuredConfig] to a [ClientConfig] without
// validating it.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		Adapter: ClientAdapter{
			BaseURL:        cfg.Homeserver.URL,
			AccessToken:    cfg.Homeserver.AccessToken,
			RequestTimeout: cfg.Homeserver.RequestTimeout,
		},
		Account: ClientAccount{
			UserID:   cfg.Homeserver.UserID,
			DeviceID: cfg.Homeserver.DeviceID,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Crypto: ClientCrypto{
			GossipingEnabled:                         !cfg.Crypto.DisableKeyGossiping,
			LimitRoomKeyRequestsToMyDevices:          cfg.Crypto.LimitRoomKeyRequestsToMyDevices,
			DiscardForwardedKeysFromUntrustedDevices: cfg.Crypto.DiscardForwardedKeysFromUntrustedDevices,
			BackupRetryWindow:                        cfg.Crypto.BackupRetryWindow,
			RequestRetryCount:                        cfg.Crypto.RequestRetryCount,
			MaxBackupCallsPerSync:                    cfg.Crypto.MaxBackupCallsPerSync,
			SessionCacheCapacity:                     cfg.Crypto.SessionCacheCapacity,
			SessionFlushDelay:                        cfg.Crypto.SessionFlushDelay,
		},
		Workers: ClientWorkers{
			SyncTimeout:    cfg.Workers.SyncTimeout,
			SyncRetryDelay: cfg.Workers.SyncRetryDelay,
		},
		MetricsAddress: cfg.Metrics.Address,
		LogFilePath:    cfg.Log.FilePath,
	}
}
