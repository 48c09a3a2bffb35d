// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for go-key-gossip.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, an optional JSON file and
// built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Homeserver holds the address and credentials of the homeserver the
	// device is logged in to.
	Homeserver Homeserver `envPrefix:"HOMESERVER_"`

	// Storage holds configuration for the local crypto store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Crypto holds the key gossiping policy knobs.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// Workers holds configuration for the background sync loop.
	Workers Workers `envPrefix:"WORKERS_"`

	// Metrics holds the Prometheus exporter settings.
	Metrics Metrics `envPrefix:"METRICS_"`

	// Log holds logging output settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Homeserver holds connection settings for the client-server API.
type Homeserver struct {
	// URL is the base URL of the homeserver (e.g. "https://matrix.example.org").
	// Env: HOMESERVER_URL
	URL string `env:"URL"`

	// AccessToken is the access token of the logged in device.
	// Env: HOMESERVER_ACCESS_TOKEN
	AccessToken string `env:"ACCESS_TOKEN"`

	// UserID is the full user id of the account ("@alice:example.org").
	// Env: HOMESERVER_USER_ID
	UserID string `env:"USER_ID"`

	// DeviceID is the id of this device.
	// Env: HOMESERVER_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`

	// RequestTimeout bounds a single outbound request (e.g. "30s").
	// Env: HOMESERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration for the local crypto store.
type Storage struct {
	// DB holds the SQLite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the SQLite crypto store.
type DB struct {
	// DSN is the SQLite file path or DSN.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Crypto holds the policy knobs of the key gossiping core.
type Crypto struct {
	// DisableKeyGossiping turns off peer-to-peer key requests. Missing keys
	// are then only looked up in the key backup.
	// Env: CRYPTO_DISABLE_KEY_GOSSIPING
	DisableKeyGossiping bool `env:"DISABLE_KEY_GOSSIPING"`

	// LimitRoomKeyRequestsToMyDevices restricts key requests to our own
	// devices instead of also asking the sender's device.
	// Env: CRYPTO_LIMIT_REQUESTS_TO_MY_DEVICES
	LimitRoomKeyRequestsToMyDevices bool `env:"LIMIT_REQUESTS_TO_MY_DEVICES"`

	// DiscardForwardedKeysFromUntrustedDevices ignores forwarded keys that do
	// not come from one of our own verified devices.
	// Env: CRYPTO_DISCARD_UNTRUSTED_FORWARDS
	DiscardForwardedKeysFromUntrustedDevices bool `env:"DISCARD_UNTRUSTED_FORWARDS"`

	// BackupRetryWindow is the minimum delay between two backup lookups for
	// the same session against the same backup version.
	// Env: CRYPTO_BACKUP_RETRY_WINDOW
	BackupRetryWindow time.Duration `env:"BACKUP_RETRY_WINDOW"`

	// RequestRetryCount is the number of attempts made to send a to-device
	// key request or cancellation.
	// Env: CRYPTO_REQUEST_RETRY_COUNT
	RequestRetryCount int `env:"REQUEST_RETRY_COUNT"`

	// MaxBackupCallsPerSync caps the backup-only retries done per sync.
	// Env: CRYPTO_MAX_BACKUP_CALLS_PER_SYNC
	MaxBackupCallsPerSync int `env:"MAX_BACKUP_CALLS_PER_SYNC"`

	// SessionCacheCapacity is the size of the inbound session LRU.
	// Env: CRYPTO_SESSION_CACHE_CAPACITY
	SessionCacheCapacity int `env:"SESSION_CACHE_CAPACITY"`

	// SessionFlushDelay is the debounce window of inbound session writes.
	// Env: CRYPTO_SESSION_FLUSH_DELAY
	SessionFlushDelay time.Duration `env:"SESSION_FLUSH_DELAY"`
}

// Workers holds configuration for the background sync loop.
type Workers struct {
	// SyncTimeout is the long-poll timeout sent to /sync.
	// Env: WORKERS_SYNC_TIMEOUT
	SyncTimeout time.Duration `env:"SYNC_TIMEOUT"`

	// SyncRetryDelay is the pause after a failed sync.
	// Env: WORKERS_SYNC_RETRY_DELAY
	SyncRetryDelay time.Duration `env:"SYNC_RETRY_DELAY"`
}

// Metrics holds the Prometheus exporter settings.
type Metrics struct {
	// Address is the listen address of /metrics and the local status API.
	// Empty disables both.
	// Env: METRICS_ADDRESS
	Address string `env:"ADDRESS"`
}

// Log holds logging output settings.
type Log struct {
	// FilePath redirects logs to a file. Empty means stdout.
	// Env: LOG_FILE_PATH
	FilePath string `env:"FILE_PATH"`
}

// Default policy values, applied to every field left empty by all sources.
const (
	DefaultRequestTimeout        = 30 * time.Second
	DefaultBackupRetryWindow     = time.Hour
	DefaultRequestRetryCount     = 3
	DefaultMaxBackupCallsPerSync = 60
	DefaultSessionCacheCapacity  = 30
	DefaultSessionFlushDelay     = 2 * time.Second
	DefaultSyncTimeout           = 30 * time.Second
	DefaultSyncRetryDelay        = 5 * time.Second
)

func defaults() *StructuredConfig {
	return &StructuredConfig{
		Homeserver: Homeserver{RequestTimeout: DefaultRequestTimeout},
		Crypto: Crypto{
			BackupRetryWindow:     DefaultBackupRetryWindow,
			RequestRetryCount:     DefaultRequestRetryCount,
			MaxBackupCallsPerSync: DefaultMaxBackupCallsPerSync,
			SessionCacheCapacity:  DefaultSessionCacheCapacity,
			SessionFlushDelay:     DefaultSessionFlushDelay,
		},
		Workers: Workers{
			SyncTimeout:    DefaultSyncTimeout,
			SyncRetryDelay: DefaultSyncRetryDelay,
		},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources. mergo only fills empty fields, so sources merged
// first take precedence:
//  1. Environment variables
//  2. Command-line flags (nil flags means os.Args are parsed)
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig(flags *FlagValues) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(flags).
		withJSON().
		withDefaults().
		build()
}
