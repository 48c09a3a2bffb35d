// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// FlagValues holds the values bound to a flag set by [RegisterFlags]. It is
// read after the flag set has been parsed.
type FlagValues struct {
	homeserverURL  string
	accessToken    string
	userID         string
	deviceID       string
	requestTimeout time.Duration
	databaseDSN    string
	jsonConfigPath string

	disableGossiping      bool
	limitToMyDevices      bool
	discardUntrusted      bool
	backupRetryWindow     time.Duration
	requestRetryCount     int
	maxBackupCallsPerSync int
	sessionCacheCapacity  int
	sessionFlushDelay     time.Duration

	syncTimeout    time.Duration
	syncRetryDelay time.Duration
	metricsAddress string
	logFilePath    string
}

// RegisterFlags binds every configuration flag to fs.
//
// Flags:
//
//	-s, --homeserver            homeserver base URL
//	    --access-token          access token of this device
//	-u, --user-id               full user id
//	    --device-id             device id
//	    --request-timeout       request timeout (e.g. "30s")
//	-d, --db                    SQLite DSN of the crypto store
//	-c, --config                JSON config file path
//	    --disable-gossiping     do not send key requests to other devices
//	    --limit-to-my-devices   only ask our own devices for keys
//	    --discard-untrusted     drop forwarded keys from untrusted devices
//	    --backup-retry-window   delay between backup lookups of a session
//	    --request-retry-count   attempts per to-device send
//	    --max-backup-calls      backup-only retries per sync
//	    --session-cache-size    inbound session cache capacity
//	    --session-flush-delay   inbound session write debounce
//	    --sync-timeout          /sync long-poll timeout
//	    --sync-retry-delay      pause after a failed sync
//	    --metrics-address       Prometheus listen address
//	    --log-file              log file path
func RegisterFlags(fs *pflag.FlagSet) *FlagValues {
	v := &FlagValues{}

	fs.StringVarP(&v.homeserverURL, "homeserver", "s", "", "Homeserver base URL")
	fs.StringVar(&v.accessToken, "access-token", "", "Access token")
	fs.StringVarP(&v.userID, "user-id", "u", "", "Full user id (@user:server)")
	fs.StringVar(&v.deviceID, "device-id", "", "Device id")
	fs.DurationVar(&v.requestTimeout, "request-timeout", 0, "Request timeout (e.g. 30s, 1m)")
	fs.StringVarP(&v.databaseDSN, "db", "d", "", "Crypto store SQLite DSN")
	fs.StringVarP(&v.jsonConfigPath, "config", "c", "", "JSON config file path")

	fs.BoolVar(&v.disableGossiping, "disable-gossiping", false, "Do not request keys from other devices")
	fs.BoolVar(&v.limitToMyDevices, "limit-to-my-devices", false, "Only request keys from our own devices")
	fs.BoolVar(&v.discardUntrusted, "discard-untrusted", false, "Discard forwarded keys from untrusted devices")
	fs.DurationVar(&v.backupRetryWindow, "backup-retry-window", 0, "Minimum delay between backup lookups of a session")
	fs.IntVar(&v.requestRetryCount, "request-retry-count", 0, "Send attempts per to-device message")
	fs.IntVar(&v.maxBackupCallsPerSync, "max-backup-calls", 0, "Backup-only retries per sync")
	fs.IntVar(&v.sessionCacheCapacity, "session-cache-size", 0, "Inbound session cache capacity")
	fs.DurationVar(&v.sessionFlushDelay, "session-flush-delay", 0, "Inbound session write debounce")

	fs.DurationVar(&v.syncTimeout, "sync-timeout", 0, "Sync long-poll timeout")
	fs.DurationVar(&v.syncRetryDelay, "sync-retry-delay", 0, "Pause after a failed sync")
	fs.StringVar(&v.metricsAddress, "metrics-address", "", "Prometheus listen address (host:port)")
	fs.StringVar(&v.logFilePath, "log-file", "", "Log file path")

	return v
}

// ParseFlags parses args with a fresh flag set. Unknown flags are ignored
// so the same arguments can be shared with a command parser.
func ParseFlags(args []string) (*FlagValues, error) {
	fs := pflag.NewFlagSet("keygossip", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	v := RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return v, nil
}

func (v *FlagValues) toConfig() *StructuredConfig {
	return &StructuredConfig{
		Homeserver: Homeserver{
			URL:            v.homeserverURL,
			AccessToken:    v.accessToken,
			UserID:         v.userID,
			DeviceID:       v.deviceID,
			RequestTimeout: v.requestTimeout,
		},
		Storage: Storage{
			DB: DB{DSN: v.databaseDSN},
		},
		Crypto: Crypto{
			DisableKeyGossiping:                      v.disableGossiping,
			LimitRoomKeyRequestsToMyDevices:          v.limitToMyDevices,
			DiscardForwardedKeysFromUntrustedDevices: v.discardUntrusted,
			BackupRetryWindow:                        v.backupRetryWindow,
			RequestRetryCount:                        v.requestRetryCount,
			MaxBackupCallsPerSync:                    v.maxBackupCallsPerSync,
			SessionCacheCapacity:                     v.sessionCacheCapacity,
			SessionFlushDelay:                        v.sessionFlushDelay,
		},
		Workers: Workers{
			SyncTimeout:    v.syncTimeout,
			SyncRetryDelay: v.syncRetryDelay,
		},
		Metrics:      Metrics{Address: v.metricsAddress},
		Log:          Log{FilePath: v.logFilePath},
		JSONFilePath: v.jsonConfigPath,
	}
}
