// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStructuredConfig() *StructuredConfig {
	cfg := defaults()
	cfg.Homeserver.URL = "https://matrix.example.org"
	cfg.Homeserver.AccessToken = "tok"
	cfg.Homeserver.UserID = "@alice:example.org"
	cfg.Homeserver.DeviceID = "ALICEDEVICE"
	cfg.Storage.DB.DSN = "crypto.db"
	return cfg
}

func TestNewClientConfig_MapsFields(t *testing.T) {
	cfg := validStructuredConfig()
	cfg.Crypto.DisableKeyGossiping = true

	clientCfg := NewClientConfig(cfg)

	assert.Equal(t, "https://matrix.example.org", clientCfg.Adapter.BaseURL)
	assert.Equal(t, "tok", clientCfg.Adapter.AccessToken)
	assert.Equal(t, "@alice:example.org", clientCfg.Account.UserID)
	assert.Equal(t, "ALICEDEVICE", clientCfg.Account.DeviceID)
	assert.Equal(t, "crypto.db", clientCfg.Storage.DB.DSN)
	assert.False(t, clientCfg.Crypto.GossipingEnabled)
	assert.Equal(t, DefaultRequestRetryCount, clientCfg.Crypto.RequestRetryCount)
	assert.Equal(t, DefaultSyncTimeout, clientCfg.Workers.SyncTimeout)
}

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*StructuredConfig) {}},
		{
			name:    "missing dsn",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "missing homeserver",
			mutate:  func(cfg *StructuredConfig) { cfg.Homeserver.URL = "" },
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name:    "malformed user id",
			mutate:  func(cfg *StructuredConfig) { cfg.Homeserver.UserID = "alice" },
			wantErr: ErrInvalidAccountConfigs,
		},
		{
			name:    "missing device id",
			mutate:  func(cfg *StructuredConfig) { cfg.Homeserver.DeviceID = "" },
			wantErr: ErrInvalidAccountConfigs,
		},
		{
			name:    "zero retry count",
			mutate:  func(cfg *StructuredConfig) { cfg.Crypto.RequestRetryCount = 0 },
			wantErr: ErrInvalidCryptoConfigs,
		},
		{
			name:    "zero sync timeout",
			mutate:  func(cfg *StructuredConfig) { cfg.Workers.SyncTimeout = 0 },
			wantErr: ErrInvalidWorkerConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validStructuredConfig()
			tt.mutate(cfg)

			err := NewClientConfig(cfg).validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetClientConfig_FromFlagsAndDefaults(t *testing.T) {
	flags, err := ParseFlags([]string{
		"-s", "https://matrix.example.org",
		"-u", "@alice:example.org",
		"--device-id", "ALICEDEVICE",
		"-d", "crypto.db",
	})
	require.NoError(t, err)

	cfg, err := GetClientConfig(flags)

	require.NoError(t, err)
	assert.Equal(t, "https://matrix.example.org", cfg.Adapter.BaseURL)
	assert.True(t, cfg.Crypto.GossipingEnabled)
	assert.Equal(t, DefaultMaxBackupCallsPerSync, cfg.Crypto.MaxBackupCallsPerSync)
}
