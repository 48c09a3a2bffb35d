// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks the merged [StructuredConfig]. Only values that can never
// be valid are rejected here; missing required values are checked by
// [ClientConfig.validate].
func (cfg *StructuredConfig) validate() error {
	if cfg.Crypto.RequestRetryCount < 0 || cfg.Crypto.MaxBackupCallsPerSync < 0 ||
		cfg.Crypto.SessionCacheCapacity < 0 {
		return ErrInvalidCryptoConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if !strings.HasPrefix(cfg.Account.UserID, "@") || !strings.Contains(cfg.Account.UserID, ":") ||
		cfg.Account.DeviceID == "" {
		return ErrInvalidAccountConfigs
	}

	if cfg.Crypto.RequestRetryCount < 1 || cfg.Crypto.SessionCacheCapacity < 1 ||
		cfg.Crypto.BackupRetryWindow <= 0 || cfg.Crypto.SessionFlushDelay <= 0 {
		return ErrInvalidCryptoConfigs
	}

	if cfg.Workers.SyncTimeout <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
