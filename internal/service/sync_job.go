// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/store"
)

type syncJob struct {
	adapter adapter.HomeserverAdapter
	crypto  CryptoService
	account store.AccountStore
	clock   clock.Clock
	cfg     config.ClientWorkers
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that long-polls /sync and hands every
// response to crypto. The job is idle until Start is called.
func NewSyncJob(homeserver adapter.HomeserverAdapter, crypto CryptoService, account store.AccountStore, clk clock.Clock, cfg config.ClientWorkers, log *logger.Logger) SyncJob {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = config.DefaultSyncTimeout
	}
	if cfg.SyncRetryDelay <= 0 {
		cfg.SyncRetryDelay = config.DefaultSyncRetryDelay
	}
	return &syncJob{
		adapter: homeserver,
		crypto:  crypto,
		account: account,
		clock:   clk,
		cfg:     cfg,
		logger:  log.Component("sync_job"),
	}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine syncing until ctx is cancelled or Stop is
// called. The since token is persisted after each processed response, so a
// restart resumes where the previous run stopped.
func (j *syncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()

		for {
			if err := j.syncOnce(jobCtx); err != nil {
				if jobCtx.Err() != nil {
					return
				}
				j.logger.Err(err).Str("func", "syncJob.Start").Dur("retry_in", j.cfg.SyncRetryDelay).Msg("sync failed")

				select {
				case <-jobCtx.Done():
					return
				case <-j.clock.After(j.cfg.SyncRetryDelay):
				}
			}
			if jobCtx.Err() != nil {
				return
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is not
// running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *syncJob) syncOnce(ctx context.Context) error {
	since, _, err := j.account.GetAccountValue(ctx, store.AccountKeySyncToken)
	if err != nil {
		return err
	}

	resp, err := j.adapter.Sync(ctx, since, j.cfg.SyncTimeout)
	if err != nil {
		return err
	}

	if err := j.crypto.OnSyncResponse(ctx, resp); err != nil {
		return err
	}
	if err := j.crypto.OnSyncCompleted(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.logger.Err(err).Str("func", "syncJob.syncOnce").Msg("sync checkpoint failed")
	}

	if resp.NextBatch == "" {
		return nil
	}
	return j.account.SetAccountValue(ctx, store.AccountKeySyncToken, resp.NextBatch)
}
