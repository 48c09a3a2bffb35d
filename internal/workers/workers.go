// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/service"
)

// Workers runs a set of workers together.
type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// New returns a Workers aggregate over workers.
func New(log *logger.Logger, workers ...Worker) *Workers {
	return &Workers{workers: workers, logger: log.Component("workers")}
}

// Run starts every worker and blocks until all of them returned. The first
// failure cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, worker := range w.workers {
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil {
				w.logger.Err(err).Str("func", "Workers.Run").Int("worker", i).Msg("worker failed")
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SyncWorker drives a [service.SyncJob] for the lifetime of ctx.
type SyncWorker struct {
	job service.SyncJob
}

func NewSyncWorker(job service.SyncJob) *SyncWorker {
	return &SyncWorker{job: job}
}

func (w *SyncWorker) Run(ctx context.Context) error {
	w.job.Start(ctx)
	<-ctx.Done()
	w.job.Stop()
	return nil
}
