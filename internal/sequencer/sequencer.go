// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package sequencer runs posted tasks one at a time, in posting order, on a
// single background goroutine. Components that own mutable state post every
// mutation to their sequencer instead of guarding the state with locks.
package sequencer

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
)

// ErrClosed is returned when a task is posted after Close.
var ErrClosed = errors.New("sequencer is closed")

// Task is a unit of work. ctx is cancelled when the sequencer is closed.
type Task func(ctx context.Context)

// Sequencer is an unbounded FIFO of tasks drained by one goroutine.
type Sequencer struct {
	name   string
	logger *logger.Logger

	mu     sync.Mutex
	queue  []Task
	closed bool
	wake   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts a sequencer. It stops when ctx is cancelled or Close is called.
func New(ctx context.Context, name string, log *logger.Logger) *Sequencer {
	seqCtx, cancel := context.WithCancel(ctx)
	s := &Sequencer{
		name:   name,
		logger: log,
		wake:   make(chan struct{}, 1),
		ctx:    seqCtx,
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.loop()

	return s
}

// Post appends task to the queue. It never blocks.
func (s *Sequencer) Post(task Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.queue = append(s.queue, task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush blocks until every task posted before the call has run.
func (s *Sequencer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.Post(func(context.Context) { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Do posts task and waits for it to finish.
func (s *Sequencer) Do(ctx context.Context, task Task) error {
	done := make(chan struct{})
	err := s.Post(func(taskCtx context.Context) {
		defer close(done)
		task(taskCtx)
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Close drops queued tasks, cancels the running one and waits for the
// worker goroutine to exit. Safe to call more than once.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if dropped > 0 {
		s.logger.Debug().Str("sequencer", s.name).Int("dropped", dropped).Msg("sequencer closed with pending tasks")
	}
}

// Len returns the number of tasks waiting to run.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Sequencer) loop() {
	defer s.wg.Done()

	for {
		task, ok := s.next()
		if !ok {
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		if s.ctx.Err() != nil {
			return
		}
		s.run(task)
	}
}

func (s *Sequencer) next() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}
	task := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return task, true
}

func (s *Sequencer) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("sequencer", s.name).Interface("panic", r).Msg("task panicked")
		}
	}()

	task(s.ctx)
}
