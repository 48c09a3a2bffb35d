// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

type inboundSessionCache struct {
	store      store.InboundSessionStore
	clock      clock.Clock
	flushDelay time.Duration
	metrics    *metrics.Metrics
	logger     *logger.Logger

	// writeMu orders store writes. Never acquired while mu is held.
	writeMu sync.Mutex

	mu       sync.Mutex
	sessions *lru.Cache[models.InboundSessionKey, *models.InboundGroupSession]
	dirty    map[models.InboundSessionKey]*models.InboundGroupSession
	// evicted collects dirty entries pushed out by the last cache insert.
	evicted []*models.InboundGroupSession
	// latest is the last value Put per key until it is written.
	latest map[models.InboundSessionKey]*models.InboundGroupSession
	// evicting counts evicted entries per key not persisted yet.
	evicting map[models.InboundSessionKey]int
	deadline time.Time
	timer    clock.Timer
	closed   bool
}

// NewInboundSessionCache returns a write-back LRU cache over sessions.
// Updates are written in one batch once no Put happened for
// cfg.SessionFlushDelay; an evicted entry that was not written yet is
// persisted before Put returns.
func NewInboundSessionCache(
	sessions store.InboundSessionStore,
	cfg config.ClientCrypto,
	clk clock.Clock,
	m *metrics.Metrics,
	log *logger.Logger,
) (InboundSessionCache, error) {
	capacity := cfg.SessionCacheCapacity
	if capacity <= 0 {
		capacity = config.DefaultSessionCacheCapacity
	}
	flushDelay := cfg.SessionFlushDelay
	if flushDelay <= 0 {
		flushDelay = config.DefaultSessionFlushDelay
	}

	c := &inboundSessionCache{
		store:      sessions,
		clock:      clk,
		flushDelay: flushDelay,
		metrics:    m,
		logger:     log.Component("inbound_session_cache"),
		dirty:      make(map[models.InboundSessionKey]*models.InboundGroupSession),
		latest:     make(map[models.InboundSessionKey]*models.InboundGroupSession),
		evicting:   make(map[models.InboundSessionKey]int),
	}

	cache, err := lru.NewWithEvict(capacity, c.onEvicted)
	if err != nil {
		return nil, err
	}
	c.sessions = cache

	return c, nil
}

func (c *inboundSessionCache) Get(ctx context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error) {
	key := models.InboundSessionKey{SessionID: sessionID, SenderKey: senderKey}

	c.mu.Lock()
	if session, ok := c.sessions.Get(key); ok {
		c.mu.Unlock()
		return session, nil
	}
	c.mu.Unlock()

	session, err := c.store.GetInboundGroupSession(ctx, sessionID, senderKey)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// A Put may have raced the load, the cached value wins.
	if cached, ok := c.sessions.Get(key); ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.sessions.Add(key, session)
	evicted := c.takeEvicted()
	c.mu.Unlock()

	c.persistEvicted(ctx, evicted)
	return session, nil
}

func (c *inboundSessionCache) Put(ctx context.Context, session *models.InboundGroupSession) error {
	key := session.Key()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCacheClosed
	}

	session.UpdatedAt = c.clock.Now()
	c.sessions.Add(key, session)
	c.dirty[key] = session
	c.latest[key] = session
	c.scheduleFlush()
	evicted := c.takeEvicted()
	c.mu.Unlock()

	return c.persistEvicted(ctx, evicted)
}

// Flush writes every dirty session now.
func (c *inboundSessionCache) Flush(ctx context.Context) error {
	return c.flush(ctx, metrics.FlushExplicit)
}

// Close flushes the dirty sessions and rejects further writes.
func (c *inboundSessionCache) Close(ctx context.Context) error {
	err := c.flush(ctx, metrics.FlushExplicit)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return err
}

// onEvicted runs inside sessions.Add, with mu held by the caller.
func (c *inboundSessionCache) onEvicted(key models.InboundSessionKey, session *models.InboundGroupSession) {
	if _, ok := c.dirty[key]; !ok {
		return
	}
	delete(c.dirty, key)
	c.evicting[key]++
	c.evicted = append(c.evicted, session)
}

func (c *inboundSessionCache) takeEvicted() []*models.InboundGroupSession {
	evicted := c.evicted
	c.evicted = nil
	return evicted
}

// persistEvicted writes the evicted entries that no later Put replaced.
// The replacing value is dirty or already written under writeMu.
func (c *inboundSessionCache) persistEvicted(ctx context.Context, evicted []*models.InboundGroupSession) error {
	if len(evicted) == 0 {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	current := evicted[:0:0]
	for _, session := range evicted {
		key := session.Key()
		if c.evicting[key]--; c.evicting[key] <= 0 {
			delete(c.evicting, key)
		}
		if latest, ok := c.latest[key]; ok && latest != session {
			continue
		}
		current = append(current, session)
	}
	c.mu.Unlock()

	if len(current) == 0 {
		return nil
	}
	if err := c.store.StoreInboundGroupSessions(ctx, current...); err != nil {
		c.logger.Err(err).
			Str("func", "inboundSessionCache.persistEvicted").
			Int("sessions", len(current)).
			Msg("failed to persist evicted sessions")
		return err
	}
	c.forgetWritten(current)
	c.metrics.SessionsFlushed(metrics.FlushEviction, len(current))
	return nil
}

// forgetWritten drops latest for keys whose last value is now stored.
func (c *inboundSessionCache) forgetWritten(written []*models.InboundGroupSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, session := range written {
		key := session.Key()
		if c.latest[key] != session {
			continue
		}
		if _, dirty := c.dirty[key]; dirty {
			continue
		}
		if c.evicting[key] > 0 {
			continue
		}
		delete(c.latest, key)
	}
}

// scheduleFlush pushes the flush deadline back. One timer serves every
// Put: when it fires before the deadline it re-arms itself for the rest.
func (c *inboundSessionCache) scheduleFlush() {
	c.deadline = c.clock.Now().Add(c.flushDelay)
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.flushDelay, c.onFlushTimer)
	}
}

func (c *inboundSessionCache) onFlushTimer() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if remaining := c.deadline.Sub(c.clock.Now()); remaining > 0 {
		c.timer = c.clock.AfterFunc(remaining, c.onFlushTimer)
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	if err := c.flush(context.Background(), metrics.FlushDebounce); err != nil {
		c.logger.Err(err).Str("func", "inboundSessionCache.onFlushTimer").Msg("debounced flush failed")
	}
}

func (c *inboundSessionCache) flush(ctx context.Context, reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if len(c.dirty) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := make([]*models.InboundGroupSession, 0, len(c.dirty))
	for _, session := range c.dirty {
		batch = append(batch, session)
	}
	clear(c.dirty)
	c.mu.Unlock()

	if err := c.store.StoreInboundGroupSessions(ctx, batch...); err != nil {
		c.mu.Lock()
		for _, session := range batch {
			key := session.Key()
			if _, ok := c.dirty[key]; ok || c.latest[key] != session {
				continue
			}
			c.dirty[key] = session
		}
		c.mu.Unlock()
		return err
	}

	c.forgetWritten(batch)
	c.metrics.SessionsFlushed(reason, len(batch))
	return nil
}
