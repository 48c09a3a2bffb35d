// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/mock"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

const testFlushDelay = 2 * time.Second

func newTestCache(t *testing.T, sessions store.InboundSessionStore, capacity int) (InboundSessionCache, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFake(testEpoch)
	cache, err := NewInboundSessionCache(sessions, config.ClientCrypto{
		SessionCacheCapacity: capacity,
		SessionFlushDelay:    testFlushDelay,
	}, clk, nil, logger.Nop())
	require.NoError(t, err)
	return cache, clk
}

func inboundSession(sessionID string, firstKnownIndex int) *models.InboundGroupSession {
	return &models.InboundGroupSession{
		SessionID:       sessionID,
		SenderKey:       "sender-curve",
		RoomID:          "R1",
		FirstKnownIndex: firstKnownIndex,
		Pickle:          []byte("pickle-" + sessionID),
	}
}

// ── Get ─────────────────────────────────────────────────────────────────────

func TestInboundSessionCache_GetLoadsOnce(t *testing.T) {
	sessions := newMemInboundStore()
	require.NoError(t, sessions.StoreInboundGroupSessions(t.Context(), inboundSession("S1", 0)))
	cache, _ := newTestCache(t, sessions, 4)

	for range 3 {
		session, err := cache.Get(t.Context(), "S1", "sender-curve")
		require.NoError(t, err)
		assert.Equal(t, "S1", session.SessionID)
	}
	assert.Equal(t, 1, sessions.loadCount())
}

func TestInboundSessionCache_GetUnknownSession(t *testing.T) {
	cache, _ := newTestCache(t, newMemInboundStore(), 4)

	_, err := cache.Get(t.Context(), "S404", "sender-curve")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestInboundSessionCache_PutIsVisibleBeforeFlush(t *testing.T) {
	sessions := newMemInboundStore()
	cache, clk := newTestCache(t, sessions, 4)

	require.NoError(t, cache.Put(t.Context(), inboundSession("S1", 3)))

	session, err := cache.Get(t.Context(), "S1", "sender-curve")
	require.NoError(t, err)
	assert.Equal(t, 3, session.FirstKnownIndex)
	assert.True(t, session.UpdatedAt.Equal(clk.Now()))
	assert.Zero(t, sessions.loadCount())
	assert.Empty(t, sessions.writes())
}

// ── write-back ──────────────────────────────────────────────────────────────

func TestInboundSessionCache_DebouncedFlushWritesOneBatch(t *testing.T) {
	sessions := newMemInboundStore()
	cache, clk := newTestCache(t, sessions, 4)
	ctx := t.Context()

	require.NoError(t, cache.Put(ctx, inboundSession("S1", 0)))
	clk.Advance(time.Second)
	require.NoError(t, cache.Put(ctx, inboundSession("S2", 0)))

	// the first timer fires, but the second Put pushed the deadline back
	clk.Advance(time.Second)
	assert.Empty(t, sessions.writes())

	clk.Advance(time.Second)
	assert.Equal(t, [][]string{{"S1", "S2"}}, sessions.writes())
	assert.Zero(t, clk.Pending())
}

func TestInboundSessionCache_RepeatedPutsWriteLatestValue(t *testing.T) {
	sessions := newMemInboundStore()
	cache, clk := newTestCache(t, sessions, 4)
	ctx := t.Context()

	require.NoError(t, cache.Put(ctx, inboundSession("S1", 5)))
	require.NoError(t, cache.Put(ctx, inboundSession("S1", 2)))
	clk.Advance(testFlushDelay)

	assert.Equal(t, [][]string{{"S1"}}, sessions.writes())
	stored, err := sessions.GetInboundGroupSession(ctx, "S1", "sender-curve")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.FirstKnownIndex)
}

func TestInboundSessionCache_EvictedDirtySessionIsPersisted(t *testing.T) {
	sessions := newMemInboundStore()
	cache, _ := newTestCache(t, sessions, 2)
	ctx := t.Context()

	require.NoError(t, cache.Put(ctx, inboundSession("S1", 0)))
	require.NoError(t, cache.Put(ctx, inboundSession("S2", 0)))
	assert.Empty(t, sessions.writes())

	require.NoError(t, cache.Put(ctx, inboundSession("S3", 0)))
	assert.Equal(t, [][]string{{"S1"}}, sessions.writes())

	// read back through the store
	session, err := cache.Get(ctx, "S1", "sender-curve")
	require.NoError(t, err)
	assert.Equal(t, "S1", session.SessionID)
	assert.Equal(t, 1, sessions.loadCount())
}

func TestInboundSessionCache_CleanEvictionIsNotWritten(t *testing.T) {
	sessions := newMemInboundStore()
	require.NoError(t, sessions.StoreInboundGroupSessions(t.Context(), inboundSession("S1", 0), inboundSession("S2", 0)))
	cache, _ := newTestCache(t, sessions, 1)
	ctx := t.Context()

	_, err := cache.Get(ctx, "S1", "sender-curve")
	require.NoError(t, err)
	_, err = cache.Get(ctx, "S2", "sender-curve")
	require.NoError(t, err)

	assert.Len(t, sessions.writes(), 1, "only the seeding write")
}

func TestInboundSessionCache_FlushAndClose(t *testing.T) {
	sessions := newMemInboundStore()
	cache, clk := newTestCache(t, sessions, 4)
	ctx := t.Context()

	require.NoError(t, cache.Put(ctx, inboundSession("S1", 0)))
	require.NoError(t, cache.Flush(ctx))
	assert.Equal(t, [][]string{{"S1"}}, sessions.writes())

	// nothing dirty, nothing written
	require.NoError(t, cache.Flush(ctx))
	assert.Len(t, sessions.writes(), 1)

	require.NoError(t, cache.Put(ctx, inboundSession("S2", 0)))
	require.NoError(t, cache.Close(ctx))
	assert.Equal(t, [][]string{{"S1"}, {"S2"}}, sessions.writes())

	assert.ErrorIs(t, cache.Put(ctx, inboundSession("S3", 0)), ErrCacheClosed)
	clk.Advance(time.Minute)
	assert.Len(t, sessions.writes(), 2)
}

func TestInboundSessionCache_FailedFlushKeepsSessionsDirty(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mock.NewMockInboundSessionStore(ctrl)
	cache, _ := newTestCache(t, sessions, 4)
	ctx := t.Context()

	gomock.InOrder(
		sessions.EXPECT().StoreInboundGroupSessions(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		sessions.EXPECT().StoreInboundGroupSessions(gomock.Any(), gomock.Any()).Return(nil),
	)

	require.NoError(t, cache.Put(ctx, inboundSession("S1", 0)))
	require.Error(t, cache.Flush(ctx))
	require.NoError(t, cache.Flush(ctx))
	// the second flush emptied the dirty set
	require.NoError(t, cache.Flush(ctx))
}

// ── write ordering ──────────────────────────────────────────────────────────

// stallingInboundStore holds its first write until release is closed and
// fails it with firstErr.
type stallingInboundStore struct {
	*memInboundStore
	firstErr error
	entered  chan struct{}
	release  chan struct{}
	once     sync.Once
}

func newStallingInboundStore(firstErr error) *stallingInboundStore {
	return &stallingInboundStore{
		memInboundStore: newMemInboundStore(),
		firstErr:        firstErr,
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (s *stallingInboundStore) StoreInboundGroupSessions(ctx context.Context, sessions ...*models.InboundGroupSession) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
		if s.firstErr != nil {
			return s.firstErr
		}
	}
	return s.memInboundStore.StoreInboundGroupSessions(ctx, sessions...)
}

// evictDuringFlush puts S@10, starts a flush that stalls in the store,
// replaces S with S@3 and evicts it by putting T. It returns once the
// flush and the evicting Put are done.
func evictDuringFlush(t *testing.T, sessions *stallingInboundStore) (cache InboundSessionCache, flushErr, putErr error) {
	t.Helper()
	cache, _ = newTestCache(t, sessions, 1)
	ctx := t.Context()

	require.NoError(t, cache.Put(ctx, inboundSession("S", 10)))

	flushDone := make(chan error, 1)
	go func() { flushDone <- cache.Flush(ctx) }()
	<-sessions.entered

	require.NoError(t, cache.Put(ctx, inboundSession("S", 3)))

	putDone := make(chan error, 1)
	go func() { putDone <- cache.Put(ctx, inboundSession("T", 0)) }()

	// the eviction write queues behind the stalled flush
	select {
	case err := <-putDone:
		t.Fatalf("evicting Put returned during the flush write: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(sessions.release)
	return cache, <-flushDone, <-putDone
}

func TestInboundSessionCache_EvictionAfterStalledFlushKeepsNewerValue(t *testing.T) {
	sessions := newStallingInboundStore(nil)

	_, flushErr, putErr := evictDuringFlush(t, sessions)
	require.NoError(t, flushErr)
	require.NoError(t, putErr)

	assert.Equal(t, [][]string{{"S"}, {"S"}}, sessions.writes())
	stored, err := sessions.GetInboundGroupSession(t.Context(), "S", "sender-curve")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FirstKnownIndex)
}

func TestInboundSessionCache_FailedFlushDoesNotRestoreReplacedValue(t *testing.T) {
	sessions := newStallingInboundStore(errors.New("disk full"))

	cache, flushErr, putErr := evictDuringFlush(t, sessions)
	require.Error(t, flushErr)
	require.NoError(t, putErr)

	// S@10 устарел и не вернулся в dirty, следующий flush пишет только T
	require.NoError(t, cache.Flush(t.Context()))
	assert.Equal(t, [][]string{{"S"}, {"T"}}, sessions.writes())

	stored, err := sessions.GetInboundGroupSession(t.Context(), "S", "sender-curve")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FirstKnownIndex)
}
