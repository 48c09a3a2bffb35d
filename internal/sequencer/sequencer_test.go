// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sequencer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSequencer(t *testing.T) *Sequencer {
	t.Helper()
	s := New(context.Background(), "test", logger.Nop())
	t.Cleanup(s.Close)
	return s
}

// ── Post / Flush ─────────────────────────────────────────────────────────────

func TestSequencer_RunsTasksInOrder(t *testing.T) {
	s := newTestSequencer(t)

	var got []int
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Post(func(context.Context) { got = append(got, i) }))
	}
	require.NoError(t, s.Flush(context.Background()))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSequencer_TasksNeverOverlap(t *testing.T) {
	s := newTestSequencer(t)

	var running, overlaps atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Post(func(context.Context) {
			if running.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(100 * time.Microsecond)
			running.Add(-1)
		}))
	}
	require.NoError(t, s.Flush(context.Background()))

	assert.Zero(t, overlaps.Load())
}

func TestSequencer_Do_WaitsForTask(t *testing.T) {
	s := newTestSequencer(t)

	value := 0
	require.NoError(t, s.Do(context.Background(), func(context.Context) { value = 42 }))
	assert.Equal(t, 42, value)
}

func TestSequencer_Flush_RespectsContext(t *testing.T) {
	s := newTestSequencer(t)

	release := make(chan struct{})
	require.NoError(t, s.Post(func(context.Context) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
	close(release)
}

func TestSequencer_RecoversFromPanic(t *testing.T) {
	s := newTestSequencer(t)

	require.NoError(t, s.Post(func(context.Context) { panic("boom") }))
	ran := false
	require.NoError(t, s.Do(context.Background(), func(context.Context) { ran = true }))

	assert.True(t, ran)
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestSequencer_Close_RejectsNewTasks(t *testing.T) {
	s := New(context.Background(), "test", logger.Nop())
	s.Close()

	assert.ErrorIs(t, s.Post(func(context.Context) {}), ErrClosed)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
}

func TestSequencer_Close_CancelsRunningTask(t *testing.T) {
	s := New(context.Background(), "test", logger.Nop())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Post(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))
	<-started

	s.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task was not cancelled")
	}
}

func TestSequencer_Close_DropsPendingTasks(t *testing.T) {
	s := New(context.Background(), "test", logger.Nop())

	release := make(chan struct{})
	require.NoError(t, s.Post(func(ctx context.Context) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}))
	var ran atomic.Bool
	require.NoError(t, s.Post(func(context.Context) { ran.Store(true) }))

	s.Close()
	close(release)

	assert.False(t, ran.Load())
	assert.Zero(t, s.Len())
}

func TestSequencer_Close_Twice_NoPanic(t *testing.T) {
	s := New(context.Background(), "test", logger.Nop())
	s.Close()
	assert.NotPanics(t, s.Close)
}

func TestSequencer_ParentContextCancel_StopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, "test", logger.Nop())
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
