// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/mock"
	"github.com/MKhiriev/go-key-gossip/models"
)

type trackerFixture struct {
	tracker DeviceListTracker
	devices *memDeviceStore
	rooms   *mock.MockRoomStore
	adapter *mock.MockHomeserverAdapter
	engine  *mock.MockEngine
	clock   *clock.FakeClock
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &trackerFixture{
		devices: newMemDeviceStore(),
		rooms:   mock.NewMockRoomStore(ctrl),
		adapter: mock.NewMockHomeserverAdapter(ctrl),
		engine:  mock.NewMockEngine(ctrl),
		clock:   clock.NewFake(testEpoch),
	}
	f.tracker = NewDeviceListTracker(testAccount, f.devices, f.rooms, f.adapter, f.engine, f.clock, nil, logger.Nop())
	return f
}

// refreshWithin fails the test instead of hanging when a refresh does not
// return.
func (f *trackerFixture) refreshWithin(t *testing.T, timeout time.Duration) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- f.tracker.RefreshOutdatedDeviceLists(t.Context()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("RefreshOutdatedDeviceLists did not return")
	}
}

func (f *trackerFixture) acceptAllSignatures() {
	f.engine.EXPECT().VerifySignature(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

type recordingDeviceListener struct {
	mu    sync.Mutex
	calls [][]string
}

func (l *recordingDeviceListener) OnUsersDeviceUpdate(userIDs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, userIDs)
}

type panickingDeviceListener struct{}

func (panickingDeviceListener) OnUsersDeviceUpdate([]string) { panic("listener failure") }

// ── Init ────────────────────────────────────────────────────────────────────

func TestDeviceListTracker_Init_ResetsInterruptedDownloads(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{
		"@a:example.org": models.TrackingStatusDownloadInProgress,
		"@b:example.org": models.TrackingStatusUnreachableServer,
		"@c:example.org": models.TrackingStatusUpToDate,
		"@d:example.org": models.TrackingStatusNotTracked,
		"@e:example.org": models.TrackingStatusPendingDownload,
	}

	require.NoError(t, f.tracker.Init(t.Context()))

	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status("@a:example.org"))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status("@b:example.org"))
	assert.Equal(t, models.TrackingStatusUpToDate, f.devices.status("@c:example.org"))
	assert.Equal(t, models.TrackingStatusNotTracked, f.devices.status("@d:example.org"))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status("@e:example.org"))
}

func TestDeviceListTracker_Init_NothingToResetDoesNotSave(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{"@c:example.org": models.TrackingStatusUpToDate}

	require.NoError(t, f.tracker.Init(t.Context()))
	assert.Zero(t, f.devices.saves)
}

// ── StartTracking ───────────────────────────────────────────────────────────

func TestDeviceListTracker_StartTracking_IsIdempotent(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := t.Context()

	require.NoError(t, f.tracker.StartTracking(ctx, []string{bobUserID}))
	require.NoError(t, f.tracker.StartTracking(ctx, []string{bobUserID}))

	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
	assert.Equal(t, 1, f.devices.saves)
}

func TestDeviceListTracker_StartTracking_KeepsKnownStatus(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{
		bobUserID:        models.TrackingStatusUpToDate,
		"@old:other.org": models.TrackingStatusNotTracked,
	}

	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID, "@old:other.org"}))

	assert.Equal(t, models.TrackingStatusUpToDate, f.devices.status(bobUserID))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status("@old:other.org"))
}

// ── HandleDeviceListChanges ─────────────────────────────────────────────────

func TestDeviceListTracker_HandleDeviceListChanges(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{
		bobUserID:          models.TrackingStatusUpToDate,
		"@carol:other.org": models.TrackingStatusDownloadInProgress,
		"@dave:other.org":  models.TrackingStatusUpToDate,
	}

	err := f.tracker.HandleDeviceListChanges(t.Context(),
		[]string{bobUserID, "@carol:other.org", "@stranger:other.org"},
		[]string{"@dave:other.org"},
	)
	require.NoError(t, err)

	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
	// invalidated while downloading: the download must not mark it up to date
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status("@carol:other.org"))
	assert.Equal(t, models.TrackingStatusNotTracked, f.devices.status("@dave:other.org"))
	// users we do not track are ignored
	_, tracked := f.devices.statuses["@stranger:other.org"]
	assert.False(t, tracked)
}

func TestDeviceListTracker_InvalidateAllDeviceLists(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{
		bobUserID:        models.TrackingStatusUpToDate,
		myUserID:         models.TrackingStatusUpToDate,
		"@old:other.org": models.TrackingStatusNotTracked,
	}

	require.NoError(t, f.tracker.InvalidateAllDeviceLists(t.Context()))

	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(myUserID))
	assert.Equal(t, models.TrackingStatusNotTracked, f.devices.status("@old:other.org"))
}

// ── DownloadKeys ────────────────────────────────────────────────────────────

func TestDeviceListTracker_DownloadKeys_UsesStoredUpToDateList(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{bobUserID: models.TrackingStatusUpToDate}
	f.devices.put(deviceRecord(bobUserID, bobDevice, "ed-bob"))

	// no QueryKeys expectation: a network call fails the test
	devices, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, false)
	require.NoError(t, err)

	device, ok := devices.Get(bobUserID, bobDevice)
	require.True(t, ok)
	assert.Equal(t, "ed-bob", device.Fingerprint())
}

func TestDeviceListTracker_DownloadKeys_DownloadsPendingUser(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID}))

	listener := &recordingDeviceListener{}
	f.tracker.AddListener(listener)
	f.tracker.AddListener(panickingDeviceListener{})

	f.adapter.EXPECT().
		QueryKeys(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.KeysQueryRequest) (*models.KeysQueryResponse, error) {
			assert.Contains(t, req.DeviceKeys, bobUserID)
			assert.Equal(t, keysQueryTimeout, req.Timeout)
			return &models.KeysQueryResponse{
				DeviceKeys: map[string]map[string]json.RawMessage{
					bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
				},
			}, nil
		})

	devices, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, false)
	require.NoError(t, err)

	device, ok := devices.Get(bobUserID, bobDevice)
	require.True(t, ok)
	assert.Equal(t, "curve-"+bobDevice, device.IdentityKey())
	assert.False(t, device.FirstTimeSeen.IsZero())
	assert.Equal(t, models.TrackingStatusUpToDate, f.devices.status(bobUserID))

	listener.mu.Lock()
	defer listener.mu.Unlock()
	assert.Equal(t, [][]string{{bobUserID}}, listener.calls)
}

func TestDeviceListTracker_DownloadKeys_ForceIgnoresUpToDate(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	f.devices.statuses = map[string]models.DeviceTrackingStatus{bobUserID: models.TrackingStatusUpToDate}
	f.devices.put(deviceRecord(bobUserID, bobDevice, "ed-bob"))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {
				bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob"),
				"NEWDEV":  deviceKeysJSON(t, bobUserID, "NEWDEV", "ed-new"),
			},
		},
	}, nil)

	devices, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, true)
	require.NoError(t, err)
	assert.Len(t, devices[bobUserID], 2)
}

func TestDeviceListTracker_DownloadKeys_FailureRevertsToPending(t *testing.T) {
	f := newTrackerFixture(t)
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(nil, adapter.ErrServerUnavailable)

	_, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeysDownloadFailed)
	assert.ErrorIs(t, err, adapter.ErrServerUnavailable)
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
}

func TestDeviceListTracker_DownloadKeys_SkipsInvalidUserIDs(t *testing.T) {
	f := newTrackerFixture(t)

	devices, err := f.tracker.DownloadKeys(t.Context(), []string{"not-a-user", "@nohost"}, true)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

// ── validation ──────────────────────────────────────────────────────────────

func TestDeviceListTracker_DropsDevicesFailingValidation(t *testing.T) {
	f := newTrackerFixture(t)
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID}))

	f.engine.EXPECT().
		VerifySignature(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(key string, _ []byte, _ string) error {
			if key == "ed-forged" {
				return errors.New("bad signature")
			}
			return nil
		}).
		AnyTimes()

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {
				bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob"),
				"FORGED":  deviceKeysJSON(t, bobUserID, "FORGED", "ed-forged"),
				// claims to be another user's device
				"LIAR":  deviceKeysJSON(t, "@mallory:other.org", "LIAR", "ed-liar"),
				"WRONG": deviceKeysJSON(t, bobUserID, "RIGHT", "ed-wrong"),
			},
		},
	}, nil)

	devices, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, false)
	require.NoError(t, err)

	assert.Len(t, devices[bobUserID], 1)
	_, ok := devices.Get(bobUserID, bobDevice)
	assert.True(t, ok)
}

func TestDeviceListTracker_KeepsPreviousDeviceWhenKeyChanges(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	firstSeen := testEpoch
	previous := deviceRecord(bobUserID, bobDevice, "ed-original")
	previous.Trust.LocallyVerified = true
	previous.FirstTimeSeen = firstSeen
	f.devices.put(previous)
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-replaced")},
		},
	}, nil)

	_, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, false)
	require.NoError(t, err)

	stored, err := f.devices.GetUserDevice(t.Context(), bobUserID, bobDevice)
	require.NoError(t, err)
	assert.Equal(t, "ed-original", stored.Fingerprint())
	assert.True(t, stored.Trust.LocallyVerified)
}

func TestDeviceListTracker_CarriesTrustAndMarksOwnDevice(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	verified := deviceRecord(bobUserID, bobDevice, "ed-bob")
	verified.Trust.CrossSigningVerified = true
	verified.Blocked = true
	verified.FirstTimeSeen = testEpoch
	f.devices.put(verified)
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID, myUserID}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
			myUserID:  {myDeviceID: deviceKeysJSON(t, myUserID, myDeviceID, "ed-mine")},
		},
	}, nil)

	devices, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID, myUserID}, false)
	require.NoError(t, err)

	bob, ok := devices.Get(bobUserID, bobDevice)
	require.True(t, ok)
	assert.True(t, bob.Trust.CrossSigningVerified)
	assert.True(t, bob.Blocked)
	assert.True(t, bob.FirstTimeSeen.Equal(testEpoch))

	mine, ok := devices.Get(myUserID, myDeviceID)
	require.True(t, ok)
	assert.True(t, mine.Trust.LocallyVerified)
}

// ── unreachable servers ─────────────────────────────────────────────────────

func TestDeviceListTracker_UnreachableServerUntilNextChange(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := t.Context()
	require.NoError(t, f.tracker.StartTracking(ctx, []string{bobUserID}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{},
		Failures:   map[string]map[string]any{"other.org": {"status": float64(503)}},
	}, nil)

	f.refreshWithin(t, time.Second)
	assert.Equal(t, models.TrackingStatusUnreachableServer, f.devices.status(bobUserID))

	// the next device_lists change forgets the unreachable servers
	require.NoError(t, f.tracker.HandleDeviceListChanges(ctx, []string{bobUserID}, nil))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
}

func TestDeviceListTracker_NoDevicesFromReachableServerStaysPending(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := t.Context()
	require.NoError(t, f.tracker.StartTracking(ctx, []string{bobUserID}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{}, nil)

	f.refreshWithin(t, time.Second)
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
}

// Пустой ответ для нескольких пользователей сразу не должен блокировать трекер.
func TestDeviceListTracker_NoDevicesForSeveralUsers_DoesNotBlock(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := t.Context()
	require.NoError(t, f.tracker.StartTracking(ctx, []string{bobUserID, "@carol:down.org"}))

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		Failures: map[string]map[string]any{"down.org": {"status": float64(503)}},
	}, nil)

	f.refreshWithin(t, time.Second)
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
	assert.Equal(t, models.TrackingStatusUnreachableServer, f.devices.status("@carol:down.org"))

	// the tracker is still usable afterwards
	require.NoError(t, f.tracker.StartTracking(ctx, []string{"@dave:other.org"}))
}

// ── RefreshOutdatedDeviceLists ──────────────────────────────────────────────

func TestDeviceListTracker_RefreshOutdatedDeviceLists_OnlyPendingUsers(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	f.devices.statuses = map[string]models.DeviceTrackingStatus{
		bobUserID:          models.TrackingStatusPendingDownload,
		"@carol:other.org": models.TrackingStatusUpToDate,
		"@dave:other.org":  models.TrackingStatusNotTracked,
	}

	f.adapter.EXPECT().
		QueryKeys(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.KeysQueryRequest) (*models.KeysQueryResponse, error) {
			assert.Equal(t, map[string][]string{bobUserID: {}}, req.DeviceKeys)
			return &models.KeysQueryResponse{
				DeviceKeys: map[string]map[string]json.RawMessage{
					bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
				},
			}, nil
		})

	require.NoError(t, f.tracker.RefreshOutdatedDeviceLists(t.Context()))
	assert.Equal(t, models.TrackingStatusUpToDate, f.devices.status(bobUserID))

	device, err := f.devices.GetUserDevice(t.Context(), bobUserID, bobDevice)
	require.NoError(t, err)
	assert.True(t, testEpoch.Equal(device.FirstTimeSeen), "first seen comes from the injected clock")

	// nothing pending any more
	require.NoError(t, f.tracker.RefreshOutdatedDeviceLists(t.Context()))
}

func TestDeviceListTracker_RefreshOutdatedDeviceLists_SwallowsDownloadErrors(t *testing.T) {
	f := newTrackerFixture(t)
	f.devices.statuses = map[string]models.DeviceTrackingStatus{bobUserID: models.TrackingStatusPendingDownload}

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(nil, adapter.ErrInternalServerError)

	require.NoError(t, f.tracker.RefreshOutdatedDeviceLists(t.Context()))
	assert.Equal(t, models.TrackingStatusPendingDownload, f.devices.status(bobUserID))
}

func TestDeviceListTracker_ConcurrentDownloadsShareOneQuery(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	require.NoError(t, f.tracker.StartTracking(t.Context(), []string{bobUserID}))

	entered := make(chan struct{})
	release := make(chan struct{})
	var queries atomic.Int32
	f.adapter.EXPECT().
		QueryKeys(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.KeysQueryRequest) (*models.KeysQueryResponse, error) {
			queries.Add(1)
			close(entered)
			<-release
			return &models.KeysQueryResponse{
				DeviceKeys: map[string]map[string]json.RawMessage{
					bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
				},
			}, nil
		}).
		Times(1)

	var wg sync.WaitGroup
	results := make([]models.UsersDevicesMap[*models.DeviceRecord], 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, true)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, true)
	}()

	// give the second caller time to join the download in flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), queries.Load())
	for _, result := range results {
		_, ok := result.Get(bobUserID, bobDevice)
		assert.True(t, ok)
	}
}

// ── OnRoomMembersLoaded ─────────────────────────────────────────────────────

func TestDeviceListTracker_OnRoomMembersLoaded_IgnoresUnencryptedRoom(t *testing.T) {
	f := newTrackerFixture(t)
	f.rooms.EXPECT().GetRoomAlgorithm(gomock.Any(), "!plain:example.org").Return("", nil)

	require.NoError(t, f.tracker.OnRoomMembersLoaded(t.Context(), "!plain:example.org", []string{bobUserID}))
	assert.Equal(t, models.TrackingStatusNotTracked, f.devices.status(bobUserID))
}

func TestDeviceListTracker_OnRoomMembersLoaded_TracksAndRefreshes(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	f.rooms.EXPECT().GetRoomAlgorithm(gomock.Any(), "!secret:example.org").Return(models.AlgorithmMegolm, nil)
	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
		},
	}, nil)

	require.NoError(t, f.tracker.OnRoomMembersLoaded(t.Context(), "!secret:example.org", []string{bobUserID}))
	assert.Equal(t, models.TrackingStatusUpToDate, f.devices.status(bobUserID))
}

func TestDeviceListTracker_RemoveListener(t *testing.T) {
	f := newTrackerFixture(t)
	f.acceptAllSignatures()
	listener := &recordingDeviceListener{}
	f.tracker.AddListener(listener)
	f.tracker.RemoveListener(listener)

	f.adapter.EXPECT().QueryKeys(gomock.Any(), gomock.Any()).Return(&models.KeysQueryResponse{
		DeviceKeys: map[string]map[string]json.RawMessage{
			bobUserID: {bobDevice: deviceKeysJSON(t, bobUserID, bobDevice, "ed-bob")},
		},
	}, nil)

	_, err := f.tracker.DownloadKeys(t.Context(), []string{bobUserID}, true)
	require.NoError(t, err)
	assert.Empty(t, listener.calls)
}
