// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

// keysQueryTimeout is the federation timeout asked from the homeserver, in
// milliseconds.
const keysQueryTimeout = 10_000

type deviceListTracker struct {
	account config.ClientAccount
	devices store.DeviceStore
	rooms   store.RoomStore
	adapter adapter.HomeserverAdapter
	engine  crypto.Engine
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *logger.Logger

	// mu guards the load-modify-save cycles of the tracking statuses and the
	// fields below. It is never held across a network call.
	mu              sync.Mutex
	notReadyServers map[string]struct{}
	inflight        map[string]*keysDownload
	listeners       []DeviceListListener

	refreshGroup singleflight.Group
}

// keysDownload is one in-flight /keys/query. Callers needing a user that is
// already being downloaded wait on done instead of querying again.
type keysDownload struct {
	done chan struct{}
	err  error
}

// NewDeviceListTracker returns a [DeviceListTracker] persisting its state in
// devices.
func NewDeviceListTracker(
	account config.ClientAccount,
	devices store.DeviceStore,
	rooms store.RoomStore,
	homeserver adapter.HomeserverAdapter,
	engine crypto.Engine,
	clk clock.Clock,
	m *metrics.Metrics,
	log *logger.Logger,
) DeviceListTracker {
	return &deviceListTracker{
		account:         account,
		devices:         devices,
		rooms:           rooms,
		adapter:         homeserver,
		engine:          engine,
		clock:           clk,
		metrics:         m,
		logger:          log.Component("device_list_tracker"),
		notReadyServers: make(map[string]struct{}),
		inflight:        make(map[string]*keysDownload),
	}
}

// Init resets users left in DownloadInProgress or UnreachableServer by a
// previous run: a download interrupted by a shutdown is not up to date.
func (t *deviceListTracker) Init(ctx context.Context) error {
	return t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for userID, status := range statuses {
			if status == models.TrackingStatusDownloadInProgress || status == models.TrackingStatusUnreachableServer {
				statuses[userID] = models.TrackingStatusPendingDownload
				updated = true
			}
		}
		return updated
	})
}

func (t *deviceListTracker) StartTracking(ctx context.Context, userIDs []string) error {
	return t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for _, userID := range userIDs {
			status, ok := statuses[userID]
			if !ok || status == models.TrackingStatusNotTracked {
				t.logger.Debug().Str("user_id", userID).Msg("now tracking device list")
				statuses[userID] = models.TrackingStatusPendingDownload
				updated = true
			}
		}
		return updated
	})
}

func (t *deviceListTracker) HandleDeviceListChanges(ctx context.Context, changed, left []string) error {
	if len(changed) > 0 || len(left) > 0 {
		t.clearNotReadyServers()
	}

	return t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for _, userID := range changed {
			if isTracked(statuses, userID) {
				statuses[userID] = models.TrackingStatusPendingDownload
				updated = true
			}
		}
		for _, userID := range left {
			if isTracked(statuses, userID) {
				statuses[userID] = models.TrackingStatusNotTracked
				updated = true
			}
		}
		return updated
	})
}

func (t *deviceListTracker) InvalidateAllDeviceLists(ctx context.Context) error {
	statuses, err := t.devices.GetDeviceTrackingStatuses(ctx)
	if err != nil {
		return err
	}

	users := make([]string, 0, len(statuses))
	for userID := range statuses {
		users = append(users, userID)
	}
	return t.HandleDeviceListChanges(ctx, users, nil)
}

// OnRoomMembersLoaded tracks the joined and invited members of an encrypted
// room and refreshes their lists.
func (t *deviceListTracker) OnRoomMembersLoaded(ctx context.Context, roomID string, memberIDs []string) error {
	algorithm, err := t.rooms.GetRoomAlgorithm(ctx, roomID)
	if err != nil {
		return err
	}
	if algorithm == "" {
		return nil
	}

	if err := t.StartTracking(ctx, memberIDs); err != nil {
		return err
	}
	return t.RefreshOutdatedDeviceLists(ctx)
}

func (t *deviceListTracker) DownloadKeys(ctx context.Context, userIDs []string, force bool) (models.UsersDevicesMap[*models.DeviceRecord], error) {
	stored := models.UsersDevicesMap[*models.DeviceRecord]{}

	var download []string
	if force {
		download = slices.Clone(userIDs)
	} else {
		statuses, err := t.devices.GetDeviceTrackingStatuses(ctx)
		if err != nil {
			return nil, err
		}
		for _, userID := range userIDs {
			status := statuses[userID]
			if status != models.TrackingStatusUpToDate && status != models.TrackingStatusUnreachableServer {
				download = append(download, userID)
				continue
			}
			devices, err := t.devices.GetUserDevices(ctx, userID)
			if err != nil {
				return nil, err
			}
			if len(devices) == 0 {
				download = append(download, userID)
				continue
			}
			stored.SetAll(userID, devices)
		}
	}

	if len(download) == 0 {
		return stored, nil
	}

	result, err := t.doKeyDownloadForUsers(ctx, download)
	if err != nil {
		return nil, err
	}
	result.Merge(stored)
	return result, nil
}

// RefreshOutdatedDeviceLists downloads the lists of every user pending
// download. Concurrent calls share one run. Download errors are logged, the
// affected users stay pending for the next sync.
func (t *deviceListTracker) RefreshOutdatedDeviceLists(ctx context.Context) error {
	_, err, _ := t.refreshGroup.Do("refresh", func() (any, error) {
		var users []string
		err := t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
			for userID, status := range statuses {
				if status == models.TrackingStatusPendingDownload {
					statuses[userID] = models.TrackingStatusDownloadInProgress
					users = append(users, userID)
				}
			}
			return len(users) > 0
		})
		if err != nil || len(users) == 0 {
			return nil, err
		}

		if _, err := t.doKeyDownloadForUsers(ctx, users); err != nil {
			t.logger.Err(err).
				Str("func", "deviceListTracker.RefreshOutdatedDeviceLists").
				Int("users", len(users)).
				Msg("error updating device keys")
		}
		return nil, nil
	})
	return err
}

func (t *deviceListTracker) AddListener(l DeviceListListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

func (t *deviceListTracker) RemoveListener(l DeviceListListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = slices.DeleteFunc(t.listeners, func(existing DeviceListListener) bool { return existing == l })
}

func (t *deviceListTracker) dispatchDeviceChange(userIDs []string) {
	t.mu.Lock()
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error().Interface("panic", r).Msg("device list listener panicked")
				}
			}()
			l.OnUsersDeviceUpdate(userIDs)
		}()
	}
}

// doKeyDownloadForUsers downloads the lists of users, joining downloads
// already in flight for some of them.
func (t *deviceListTracker) doKeyDownloadForUsers(ctx context.Context, users []string) (models.UsersDevicesMap[*models.DeviceRecord], error) {
	filtered := make([]string, 0, len(users))
	for _, userID := range users {
		if models.IsValidUserID(userID) {
			filtered = append(filtered, userID)
		}
	}
	if len(filtered) == 0 {
		return models.UsersDevicesMap[*models.DeviceRecord]{}, nil
	}

	mine, download, joined := t.claimDownloads(filtered)

	result := models.UsersDevicesMap[*models.DeviceRecord]{}
	if len(mine) > 0 {
		downloaded, err := t.queryKeys(ctx, mine)
		t.releaseDownloads(mine, download, err)
		if err != nil {
			return nil, err
		}
		result = downloaded
	}

	for userID, download := range joined {
		select {
		case <-download.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if download.err != nil {
			return nil, download.err
		}
		devices, err := t.devices.GetUserDevices(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(devices) > 0 {
			result.SetAll(userID, devices)
		}
	}

	return result, nil
}

// claimDownloads registers one download for the users nobody is downloading
// yet and returns the downloads the others must wait for.
func (t *deviceListTracker) claimDownloads(users []string) ([]string, *keysDownload, map[string]*keysDownload) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var mine []string
	joined := make(map[string]*keysDownload)
	download := &keysDownload{done: make(chan struct{})}
	for _, userID := range users {
		if existing, ok := t.inflight[userID]; ok {
			joined[userID] = existing
			continue
		}
		t.inflight[userID] = download
		mine = append(mine, userID)
	}
	return mine, download, joined
}

func (t *deviceListTracker) releaseDownloads(users []string, download *keysDownload, err error) {
	t.mu.Lock()
	for _, userID := range users {
		if t.inflight[userID] == download {
			delete(t.inflight, userID)
		}
	}
	t.mu.Unlock()

	download.err = err
	close(download.done)
}

func (t *deviceListTracker) queryKeys(ctx context.Context, users []string) (models.UsersDevicesMap[*models.DeviceRecord], error) {
	log := t.logger.With().Str("func", "deviceListTracker.queryKeys").Logger()

	err := t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for _, userID := range users {
			if isTracked(statuses, userID) && statuses[userID] != models.TrackingStatusDownloadInProgress {
				statuses[userID] = models.TrackingStatusDownloadInProgress
				updated = true
			}
		}
		return updated
	})
	if err != nil {
		return nil, err
	}

	query := models.KeysQueryRequest{
		DeviceKeys: make(map[string][]string, len(users)),
		Timeout:    keysQueryTimeout,
	}
	for _, userID := range users {
		query.DeviceKeys[userID] = []string{}
	}

	start := t.clock.Now()
	resp, err := t.adapter.QueryKeys(ctx, query)
	t.metrics.KeyQuery(start, err)
	if err != nil {
		log.Err(err).Int("users", len(users)).Msg("keys query failed")
		if !errors.Is(err, context.Canceled) {
			t.onKeysDownloadFailed(ctx, users)
		}
		return nil, fmt.Errorf("%w: %w", ErrKeysDownloadFailed, err)
	}

	for _, userID := range users {
		raw := resp.DeviceKeys[userID]
		if len(raw) == 0 {
			continue
		}
		if err := t.storeDownloadedDevices(ctx, userID, raw); err != nil {
			log.Err(err).Str("user_id", userID).Msg("failed to store downloaded devices")
		}
	}

	return t.onKeysDownloadSucceed(ctx, users, resp), nil
}

// storeDownloadedDevices replaces the stored devices of userID with the
// downloaded ones. Devices absent from the response are removed; a device
// whose new keys fail validation keeps its previous record.
func (t *deviceListTracker) storeDownloadedDevices(ctx context.Context, userID string, raw map[string]json.RawMessage) error {
	workingCopy := make(map[string]*models.DeviceRecord, len(raw))

	for deviceID, keys := range raw {
		previous, err := t.devices.GetUserDevice(ctx, userID, deviceID)
		if err != nil && !errors.Is(err, store.ErrDeviceNotFound) {
			return err
		}

		var device models.DeviceRecord
		if err := json.Unmarshal(keys, &device); err != nil {
			t.logger.Warn().Err(err).Str("user_id", userID).Str("device_id", deviceID).Msg("unparsable device keys")
			if previous != nil {
				workingCopy[deviceID] = previous
			}
			continue
		}

		if !t.validateDeviceKeys(keys, &device, userID, deviceID, previous) {
			if previous != nil {
				workingCopy[deviceID] = previous
			}
			continue
		}

		// Trust is client-side information, carry it over.
		if previous != nil {
			device.Trust = previous.Trust
			device.Blocked = previous.Blocked
			device.FirstTimeSeen = previous.FirstTimeSeen
		} else {
			device.FirstTimeSeen = t.clock.Now()
		}
		if userID == t.account.UserID && deviceID == t.account.DeviceID {
			device.Trust.LocallyVerified = true
		}

		workingCopy[deviceID] = &device
	}

	return t.devices.StoreUserDevices(ctx, userID, workingCopy)
}

// validateDeviceKeys checks the identity and the self-signature of
// downloaded device keys. A changed ed25519 key is rejected: the list may
// have been tampered with and the original key is kept.
func (t *deviceListTracker) validateDeviceKeys(raw json.RawMessage, device *models.DeviceRecord, userID, deviceID string, previous *models.DeviceRecord) bool {
	log := t.logger.With().
		Str("func", "deviceListTracker.validateDeviceKeys").
		Str("user_id", userID).
		Str("device_id", deviceID).
		Logger()

	if device.Keys == nil {
		log.Error().Msg("device keys have no keys")
		return false
	}
	if device.Signatures == nil {
		log.Error().Msg("device keys have no signatures")
		return false
	}
	if device.UserID != userID {
		log.Error().Str("claimed_user_id", device.UserID).Msg("mismatched user_id")
		return false
	}
	if device.DeviceID != deviceID {
		log.Error().Str("claimed_device_id", device.DeviceID).Msg("mismatched device_id")
		return false
	}

	signKeyID := "ed25519:" + deviceID
	signKey, ok := device.Keys[signKeyID]
	if !ok || signKey == "" {
		log.Error().Msg("device has no ed25519 key")
		return false
	}

	signature, ok := device.Signatures[userID][signKeyID]
	if !ok || signature == "" {
		log.Error().Msg("device keys are not self-signed")
		return false
	}

	signable, err := crypto.SignableJSON(raw)
	if err != nil {
		log.Err(err).Msg("unable to build signable json")
		return false
	}
	if err := t.engine.VerifySignature(signKey, signable, signature); err != nil {
		log.Err(err).Msg("unable to verify device signature")
		return false
	}

	if previous != nil && previous.Fingerprint() != signKey {
		log.Error().
			Str("previous", previous.Fingerprint()).
			Str("received", signKey).
			Msg("ed25519 key of device has changed, keeping the previous one")
		return false
	}

	return true
}

func (t *deviceListTracker) onKeysDownloadFailed(ctx context.Context, users []string) {
	err := t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for _, userID := range users {
			if statuses[userID] == models.TrackingStatusDownloadInProgress {
				statuses[userID] = models.TrackingStatusPendingDownload
				updated = true
			}
		}
		return updated
	})
	if err != nil {
		t.logger.Err(err).Str("func", "deviceListTracker.onKeysDownloadFailed").Msg("failed to revert tracking statuses")
	}
}

func (t *deviceListTracker) onKeysDownloadSucceed(ctx context.Context, users []string, resp *models.KeysQueryResponse) models.UsersDevicesMap[*models.DeviceRecord] {
	log := t.logger.With().Str("func", "deviceListTracker.onKeysDownloadSucceed").Logger()

	for server := range resp.Failures {
		if resp.FailureStatus(server) == http.StatusServiceUnavailable {
			t.mu.Lock()
			t.notReadyServers[server] = struct{}{}
			t.mu.Unlock()
		}
	}

	result := models.UsersDevicesMap[*models.DeviceRecord]{}
	devicesByUser := make(map[string]map[string]*models.DeviceRecord, len(users))
	for _, userID := range users {
		devices, err := t.devices.GetUserDevices(ctx, userID)
		if err != nil {
			log.Err(err).Str("user_id", userID).Msg("failed to read downloaded devices")
			continue
		}
		devicesByUser[userID] = devices
	}

	// updateStatuses holds t.mu, read the retry policy before.
	canRetry := make(map[string]bool, len(users))
	for _, userID := range users {
		canRetry[userID] = t.canRetryKeysDownload(userID)
	}

	err := t.updateStatuses(ctx, func(statuses map[string]models.DeviceTrackingStatus) bool {
		updated := false
		for _, userID := range users {
			devices := devicesByUser[userID]
			inProgress := statuses[userID] == models.TrackingStatusDownloadInProgress

			if len(devices) == 0 {
				switch {
				case canRetry[userID] && isTracked(statuses, userID):
					statuses[userID] = models.TrackingStatusPendingDownload
					updated = true
					log.Warn().Str("user_id", userID).Msg("no devices downloaded, retrying later")
				case inProgress:
					statuses[userID] = models.TrackingStatusUnreachableServer
					updated = true
					log.Warn().Str("user_id", userID).Msg("no devices downloaded, homeserver is not available")
				}
				continue
			}

			// Only a download that saw no invalidation while in flight makes
			// the list up to date.
			if inProgress {
				statuses[userID] = models.TrackingStatusUpToDate
				updated = true
			}
			result.SetAll(userID, devices)
		}
		return updated
	})
	if err != nil {
		log.Err(err).Msg("failed to save tracking statuses")
	}

	t.dispatchDeviceChange(users)
	return result
}

func (t *deviceListTracker) canRetryKeysDownload(userID string) bool {
	server := models.ServerName(userID)
	if server == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, notReady := t.notReadyServers[server]
	return !notReady
}

func (t *deviceListTracker) clearNotReadyServers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.notReadyServers)
}

// updateStatuses runs a load-modify-save cycle on the tracking statuses.
// mutate reports whether anything changed.
func (t *deviceListTracker) updateStatuses(ctx context.Context, mutate func(map[string]models.DeviceTrackingStatus) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	statuses, err := t.devices.GetDeviceTrackingStatuses(ctx)
	if err != nil {
		return err
	}
	if statuses == nil {
		statuses = make(map[string]models.DeviceTrackingStatus)
	}
	if !mutate(statuses) {
		return nil
	}
	return t.devices.SaveDeviceTrackingStatuses(ctx, statuses)
}

func isTracked(statuses map[string]models.DeviceTrackingStatus, userID string) bool {
	status, ok := statuses[userID]
	return ok && status != models.TrackingStatusNotTracked
}
