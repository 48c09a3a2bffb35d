// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

const (
	myUserID   = "@alice:example.org"
	myDeviceID = "ALICEDEV"
	bobUserID  = "@bob:other.org"
	bobDevice  = "BOBDEV"
)

var (
	testAccount = config.ClientAccount{UserID: myUserID, DeviceID: myDeviceID}
	testEpoch   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

// ── memDeviceStore ──────────────────────────────────────────────────────────

// memDeviceStore is an in-memory store.DeviceStore. Reads return copies so
// that callers cannot mutate the stored state behind its back.
type memDeviceStore struct {
	mu       sync.Mutex
	statuses map[string]models.DeviceTrackingStatus
	devices  map[string]map[string]*models.DeviceRecord
	saves    int
}

func newMemDeviceStore() *memDeviceStore {
	return &memDeviceStore{
		statuses: make(map[string]models.DeviceTrackingStatus),
		devices:  make(map[string]map[string]*models.DeviceRecord),
	}
}

func (s *memDeviceStore) GetDeviceTrackingStatuses(context.Context) (map[string]models.DeviceTrackingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.DeviceTrackingStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, nil
}

func (s *memDeviceStore) SaveDeviceTrackingStatuses(_ context.Context, statuses map[string]models.DeviceTrackingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.statuses = make(map[string]models.DeviceTrackingStatus, len(statuses))
	for k, v := range statuses {
		s.statuses[k] = v
	}
	return nil
}

func (s *memDeviceStore) GetUserDevice(_ context.Context, userID, deviceID string) (*models.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[userID][deviceID]
	if !ok {
		return nil, store.ErrDeviceNotFound
	}
	cp := *device
	return &cp, nil
}

func (s *memDeviceStore) GetUserDevices(_ context.Context, userID string) (map[string]*models.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.DeviceRecord, len(s.devices[userID]))
	for id, device := range s.devices[userID] {
		cp := *device
		out[id] = &cp
	}
	return out, nil
}

func (s *memDeviceStore) StoreUserDevices(_ context.Context, userID string, devices map[string]*models.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[string]*models.DeviceRecord, len(devices))
	for id, device := range devices {
		cp := *device
		stored[id] = &cp
	}
	s.devices[userID] = stored
	return nil
}

func (s *memDeviceStore) SetDeviceTrust(_ context.Context, userID, deviceID string, trust models.DeviceTrustLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[userID][deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	device.Trust = trust
	return nil
}

func (s *memDeviceStore) SetDeviceBlocked(_ context.Context, userID, deviceID string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[userID][deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	device.Blocked = blocked
	return nil
}

func (s *memDeviceStore) status(userID string) models.DeviceTrackingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[userID]
	if !ok {
		return models.TrackingStatusNotTracked
	}
	return status
}

func (s *memDeviceStore) put(device *models.DeviceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices[device.UserID] == nil {
		s.devices[device.UserID] = make(map[string]*models.DeviceRecord)
	}
	s.devices[device.UserID][device.DeviceID] = device
}

// ── memOutgoingStore ────────────────────────────────────────────────────────

type memOutgoingStore struct {
	mu       sync.Mutex
	requests []*models.OutgoingKeyRequest
}

func copyRequest(req *models.OutgoingKeyRequest) *models.OutgoingKeyRequest {
	cp := *req
	cp.Replies = slices.Clone(req.Replies)
	return &cp
}

func (s *memOutgoingStore) GetOutgoingKeyRequests(_ context.Context, body models.RoomKeyRequestBody) ([]*models.OutgoingKeyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OutgoingKeyRequest
	for _, req := range s.requests {
		if req.Body == body {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (s *memOutgoingStore) GetOutgoingKeyRequestsForSession(_ context.Context, roomID, sessionID, senderKey string) ([]*models.OutgoingKeyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OutgoingKeyRequest
	for _, req := range s.requests {
		if req.Body.RoomID == roomID && req.Body.SessionID == sessionID && req.Body.SenderKey == senderKey {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (s *memOutgoingStore) GetOutgoingKeyRequestsByState(_ context.Context, states ...models.OutgoingKeyRequestState) ([]*models.OutgoingKeyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OutgoingKeyRequest
	for _, req := range s.requests {
		if len(states) == 0 || slices.Contains(states, req.State) {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (s *memOutgoingStore) SaveOutgoingKeyRequest(_ context.Context, req *models.OutgoingKeyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.requests {
		if existing.RequestID == req.RequestID {
			s.requests[i] = copyRequest(req)
			return nil
		}
	}
	s.requests = append(s.requests, copyRequest(req))
	return nil
}

func (s *memOutgoingStore) DeleteOutgoingKeyRequest(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = slices.DeleteFunc(s.requests, func(req *models.OutgoingKeyRequest) bool { return req.RequestID == requestID })
	return nil
}

func (s *memOutgoingStore) DeleteOutgoingKeyRequestsByState(_ context.Context, state models.OutgoingKeyRequestState) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.requests)
	s.requests = slices.DeleteFunc(s.requests, func(req *models.OutgoingKeyRequest) bool { return req.State == state })
	return int64(before - len(s.requests)), nil
}

func (s *memOutgoingStore) all() []*models.OutgoingKeyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.OutgoingKeyRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, copyRequest(req))
	}
	return out
}

// ── memAccountStore ─────────────────────────────────────────────────────────

type memAccountStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memAccountStore) GetAccountValue(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memAccountStore) SetAccountValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

// ── memInboundStore ─────────────────────────────────────────────────────────

type memInboundStore struct {
	mu       sync.Mutex
	sessions map[models.InboundSessionKey]models.InboundGroupSession
	batches  [][]string
	loads    int
}

func newMemInboundStore() *memInboundStore {
	return &memInboundStore{sessions: make(map[models.InboundSessionKey]models.InboundGroupSession)}
}

func (s *memInboundStore) GetInboundGroupSession(_ context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	session, ok := s.sessions[models.InboundSessionKey{SessionID: sessionID, SenderKey: senderKey}]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memInboundStore) StoreInboundGroupSessions(_ context.Context, sessions ...*models.InboundGroupSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]string, 0, len(sessions))
	for _, session := range sessions {
		s.sessions[session.Key()] = *session
		batch = append(batch, session.SessionID)
	}
	slices.Sort(batch)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memInboundStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *memInboundStore) writes() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.batches)
}

// ── memSessionCache ─────────────────────────────────────────────────────────

// memSessionCache is an InboundSessionCache without write-back.
type memSessionCache struct {
	mu       sync.Mutex
	sessions map[models.InboundSessionKey]*models.InboundGroupSession
}

func newMemSessionCache(sessions ...*models.InboundGroupSession) *memSessionCache {
	c := &memSessionCache{sessions: make(map[models.InboundSessionKey]*models.InboundGroupSession)}
	for _, session := range sessions {
		c.sessions[session.Key()] = session
	}
	return c
}

func (c *memSessionCache) Get(_ context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[models.InboundSessionKey{SessionID: sessionID, SenderKey: senderKey}]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

func (c *memSessionCache) Put(_ context.Context, session *models.InboundGroupSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.Key()] = session
	return nil
}

func (c *memSessionCache) Flush(context.Context) error { return nil }
func (c *memSessionCache) Close(context.Context) error { return nil }

// ── helpers ─────────────────────────────────────────────────────────────────

// seqIDs generates predictable ids: id-1, id-2, ...
type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%d", g.n.Add(1))
}

// deviceKeysJSON builds the /keys/query entry of a self-signed device.
func deviceKeysJSON(t *testing.T, userID, deviceID, ed25519Key string) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"user_id":    userID,
		"device_id":  deviceID,
		"algorithms": []string{models.AlgorithmOlm, models.AlgorithmMegolm},
		"keys": map[string]string{
			"ed25519:" + deviceID:    ed25519Key,
			"curve25519:" + deviceID: "curve-" + deviceID,
		},
		"signatures": map[string]map[string]string{
			userID: {"ed25519:" + deviceID: "sig-" + deviceID},
		},
	})
	require.NoError(t, err)
	return raw
}

func deviceRecord(userID, deviceID, ed25519Key string) *models.DeviceRecord {
	return &models.DeviceRecord{
		UserID:     userID,
		DeviceID:   deviceID,
		Algorithms: []string{models.AlgorithmOlm, models.AlgorithmMegolm},
		Keys: map[string]string{
			"ed25519:" + deviceID:    ed25519Key,
			"curve25519:" + deviceID: "curve-" + deviceID,
		},
		Signatures: map[string]map[string]string{
			userID: {"ed25519:" + deviceID: "sig-" + deviceID},
		},
	}
}

func megolmBody(roomID, sessionID string) models.RoomKeyRequestBody {
	return models.RoomKeyRequestBody{
		Algorithm: models.AlgorithmMegolm,
		RoomID:    roomID,
		SenderKey: "sender-curve",
		SessionID: sessionID,
	}
}

func intPtr(i int) *int { return &i }
