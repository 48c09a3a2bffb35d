// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/sequencer"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

type incomingKeyRequestManager struct {
	account        config.ClientAccount
	devices        store.DeviceStore
	rooms          store.RoomStore
	sharedSessions store.SharedSessionStore
	audit          store.AuditStore
	adapter        adapter.HomeserverAdapter
	engine         crypto.Engine
	cache          InboundSessionCache
	ids            IDGenerator
	clock          clock.Clock
	metrics        *metrics.Metrics
	logger         *logger.Logger

	seq *sequencer.Sequencer

	// buffer is only touched by sequencer tasks.
	buffer []models.IncomingKeyRequest

	listenersMu sync.Mutex
	listeners   []RoomKeysRequestListener
}

// IncomingKeyRequestManagerDeps groups the collaborators of the incoming
// manager.
type IncomingKeyRequestManagerDeps struct {
	Devices        store.DeviceStore
	Rooms          store.RoomStore
	SharedSessions store.SharedSessionStore
	Audit          store.AuditStore
	Adapter        adapter.HomeserverAdapter
	Engine         crypto.Engine
	Cache          InboundSessionCache
	IDs            IDGenerator
	Clock          clock.Clock
	Metrics        *metrics.Metrics
}

// NewIncomingKeyRequestManager starts the manager's sequencer. It runs until
// ctx is cancelled or Close is called.
func NewIncomingKeyRequestManager(ctx context.Context, account config.ClientAccount, deps IncomingKeyRequestManagerDeps, log *logger.Logger) IncomingKeyRequestManager {
	componentLog := log.Component("incoming_key_requests")
	return &incomingKeyRequestManager{
		account:        account,
		devices:        deps.Devices,
		rooms:          deps.Rooms,
		sharedSessions: deps.SharedSessions,
		audit:          deps.Audit,
		adapter:        deps.Adapter,
		engine:         deps.Engine,
		cache:          deps.Cache,
		ids:            deps.IDs,
		clock:          deps.Clock,
		metrics:        deps.Metrics,
		logger:         componentLog,
		seq:            sequencer.New(componentLog.WithContext(ctx), "incoming_key_requests", componentLog),
	}
}

// AddNewIncomingRequest buffers a request until the next
// ProcessIncomingRequests. A cancellation removes the matching buffered
// request, if any.
func (m *incomingKeyRequestManager) AddNewIncomingRequest(senderID string, request models.RoomKeyShareRequest) {
	m.post("AddNewIncomingRequest", func(ctx context.Context) {
		valid, ok := toValidMegolmRequest(senderID, request)
		if !ok {
			m.logger.Warn().
				Str("sender", senderID).
				Str("action", request.Action).
				Msg("ignoring invalid or non megolm key request")
			return
		}

		idx := slices.IndexFunc(m.buffer, func(buffered models.IncomingKeyRequest) bool {
			return sameRequestTarget(buffered, valid)
		})

		switch valid.Action {
		case models.RequestActionRequest:
			if idx < 0 {
				m.buffer = append(m.buffer, valid)
			}
			m.dispatch(func(l RoomKeysRequestListener) { l.OnRoomKeyRequest(valid) })
		case models.RequestActionCancel:
			// A cancellation for something already processed is dropped.
			if idx >= 0 {
				m.buffer = slices.Delete(m.buffer, idx, idx+1)
			}
			m.dispatch(func(l RoomKeysRequestListener) { l.OnRoomKeyRequestCancellation(valid) })
		}
	})
}

// ProcessIncomingRequests answers every buffered request, in arrival order,
// then empties the buffer.
func (m *incomingKeyRequestManager) ProcessIncomingRequests() {
	m.post("ProcessIncomingRequests", func(ctx context.Context) {
		m.logger.Debug().Int("requests", len(m.buffer)).Msg("processing incoming key requests")

		for _, request := range m.buffer {
			if ctx.Err() != nil {
				break
			}
			if request.Action != models.RequestActionRequest {
				continue
			}
			if err := m.handleIncomingRequest(ctx, request); err != nil {
				m.logger.Err(err).
					Str("func", "incomingKeyRequestManager.ProcessIncomingRequests").
					Str("request", request.ShortString()).
					Msg("failed to process key request")
			}
		}
		m.buffer = nil
	})
}

func (m *incomingKeyRequestManager) AddRoomKeysRequestListener(l RoomKeysRequestListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *incomingKeyRequestManager) RemoveRoomKeysRequestListener(l RoomKeysRequestListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = slices.DeleteFunc(m.listeners, func(existing RoomKeysRequestListener) bool { return existing == l })
}

func (m *incomingKeyRequestManager) Flush(ctx context.Context) error {
	return m.seq.Flush(ctx)
}

// Close stops processing and drops the buffered requests.
func (m *incomingKeyRequestManager) Close() {
	m.seq.Close()
	m.buffer = nil
}

func (m *incomingKeyRequestManager) post(op string, task sequencer.Task) {
	if err := m.seq.Post(task); err != nil {
		m.logger.Debug().Err(err).Str("op", op).Msg("incoming key request manager is closed")
	}
}

func (m *incomingKeyRequestManager) dispatch(notify func(RoomKeysRequestListener)) {
	m.listenersMu.Lock()
	listeners := slices.Clone(m.listeners)
	m.listenersMu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error().Interface("panic", r).Msg("room keys request listener panicked")
				}
			}()
			notify(l)
		}()
	}
}

func (m *incomingKeyRequestManager) handleIncomingRequest(ctx context.Context, request models.IncomingKeyRequest) error {
	log := m.logger.With().
		Str("func", "incomingKeyRequestManager.handleIncomingRequest").
		Str("request", request.ShortString()).
		Logger()

	if request.RequestingUserID == m.account.UserID && request.RequestingDeviceID == m.account.DeviceID {
		log.Debug().Msg("ignoring remote echo of our own request")
		m.metrics.IncomingRequest(metrics.OutcomeDropped)
		return nil
	}

	// Unknown devices are not downloaded for: we would not share with them anyway.
	device, err := m.devices.GetUserDevice(ctx, request.RequestingUserID, request.RequestingDeviceID)
	if errors.Is(err, store.ErrDeviceNotFound) {
		log.Debug().Msg("ignoring key request from unknown device")
		m.metrics.IncomingRequest(metrics.OutcomeDropped)
		return nil
	}
	if err != nil {
		return err
	}

	if err := m.audit.SaveGossipAudit(ctx, m.auditEntry(models.AuditIncomingRequest, request)); err != nil {
		log.Err(err).Msg("failed to save audit entry")
	}

	algorithm, err := m.rooms.GetRoomAlgorithm(ctx, request.RoomID)
	if err != nil {
		return err
	}
	if algorithm != models.AlgorithmMegolm {
		log.Warn().Str("room_algorithm", algorithm).Msg("key request for a room without megolm")
		m.metrics.IncomingRequest(metrics.OutcomeDropped)
		return nil
	}

	if request.RequestingUserID == m.account.UserID {
		if device.IsVerified() {
			return m.shareMegolmKey(ctx, request, device, nil)
		}
		return m.shareIfItWasPreviouslyShared(ctx, request, device)
	}

	if device.Blocked {
		m.sendWithheld(ctx, request, models.WithHeldBlacklisted)
		return nil
	}
	return m.shareIfItWasPreviouslyShared(ctx, request, device)
}

// shareIfItWasPreviouslyShared re-shares a session only with a device it was
// shared with, and never from an earlier index.
func (m *incomingKeyRequestManager) shareIfItWasPreviouslyShared(ctx context.Context, request models.IncomingKeyRequest, device *models.DeviceRecord) error {
	info, err := m.sharedSessions.GetSharedSessionInfo(ctx, request.RoomID, request.SessionID, device.UserID, device.DeviceID)
	if err != nil {
		return err
	}
	if info.Found && info.ChainIndex != nil {
		return m.shareMegolmKey(ctx, request, device, info.ChainIndex)
	}

	m.sendWithheld(ctx, request, models.WithHeldUnauthorised)
	return nil
}

// shareMegolmKey forwards the session to device from fromIndex, or from the
// first known index when fromIndex is nil.
func (m *incomingKeyRequestManager) shareMegolmKey(ctx context.Context, request models.IncomingKeyRequest, device *models.DeviceRecord, fromIndex *int) error {
	log := m.logger.With().
		Str("func", "incomingKeyRequestManager.shareMegolmKey").
		Str("request", request.ShortString()).
		Logger()

	channel, err := m.engine.EstablishChannel(ctx, device)
	if err != nil || channel.SessionID == "" {
		log.Warn().Err(err).Msg("no olm session with the requesting device")
		m.sendWithheld(ctx, request, models.WithHeldNoOlm)
		return nil
	}

	session, err := m.cache.Get(ctx, request.SessionID, request.SenderKey)
	if err == nil && session.RoomID != request.RoomID {
		err = ErrSessionRoomMismatch
	}
	if err != nil {
		log.Warn().Err(err).Msg("requested session is not available")
		m.sendWithheld(ctx, request, models.WithHeldUnavailable)
		return nil
	}

	exported, err := m.engine.ExportSession(ctx, session, fromIndex)
	if err != nil {
		log.Err(err).Msg("failed to export session")
		m.sendWithheld(ctx, request, models.WithHeldUnavailable)
		return nil
	}

	payload, err := json.Marshal(struct {
		Type    string                          `json:"type"`
		Content *models.ForwardedRoomKeyContent `json:"content"`
	}{
		Type: models.EventTypeForwardedRoomKey,
		Content: &models.ForwardedRoomKeyContent{
			Algorithm:                    models.AlgorithmMegolm,
			RoomID:                       request.RoomID,
			SenderKey:                    request.SenderKey,
			SessionID:                    request.SessionID,
			SessionKey:                   exported.SessionKey,
			SenderClaimedEd25519Key:      exported.SenderClaimedEd25519Key,
			ForwardingCurve25519KeyChain: exported.ForwardingCurve25519KeyChain,
			ChainIndex:                   exported.ChainIndex,
		},
	})
	if err != nil {
		return err
	}

	encrypted, err := m.engine.Encrypt(ctx, channel, payload)
	if err != nil {
		return fmt.Errorf("encrypt forwarded key: %w", err)
	}

	messages := models.UsersDevicesMap[any]{}
	messages.Set(device.UserID, device.DeviceID, encrypted)
	if err := m.adapter.SendToDevice(ctx, models.EventTypeEncrypted, m.ids.Generate(), messages); err != nil {
		return fmt.Errorf("send forwarded key to %s: %w", device.ShortString(), err)
	}

	log.Info().Str("device", device.ShortString()).Int("chain_index", exported.ChainIndex).Msg("session re-shared")
	m.metrics.IncomingRequest(metrics.OutcomeShared)

	entry := m.auditEntry(models.AuditForwarded, request)
	entry.ChainIndex = &exported.ChainIndex
	if err := m.audit.SaveGossipAudit(ctx, entry); err != nil {
		log.Err(err).Msg("failed to save audit entry")
	}
	return nil
}

// sendWithheld tells the requester why it gets no key. It is sent once,
// a failure is only logged.
func (m *incomingKeyRequestManager) sendWithheld(ctx context.Context, request models.IncomingKeyRequest, code models.WithHeldCode) {
	log := m.logger.With().
		Str("func", "incomingKeyRequestManager.sendWithheld").
		Str("request", request.ShortString()).
		Str("code", string(code)).
		Logger()

	m.metrics.IncomingRequest(metrics.OutcomeWithheld)

	messages := models.UsersDevicesMap[any]{}
	messages.Set(request.RequestingUserID, request.RequestingDeviceID, models.RoomKeyWithHeldContent{
		RoomID:     request.RoomID,
		Algorithm:  models.AlgorithmMegolm,
		SessionID:  request.SessionID,
		SenderKey:  request.SenderKey,
		Code:       code,
		FromDevice: m.account.DeviceID,
	})
	if err := m.adapter.SendToDevice(ctx, models.EventTypeRoomKeyWithHeld, m.ids.Generate(), messages); err != nil {
		log.Warn().Err(err).Msg("failed to send withheld")
		return
	}
	log.Debug().Msg("withheld sent")
	m.metrics.WithheldSent(string(code))

	entry := m.auditEntry(models.AuditWithheld, request)
	entry.Code = code
	if err := m.audit.SaveGossipAudit(ctx, entry); err != nil {
		log.Err(err).Msg("failed to save audit entry")
	}
}

func (m *incomingKeyRequestManager) auditEntry(kind models.GossipAuditKind, request models.IncomingKeyRequest) models.GossipAuditEntry {
	return models.GossipAuditEntry{
		Kind:      kind,
		RoomID:    request.RoomID,
		SessionID: request.SessionID,
		SenderKey: request.SenderKey,
		Algorithm: models.AlgorithmMegolm,
		UserID:    request.RequestingUserID,
		DeviceID:  request.RequestingDeviceID,
		At:        m.clock.Now(),
	}
}

func toValidMegolmRequest(senderID string, request models.RoomKeyShareRequest) (models.IncomingKeyRequest, bool) {
	body := request.Body
	if request.RequestingDeviceID == "" || body == nil {
		return models.IncomingKeyRequest{}, false
	}
	if body.RoomID == "" || body.SessionID == "" || body.SenderKey == "" {
		return models.IncomingKeyRequest{}, false
	}
	if body.Algorithm != models.AlgorithmMegolm {
		return models.IncomingKeyRequest{}, false
	}
	action, ok := models.ParseRequestAction(request.Action)
	if !ok {
		return models.IncomingKeyRequest{}, false
	}

	return models.IncomingKeyRequest{
		RequestingUserID:   senderID,
		RequestingDeviceID: request.RequestingDeviceID,
		RoomID:             body.RoomID,
		SenderKey:          body.SenderKey,
		SessionID:          body.SessionID,
		Action:             action,
	}, true
}

// sameRequestTarget compares two requests regardless of their action.
func sameRequestTarget(a, b models.IncomingKeyRequest) bool {
	a.Action, b.Action = models.RequestActionRequest, models.RequestActionRequest
	return a == b
}
