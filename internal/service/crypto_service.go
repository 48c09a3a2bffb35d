// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

type cryptoService struct {
	account config.ClientAccount
	cfg     config.ClientCrypto

	tracker  DeviceListTracker
	outgoing OutgoingKeyRequestManager
	incoming IncomingKeyRequestManager
	cache    InboundSessionCache

	devices        store.DeviceStore
	rooms          store.RoomStore
	sharedSessions store.SharedSessionStore
	settings       gossipSettings
	engine         crypto.Engine

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// CryptoServiceDeps groups the components the facade routes to.
type CryptoServiceDeps struct {
	Tracker  DeviceListTracker
	Outgoing OutgoingKeyRequestManager
	Incoming IncomingKeyRequestManager
	Cache    InboundSessionCache

	Devices        store.DeviceStore
	Rooms          store.RoomStore
	SharedSessions store.SharedSessionStore
	Account        store.AccountStore
	Engine         crypto.Engine
	Metrics        *metrics.Metrics
}

// NewCryptoService returns the [CryptoService] feeding deps from sync
// responses.
func NewCryptoService(account config.ClientAccount, cfg config.ClientCrypto, deps CryptoServiceDeps, log *logger.Logger) CryptoService {
	return &cryptoService{
		account:        account,
		cfg:            cfg,
		tracker:        deps.Tracker,
		outgoing:       deps.Outgoing,
		incoming:       deps.Incoming,
		cache:          deps.Cache,
		devices:        deps.Devices,
		rooms:          deps.Rooms,
		sharedSessions: deps.SharedSessions,
		settings:       gossipSettings{account: deps.Account, defaultEnabled: cfg.GossipingEnabled},
		engine:         deps.Engine,
		metrics:        deps.Metrics,
		logger:         log.Component("crypto_service"),
	}
}

func (s *cryptoService) Start(ctx context.Context) error {
	if err := s.tracker.Init(ctx); err != nil {
		return fmt.Errorf("init device tracking: %w", err)
	}
	// Our own devices are always tracked.
	return s.tracker.StartTracking(ctx, []string{s.account.UserID})
}

// OnSyncResponse applies one sync response. Only store failures of the
// device lists are returned; a bad to-device event is logged and skipped.
func (s *cryptoService) OnSyncResponse(ctx context.Context, resp *models.SyncResponse) error {
	defer s.metrics.SyncProcessed(time.Now())

	if err := s.tracker.HandleDeviceListChanges(ctx, resp.DeviceLists.Changed, resp.DeviceLists.Left); err != nil {
		return fmt.Errorf("handle device list changes: %w", err)
	}

	for roomID, room := range resp.Rooms.Join {
		// State changes may also arrive in the timeline.
		events := append(slices.Clone(room.State.Events), room.Timeline.Events...)
		s.onRoomState(ctx, roomID, events)
	}

	for _, event := range resp.ToDevice.Events {
		if err := s.onToDeviceEvent(ctx, event); err != nil {
			s.logger.Err(err).
				Str("func", "cryptoService.OnSyncResponse").
				Str("type", event.Type).
				Str("sender", event.Sender).
				Msg("failed to handle to-device event")
		}
	}
	return nil
}

// OnSyncCompleted runs the end of sync checkpoints: incoming requests are
// answered before ours are sent, and device lists are refreshed last.
func (s *cryptoService) OnSyncCompleted(ctx context.Context) error {
	s.incoming.ProcessIncomingRequests()
	if err := s.incoming.Flush(ctx); err != nil {
		return err
	}
	s.outgoing.RequireProcessAllPendingKeyRequests()
	return s.tracker.RefreshOutdatedDeviceLists(ctx)
}

func (s *cryptoService) OnDecryptionFailed(event models.EncryptedEvent, force bool) {
	s.outgoing.RequestKeyForEvent(event, force)
}

func (s *cryptoService) OnRoomEncryptionEnabled(ctx context.Context, roomID, algorithm string, memberIDs []string) error {
	if err := s.rooms.SetRoomAlgorithm(ctx, roomID, algorithm); err != nil {
		return err
	}
	return s.tracker.OnRoomMembersLoaded(ctx, roomID, memberIDs)
}

func (s *cryptoService) OnSessionSharedWithDevice(ctx context.Context, roomID, sessionID, userID, deviceID string, chainIndex int) error {
	return s.sharedSessions.MarkSharedWithDevice(ctx, roomID, sessionID, userID, deviceID, chainIndex)
}

func (s *cryptoService) OnSelfCrossSigningTrustChanged(trusted bool) {
	s.outgoing.OnSelfCrossSigningTrustChanged(trusted)
}

func (s *cryptoService) SetGossipingEnabled(ctx context.Context, enabled bool) error {
	return s.settings.setEnabled(ctx, enabled)
}

func (s *cryptoService) IsGossipingEnabled(ctx context.Context) bool {
	return s.settings.enabled(ctx)
}

func (s *cryptoService) SetDeviceVerified(ctx context.Context, userID, deviceID string, verified bool) error {
	device, err := s.devices.GetUserDevice(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	trust := device.Trust
	trust.LocallyVerified = verified
	return s.devices.SetDeviceTrust(ctx, userID, deviceID, trust)
}

func (s *cryptoService) SetDeviceBlocked(ctx context.Context, userID, deviceID string, blocked bool) error {
	return s.devices.SetDeviceBlocked(ctx, userID, deviceID, blocked)
}

// Close stops both managers and writes the cached sessions.
func (s *cryptoService) Close(ctx context.Context) error {
	s.outgoing.Close()
	s.incoming.Close()
	return s.cache.Close(ctx)
}

func (s *cryptoService) onRoomState(ctx context.Context, roomID string, events []models.RoomEvent) {
	log := s.logger.With().Str("func", "cryptoService.onRoomState").Str("room_id", roomID).Logger()

	var members []string
	for _, event := range events {
		if event.StateKey == nil {
			continue
		}
		switch event.Type {
		case models.EventTypeRoomEncryption:
			var content models.RoomEncryptionContent
			if err := json.Unmarshal(event.Content, &content); err != nil || content.Algorithm == "" {
				log.Warn().Err(err).Msg("invalid m.room.encryption event")
				continue
			}
			if err := s.rooms.SetRoomAlgorithm(ctx, roomID, content.Algorithm); err != nil {
				log.Err(err).Msg("failed to save room algorithm")
			}
		case models.EventTypeRoomMember:
			var content models.RoomMemberContent
			if json.Unmarshal(event.Content, &content) != nil {
				continue
			}
			if content.Membership == models.MembershipJoin || content.Membership == models.MembershipInvite {
				members = append(members, *event.StateKey)
			}
		}
	}
	if len(members) == 0 {
		return
	}

	algorithm, err := s.rooms.GetRoomAlgorithm(ctx, roomID)
	if err != nil {
		log.Err(err).Msg("failed to read room algorithm")
		return
	}
	if algorithm == "" {
		return
	}
	if err := s.tracker.StartTracking(ctx, members); err != nil {
		log.Err(err).Msg("failed to track room members")
	}
}

func (s *cryptoService) onToDeviceEvent(ctx context.Context, event models.ToDeviceEvent) error {
	switch event.Type {
	case models.EventTypeRoomKeyRequest:
		var request models.RoomKeyShareRequest
		if err := json.Unmarshal(event.Content, &request); err != nil {
			return err
		}
		s.incoming.AddNewIncomingRequest(event.Sender, request)
		return nil

	case models.EventTypeEncrypted:
		decrypted, err := s.engine.DecryptToDevice(ctx, event)
		if err != nil {
			return fmt.Errorf("decrypt to-device event: %w", err)
		}
		if decrypted.Sender == "" {
			decrypted.Sender = event.Sender
		}
		switch decrypted.Type {
		case models.EventTypeForwardedRoomKey:
			return s.onForwardedRoomKey(ctx, decrypted)
		case models.EventTypeRoomKey:
			return s.onRoomKey(ctx, decrypted)
		}
		return nil

	case models.EventTypeRoomKeyWithHeld:
		var content models.RoomKeyWithHeldContent
		if err := json.Unmarshal(event.Content, &content); err != nil {
			return err
		}
		s.outgoing.OnRoomKeyWithHeld(RoomKeyReply{
			Body: models.RoomKeyRequestBody{
				Algorithm: content.Algorithm,
				RoomID:    content.RoomID,
				SenderKey: content.SenderKey,
				SessionID: content.SessionID,
			},
			Sender:     event.Sender,
			FromDevice: content.FromDevice,
			EventType:  event.Type,
			Code:       content.Code,
		})
		return nil
	}
	return nil
}

func (s *cryptoService) onForwardedRoomKey(ctx context.Context, event *crypto.DecryptedEvent) error {
	var content models.ForwardedRoomKeyContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return err
	}

	fromDevice, err := s.deviceByIdentityKey(ctx, event.Sender, event.SenderKey)
	if err != nil {
		return err
	}

	if s.cfg.DiscardForwardedKeysFromUntrustedDevices {
		trusted := event.Sender == s.account.UserID && fromDevice != nil && fromDevice.IsVerified()
		if !trusted {
			s.logger.Warn().
				Str("sender", event.Sender).
				Str("session_id", content.SessionID).
				Msg("discarding forwarded key from an untrusted device")
			return nil
		}
	}

	session, err := s.importRoomKey(ctx, &content)
	if err != nil {
		return err
	}

	reply := RoomKeyReply{
		Body: models.RoomKeyRequestBody{
			Algorithm: content.Algorithm,
			RoomID:    content.RoomID,
			SenderKey: content.SenderKey,
			SessionID: content.SessionID,
		},
		Sender:     event.Sender,
		EventType:  event.Type,
		ChainIndex: &session.FirstKnownIndex,
	}
	if fromDevice != nil {
		reply.FromDevice = fromDevice.DeviceID
	}
	s.outgoing.OnRoomKeyForwarded(reply)
	return nil
}

func (s *cryptoService) onRoomKey(ctx context.Context, event *crypto.DecryptedEvent) error {
	var content models.ForwardedRoomKeyContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return err
	}
	// For a direct share the Olm sender is the session creator.
	content.SenderKey = event.SenderKey

	_, err := s.importRoomKey(ctx, &content)
	return err
}

// importRoomKey stores a received session and cancels our requests it
// satisfies.
func (s *cryptoService) importRoomKey(ctx context.Context, content *models.ForwardedRoomKeyContent) (*models.InboundGroupSession, error) {
	if content.Algorithm != models.AlgorithmMegolm {
		return nil, fmt.Errorf("unsupported room key algorithm %q", content.Algorithm)
	}

	session, err := s.engine.ImportRoomKey(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("import room key: %w", err)
	}
	if err := s.cache.Put(ctx, session); err != nil {
		return nil, err
	}

	s.outgoing.PostCancelRequestForSessionIfNeeded(session.SessionID, session.RoomID, session.SenderKey, session.FirstKnownIndex)
	return session, nil
}

// deviceByIdentityKey returns the device of userID owning the curve25519
// identityKey, or nil.
func (s *cryptoService) deviceByIdentityKey(ctx context.Context, userID, identityKey string) (*models.DeviceRecord, error) {
	if identityKey == "" {
		return nil, nil
	}
	devices, err := s.devices.GetUserDevices(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrDeviceNotFound) {
		return nil, err
	}
	for _, device := range devices {
		if device.IdentityKey() == identityKey {
			return device, nil
		}
	}
	return nil, nil
}
