// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

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

const (
	// trustChangeBackupDelay lets the new cross-signing state settle before
	// the backup trust is evaluated again.
	trustChangeBackupDelay = time.Second

	defaultSendRetryDelay = 200 * time.Millisecond
)

type outgoingKeyRequestManager struct {
	account  config.ClientAccount
	cfg      config.ClientCrypto
	requests store.OutgoingKeyRequestStore
	adapter  adapter.HomeserverAdapter
	limiter  BackupFallbackLimiter
	cache    InboundSessionCache
	settings gossipSettings
	ids      IDGenerator
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *logger.Logger

	seq            *sequencer.Sequencer
	sendRetryDelay time.Duration

	// backupOnly holds the sessions that were not requested from peers but
	// may be in the key backup. Newest first. Only touched by sequencer tasks.
	backupOnly []models.RoomKeyRequestBody
}

// OutgoingKeyRequestManagerDeps groups the collaborators of the outgoing
// manager.
type OutgoingKeyRequestManagerDeps struct {
	Requests store.OutgoingKeyRequestStore
	Account  store.AccountStore
	Adapter  adapter.HomeserverAdapter
	Limiter  BackupFallbackLimiter
	Cache    InboundSessionCache
	IDs      IDGenerator
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

// NewOutgoingKeyRequestManager starts the manager's sequencer. It runs until
// ctx is cancelled or Close is called.
func NewOutgoingKeyRequestManager(
	ctx context.Context,
	account config.ClientAccount,
	cfg config.ClientCrypto,
	deps OutgoingKeyRequestManagerDeps,
	log *logger.Logger,
) OutgoingKeyRequestManager {
	if cfg.RequestRetryCount <= 0 {
		cfg.RequestRetryCount = config.DefaultRequestRetryCount
	}
	if cfg.MaxBackupCallsPerSync <= 0 {
		cfg.MaxBackupCallsPerSync = config.DefaultMaxBackupCallsPerSync
	}

	componentLog := log.Component("outgoing_key_requests")
	return &outgoingKeyRequestManager{
		account:        account,
		cfg:            cfg,
		requests:       deps.Requests,
		adapter:        deps.Adapter,
		limiter:        deps.Limiter,
		cache:          deps.Cache,
		settings:       gossipSettings{account: deps.Account, defaultEnabled: cfg.GossipingEnabled},
		ids:            deps.IDs,
		clock:          deps.Clock,
		metrics:        deps.Metrics,
		logger:         componentLog,
		seq:            sequencer.New(componentLog.WithContext(ctx), "outgoing_key_requests", componentLog),
		sendRetryDelay: defaultSendRetryDelay,
	}
}

// RequestKeyForEvent requests the session of an event we failed to decrypt,
// from our other devices and, unless limited by configuration, from the
// device that sent the event.
func (m *outgoingKeyRequestManager) RequestKeyForEvent(event models.EncryptedEvent, force bool) {
	m.post("RequestKeyForEvent", func(ctx context.Context) {
		content := event.Content
		if content.Algorithm != models.AlgorithmMegolm {
			m.logger.Debug().Str("algorithm", content.Algorithm).Str("event_id", event.EventID).Msg("not requesting key for non megolm event")
			return
		}

		recipients := map[string][]string{m.account.UserID: {models.AllDevices}}
		if !m.cfg.LimitRoomKeyRequestsToMyDevices && event.Sender != m.account.UserID {
			senderDevice := content.DeviceID
			if senderDevice == "" {
				senderDevice = models.AllDevices
			}
			recipients[event.Sender] = []string{senderDevice}
		}

		fromIndex, err := crypto.ParseMessageIndex(content.Ciphertext)
		if err != nil {
			m.logger.Debug().Err(err).Str("event_id", event.EventID).Msg("cannot read message index, requesting from 0")
			fromIndex = 0
		}

		body := models.RoomKeyRequestBody{
			Algorithm: content.Algorithm,
			RoomID:    event.RoomID,
			SenderKey: content.SenderKey,
			SessionID: content.SessionID,
		}
		m.queueRequest(ctx, body, recipients, fromIndex, force)
	})
}

func (m *outgoingKeyRequestManager) PostRoomKeyRequest(body models.RoomKeyRequestBody, recipients map[string][]string, fromIndex int, force bool) {
	m.post("PostRoomKeyRequest", func(ctx context.Context) {
		m.queueRequest(ctx, body, recipients, fromIndex, force)
	})
}

// PostCancelRequestForSessionIfNeeded cancels the requests for a session we
// now hold from localKnownChainIndex.
func (m *outgoingKeyRequestManager) PostCancelRequestForSessionIfNeeded(sessionID, roomID, senderKey string, localKnownChainIndex int) {
	m.post("PostCancelRequestForSessionIfNeeded", func(ctx context.Context) {
		m.queueCancelRequest(ctx, sessionID, roomID, senderKey, localKnownChainIndex)
	})
}

// RequireProcessAllPendingKeyRequests sends, cancels and resends what is
// pending. It is meant to run once a sync was fully processed, as keys may
// have arrived in it.
func (m *outgoingKeyRequestManager) RequireProcessAllPendingKeyRequests() {
	m.post("RequireProcessAllPendingKeyRequests", m.processPendingKeyRequests)
}

func (m *outgoingKeyRequestManager) OnRoomKeyForwarded(reply RoomKeyReply) {
	m.logger.Debug().
		Str("session_id", reply.Body.SessionID).
		Str("sender", reply.Sender).
		Str("from_device", reply.FromDevice).
		Msg("key forwarded")

	// Key material is never kept, only the index it was shared from.
	m.post("OnRoomKeyForwarded", func(ctx context.Context) {
		m.recordReply(ctx, reply.Body, models.OutgoingKeyReply{
			UserID:     reply.Sender,
			FromDevice: reply.FromDevice,
			EventType:  reply.EventType,
			ChainIndex: reply.ChainIndex,
		})
	})
}

func (m *outgoingKeyRequestManager) OnRoomKeyWithHeld(reply RoomKeyReply) {
	m.post("OnRoomKeyWithHeld", func(ctx context.Context) {
		m.logger.Debug().
			Str("session_id", reply.Body.SessionID).
			Str("sender", reply.Sender).
			Str("code", string(reply.Code)).
			Msg("withheld received")
		m.recordReply(ctx, reply.Body, models.OutgoingKeyReply{
			UserID:     reply.Sender,
			FromDevice: reply.FromDevice,
			EventType:  reply.EventType,
			Code:       string(reply.Code),
		})
	})
}

// OnSelfCrossSigningTrustChanged forgets the sent requests once we became
// cross-signed: the next decryption failure re-requests with better odds.
// Requests are not resent in bulk.
func (m *outgoingKeyRequestManager) OnSelfCrossSigningTrustChanged(trusted bool) {
	if !trusted {
		return
	}

	m.post("OnSelfCrossSigningTrustChanged", func(ctx context.Context) {
		deleted, err := m.requests.DeleteOutgoingKeyRequestsByState(ctx, models.OutgoingStateSent)
		if err != nil {
			m.logger.Err(err).Str("func", "outgoingKeyRequestManager.OnSelfCrossSigningTrustChanged").Msg("failed to delete sent requests")
			return
		}
		m.logger.Debug().Int64("deleted", deleted).Msg("sent requests forgotten after trust change")
	})
	m.post("OnSelfCrossSigningTrustChanged", func(ctx context.Context) {
		select {
		case <-m.clock.After(trustChangeBackupDelay):
		case <-ctx.Done():
			return
		}
		m.limiter.RefreshBackupInfoIfNeeded(ctx, true)
	})
}

func (m *outgoingKeyRequestManager) Flush(ctx context.Context) error {
	return m.seq.Flush(ctx)
}

// Close stops processing. Posted work that did not run yet is dropped.
func (m *outgoingKeyRequestManager) Close() {
	m.seq.Close()
	m.backupOnly = nil
}

func (m *outgoingKeyRequestManager) post(op string, task sequencer.Task) {
	if err := m.seq.Post(task); err != nil {
		m.logger.Debug().Err(err).Str("op", op).Msg("outgoing key request manager is closed")
	}
}

func (m *outgoingKeyRequestManager) queueRequest(ctx context.Context, body models.RoomKeyRequestBody, recipients map[string][]string, fromIndex int, force bool) {
	log := m.logger.With().
		Str("func", "outgoingKeyRequestManager.queueRequest").
		Str("session_id", body.SessionID).
		Bool("force", force).
		Logger()

	if !m.settings.enabled(ctx) {
		log.Debug().Msg("gossiping is disabled, the key will only be looked up in the backup")
		m.pushBackupOnly(body)
		return
	}

	existing, err := m.findRequest(ctx, body)
	if err != nil {
		log.Err(err).Msg("failed to read outgoing request")
		return
	}

	current, changed := existing, false
	switch {
	case existing == nil:
		current, changed = m.newRequest(body, recipients, fromIndex), true
	case existing.State == models.OutgoingStateSent:
		if force {
			existing.State, changed = models.OutgoingStateCancellationPendingAndWillResend, true
		} else {
			log.Debug().Msg("session is already requested")
			m.pushBackupOnly(body)
		}
	case existing.State == models.OutgoingStateCancellationPending:
		// Cancelled because we got the key; a forced request still wants it again.
		if force {
			existing.State, changed = models.OutgoingStateCancellationPendingAndWillResend, true
		}
	case existing.State == models.OutgoingStateSentThenCanceled:
		if force {
			if err := m.requests.DeleteOutgoingKeyRequest(ctx, existing.RequestID); err != nil {
				log.Err(err).Msg("failed to delete canceled request")
				return
			}
			current, changed = m.newRequest(body, recipients, fromIndex), true
		}
	}

	if current.FromIndex > fromIndex {
		current.FromIndex, changed = fromIndex, true
	}
	if !changed {
		return
	}
	if err := m.requests.SaveOutgoingKeyRequest(ctx, current); err != nil {
		log.Err(err).Msg("failed to save outgoing request")
	}
}

func (m *outgoingKeyRequestManager) queueCancelRequest(ctx context.Context, sessionID, roomID, senderKey string, localKnownChainIndex int) {
	log := m.logger.With().
		Str("func", "outgoingKeyRequestManager.queueCancelRequest").
		Str("session_id", sessionID).
		Logger()

	known, err := m.requests.GetOutgoingKeyRequests(ctx, models.RoomKeyRequestBody{
		Algorithm: models.AlgorithmMegolm,
		RoomID:    roomID,
		SenderKey: senderKey,
		SessionID: sessionID,
	})
	if err != nil {
		log.Err(err).Msg("failed to read outgoing requests")
		return
	}
	if len(known) == 0 {
		return
	}
	if len(known) > 1 {
		log.Warn().Int("requests", len(known)).Msg("found multiple requests for the same session")
	}

	for _, req := range known {
		if req.FromIndex < localKnownChainIndex {
			// Our copy starts later than what was asked, keep asking.
			continue
		}

		switch req.State {
		case models.OutgoingStateUnsent:
			err = m.requests.DeleteOutgoingKeyRequest(ctx, req.RequestID)
		case models.OutgoingStateSent, models.OutgoingStateCancellationPendingAndWillResend:
			req.State = models.OutgoingStateCancellationPending
			err = m.requests.SaveOutgoingKeyRequest(ctx, req)
		default:
			continue
		}
		if err != nil {
			log.Err(err).Str("request_id", req.RequestID).Msg("failed to cancel outgoing request")
		}
	}
}

func (m *outgoingKeyRequestManager) processPendingKeyRequests(ctx context.Context) {
	log := m.logger.With().Str("func", "outgoingKeyRequestManager.processPendingKeyRequests").Logger()

	pending, err := m.requests.GetOutgoingKeyRequestsByState(ctx, models.PendingOutgoingStates()...)
	if err != nil {
		log.Err(err).Msg("failed to read pending requests")
		return
	}
	log.Debug().Int("pending", len(pending)).Msg("processing pending key requests")

	for _, req := range pending {
		if ctx.Err() != nil {
			return
		}
		switch req.State {
		case models.OutgoingStateUnsent:
			m.handleUnsentRequest(ctx, req)
		case models.OutgoingStateCancellationPending:
			m.handleRequestToCancel(ctx, req)
		case models.OutgoingStateCancellationPendingAndWillResend:
			m.handleRequestToCancelWillResend(ctx, req)
		}
	}

	m.drainBackupOnly(ctx)
}

func (m *outgoingKeyRequestManager) handleUnsentRequest(ctx context.Context, req *models.OutgoingKeyRequest) {
	log := m.logger.With().
		Str("func", "outgoingKeyRequestManager.handleUnsentRequest").
		Str("request_id", req.RequestID).
		Str("session_id", req.Body.SessionID).
		Logger()

	// The backup costs no to-device traffic, try it first.
	if m.limiter.TryFromBackupIfPossible(ctx, req.Body.SessionID, req.Body.RoomID) {
		session, err := m.cache.Get(ctx, req.Body.SessionID, req.Body.SenderKey)
		if err == nil && session.FirstKnownIndex <= req.FromIndex {
			log.Debug().Msg("session restored from backup, request not sent")
			if err := m.requests.DeleteOutgoingKeyRequest(ctx, req.RequestID); err != nil {
				log.Err(err).Msg("failed to delete request")
			}
			return
		}
	}

	content := models.RoomKeyShareRequest{
		RequestingDeviceID: m.account.DeviceID,
		RequestID:          req.RequestID,
		Action:             models.ActionShareRequest,
		Body:               &req.Body,
	}
	if err := m.sendToRecipients(ctx, req, content); err != nil {
		log.Warn().Err(err).Interface("recipients", req.Recipients).Msg("failed to send key request")
		return
	}

	req.State = models.OutgoingStateSent
	if err := m.requests.SaveOutgoingKeyRequest(ctx, req); err != nil {
		log.Err(err).Msg("failed to mark request as sent")
		return
	}
	log.Debug().Interface("recipients", req.Recipients).Msg("key request sent")
}

// handleRequestToCancel reports whether the cancellation was sent. The
// request is kept so that late replies are still recorded.
func (m *outgoingKeyRequestManager) handleRequestToCancel(ctx context.Context, req *models.OutgoingKeyRequest) bool {
	log := m.logger.With().
		Str("func", "outgoingKeyRequestManager.handleRequestToCancel").
		Str("request_id", req.RequestID).
		Str("session_id", req.Body.SessionID).
		Logger()

	content := models.RoomKeyShareRequest{
		RequestingDeviceID: m.account.DeviceID,
		RequestID:          req.RequestID,
		Action:             models.ActionShareCancellation,
	}
	if err := m.sendToRecipients(ctx, req, content); err != nil {
		log.Warn().Err(err).Msg("failed to send request cancellation")
		return false
	}

	req.State = models.OutgoingStateSentThenCanceled
	if err := m.requests.SaveOutgoingKeyRequest(ctx, req); err != nil {
		log.Err(err).Msg("failed to mark request as canceled")
		return false
	}
	return true
}

func (m *outgoingKeyRequestManager) handleRequestToCancelWillResend(ctx context.Context, req *models.OutgoingKeyRequest) {
	if !m.handleRequestToCancel(ctx, req) {
		return
	}

	log := m.logger.With().Str("func", "outgoingKeyRequestManager.handleRequestToCancelWillResend").Logger()
	if err := m.requests.DeleteOutgoingKeyRequest(ctx, req.RequestID); err != nil {
		log.Err(err).Str("request_id", req.RequestID).Msg("failed to delete canceled request")
		return
	}

	// A fresh request, without the replies of the old one. It is sent on the
	// next processing run.
	renewed := m.newRequest(req.Body, req.Recipients, req.FromIndex)
	if err := m.requests.SaveOutgoingKeyRequest(ctx, renewed); err != nil {
		log.Err(err).Str("request_id", renewed.RequestID).Msg("failed to recreate request")
	}
}

func (m *outgoingKeyRequestManager) drainBackupOnly(ctx context.Context) {
	for calls := 0; len(m.backupOnly) > 0 && calls < m.cfg.MaxBackupCallsPerSync; calls++ {
		if ctx.Err() != nil {
			return
		}

		last := len(m.backupOnly) - 1
		body := m.backupOnly[last]
		m.backupOnly = m.backupOnly[:last]

		if !m.limiter.TryFromBackupIfPossible(ctx, body.SessionID, body.RoomID) {
			continue
		}
		session, err := m.cache.Get(ctx, body.SessionID, body.SenderKey)
		if err != nil {
			continue
		}
		m.queueCancelRequest(ctx, body.SessionID, body.RoomID, body.SenderKey, session.FirstKnownIndex)
	}
}

func (m *outgoingKeyRequestManager) pushBackupOnly(body models.RoomKeyRequestBody) {
	if body.RoomID == "" || body.SessionID == "" {
		return
	}
	m.backupOnly = append(m.backupOnly, body)
}

// sendToRecipients sends content to every recipient of req in one
// sendToDevice call. Retries reuse the transaction id so the homeserver
// deduplicates them.
func (m *outgoingKeyRequestManager) sendToRecipients(ctx context.Context, req *models.OutgoingKeyRequest, content models.RoomKeyShareRequest) error {
	messages := models.UsersDevicesMap[any]{}
	for userID, devices := range req.Recipients {
		for _, deviceID := range devices {
			messages.Set(userID, deviceID, content)
		}
	}

	txnID := m.ids.Generate()
	backoff := retry.WithMaxRetries(uint64(m.cfg.RequestRetryCount-1), retry.NewExponential(m.sendRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := m.adapter.SendToDevice(ctx, models.EventTypeRoomKeyRequest, txnID, messages)
		if err != nil && isRetryableSendError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		m.metrics.OutgoingRequestFailed(content.Action)
		return err
	}

	m.metrics.OutgoingRequestSent(content.Action)
	return nil
}

func (m *outgoingKeyRequestManager) recordReply(ctx context.Context, body models.RoomKeyRequestBody, reply models.OutgoingKeyReply) {
	log := m.logger.With().
		Str("func", "outgoingKeyRequestManager.recordReply").
		Str("session_id", body.SessionID).
		Logger()

	known, err := m.requests.GetOutgoingKeyRequests(ctx, body)
	if err != nil {
		log.Err(err).Msg("failed to read outgoing requests")
		return
	}

	reply.ReceivedAt = m.clock.Now()
	for _, req := range known {
		req.Replies = append(req.Replies, reply)
		if err := m.requests.SaveOutgoingKeyRequest(ctx, req); err != nil {
			log.Err(err).Str("request_id", req.RequestID).Msg("failed to record reply")
		}
	}
}

// findRequest returns the request for body, or nil.
func (m *outgoingKeyRequestManager) findRequest(ctx context.Context, body models.RoomKeyRequestBody) (*models.OutgoingKeyRequest, error) {
	known, err := m.requests.GetOutgoingKeyRequests(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(known) == 0 {
		return nil, nil
	}
	if len(known) > 1 {
		m.logger.Warn().Str("session_id", body.SessionID).Int("requests", len(known)).Msg("found multiple requests for the same session")
	}
	return known[0], nil
}

func (m *outgoingKeyRequestManager) newRequest(body models.RoomKeyRequestBody, recipients map[string][]string, fromIndex int) *models.OutgoingKeyRequest {
	return &models.OutgoingKeyRequest{
		RequestID:  m.ids.Generate(),
		Body:       body,
		Recipients: recipients,
		FromIndex:  fromIndex,
		State:      models.OutgoingStateUnsent,
		CreatedAt:  m.clock.Now(),
	}
}

// isRetryableSendError reports whether a failed sendToDevice may succeed
// when repeated as is.
func isRetryableSendError(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, adapter.ErrBadRequest), errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		return false
	default:
		return true
	}
}
