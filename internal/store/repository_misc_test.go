// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

// ── audit ────────────────────────────────────────────────────────────────────

func TestSaveGossipAudit(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db, logger.Nop())
	at := time.Now()
	idx := 3

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gossip_audit (kind,room_id,session_id,sender_key,algorithm,user_id,device_id,code,chain_index,at) VALUES (?,?,?,?,?,?,?,?,?,?)")).
		WithArgs("forwarded", "!r:x", "S", "K", models.AlgorithmMegolm, "@u:x", "D", "", 3, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveGossipAudit(testContext(), models.GossipAuditEntry{
		Kind: models.AuditForwarded, RoomID: "!r:x", SessionID: "S", SenderKey: "K",
		Algorithm: models.AlgorithmMegolm, UserID: "@u:x", DeviceID: "D", ChainIndex: &idx, At: at,
	})

	require.NoError(t, err)
}

func TestListGossipAudit_NewestFirstWithLimit(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db, logger.Nop())
	at := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM gossip_audit ORDER BY id DESC LIMIT 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "room_id", "session_id", "sender_key", "algorithm", "user_id", "device_id", "code", "chain_index", "at"}).
			AddRow(2, "withheld", "!r:x", "S", "K", models.AlgorithmMegolm, "@u:x", "D", "m.blacklisted", nil, at).
			AddRow(1, "incoming_request", "!r:x", "S", "K", models.AlgorithmMegolm, "@u:x", "D", "", nil, at))

	entries, err := repo.ListGossipAudit(testContext(), 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditWithheld, entries[0].Kind)
	assert.Equal(t, models.WithHeldBlacklisted, entries[0].Code)
	assert.Nil(t, entries[0].ChainIndex)
	assert.Equal(t, int64(1), entries[1].ID)
}

// ── inbound sessions ─────────────────────────────────────────────────────────

func TestGetInboundGroupSession(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewInboundSessionRepository(db, logger.Nop())
	updated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM inbound_group_sessions WHERE sender_key = ? AND session_id = ?")).
		WithArgs("K", "S").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "sender_key", "room_id", "first_known_index", "pickle", "forwarding_chain", "trusted", "updated_at"}).
			AddRow("S", "K", "!r:x", 7, []byte("pickle"), mustBlob(t, []string{"fwd1"}), false, updated))

	session, err := repo.GetInboundGroupSession(testContext(), "S", "K")

	require.NoError(t, err)
	assert.Equal(t, 7, session.FirstKnownIndex)
	assert.Equal(t, []byte("pickle"), session.Pickle)
	assert.Equal(t, []string{"fwd1"}, session.ForwardingChain)
	assert.Equal(t, models.InboundSessionKey{SessionID: "S", SenderKey: "K"}, session.Key())
}

func TestGetInboundGroupSession_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewInboundSessionRepository(db, logger.Nop())

	mock.ExpectQuery("FROM inbound_group_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}))

	_, err := repo.GetInboundGroupSession(testContext(), "S", "K")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreInboundGroupSessions_SingleBatch(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewInboundSessionRepository(db, logger.Nop())
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inbound_group_sessions (session_id,sender_key,room_id,first_known_index,pickle,forwarding_chain,trusted,updated_at) VALUES (?,?,?,?,?,?,?,?),(?,?,?,?,?,?,?,?) ON CONFLICT")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.StoreInboundGroupSessions(testContext(),
		&models.InboundGroupSession{SessionID: "S1", SenderKey: "K", RoomID: "!r:x", Pickle: []byte("a"), UpdatedAt: now},
		&models.InboundGroupSession{SessionID: "S2", SenderKey: "K", RoomID: "!r:x", Pickle: []byte("b"), UpdatedAt: now},
	)

	require.NoError(t, err)
}

func TestStoreInboundGroupSessions_NothingToStore(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewInboundSessionRepository(db, logger.Nop())

	require.NoError(t, repo.StoreInboundGroupSessions(testContext()))
}

// ── shared sessions ──────────────────────────────────────────────────────────

func TestGetSharedSessionInfo(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want models.SharedSessionInfo
	}{
		{
			name: "never shared",
			rows: sqlmock.NewRows([]string{"chain_index"}),
			want: models.SharedSessionInfo{Found: false},
		},
		{
			name: "shared from index",
			rows: sqlmock.NewRows([]string{"chain_index"}).AddRow(4),
			want: models.SharedSessionInfo{Found: true, ChainIndex: intPtr(4)},
		},
		{
			name: "shared without index",
			rows: sqlmock.NewRows([]string{"chain_index"}).AddRow(nil),
			want: models.SharedSessionInfo{Found: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestDB(t)
			repo := NewSharedSessionRepository(db, logger.Nop())

			mock.ExpectQuery(regexp.QuoteMeta("SELECT chain_index FROM shared_sessions WHERE device_id = ? AND room_id = ? AND session_id = ? AND user_id = ?")).
				WithArgs("D", "!r:x", "S", "@u:x").
				WillReturnRows(tt.rows)

			info, err := repo.GetSharedSessionInfo(testContext(), "!r:x", "S", "@u:x", "D")

			require.NoError(t, err)
			assert.Equal(t, tt.want, info)
		})
	}
}

func TestMarkSharedWithDevice_KeepsLowestIndex(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewSharedSessionRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("chain_index = MIN(chain_index, excluded.chain_index)")).
		WithArgs("!r:x", "S", "@u:x", "D", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkSharedWithDevice(testContext(), "!r:x", "S", "@u:x", "D", 2))
}

// ── rooms / account ──────────────────────────────────────────────────────────

func TestGetRoomAlgorithm(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewRoomRepository(db, logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT algorithm FROM rooms WHERE room_id = ?")).
		WithArgs("!enc:x").
		WillReturnRows(sqlmock.NewRows([]string{"algorithm"}).AddRow(models.AlgorithmMegolm))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT algorithm FROM rooms WHERE room_id = ?")).
		WithArgs("!plain:x").
		WillReturnError(sql.ErrNoRows)

	algorithm, err := repo.GetRoomAlgorithm(testContext(), "!enc:x")
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmMegolm, algorithm)

	algorithm, err = repo.GetRoomAlgorithm(testContext(), "!plain:x")
	require.NoError(t, err)
	assert.Empty(t, algorithm)
}

func TestSetRoomAlgorithm(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewRoomRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms (room_id,algorithm) VALUES (?,?) ON CONFLICT (room_id)")).
		WithArgs("!enc:x", models.AlgorithmMegolm).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SetRoomAlgorithm(testContext(), "!enc:x", models.AlgorithmMegolm))
}

func TestAccountValues(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAccountRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO account (key,value) VALUES (?,?)")).
		WithArgs(AccountKeyGossipingEnabled, "false").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM account WHERE key = ?")).
		WithArgs(AccountKeyGossipingEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("false"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM account WHERE key = ?")).
		WithArgs(AccountKeySyncToken).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	require.NoError(t, repo.SetAccountValue(testContext(), AccountKeyGossipingEnabled, "false"))

	value, ok, err := repo.GetAccountValue(testContext(), AccountKeyGossipingEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", value)

	_, ok, err = repo.GetAccountValue(testContext(), AccountKeySyncToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func intPtr(i int) *int { return &i }
