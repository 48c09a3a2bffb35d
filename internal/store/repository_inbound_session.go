package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

var inboundSessionColumns = []string{
	"session_id", "sender_key", "room_id", "first_known_index", "pickle",
	"forwarding_chain", "trusted", "updated_at",
}

// inboundSessionRepository is the SQLite implementation of
// [InboundSessionStore].
type inboundSessionRepository struct {
	*DB
	logger *logger.Logger
}

// NewInboundSessionRepository constructs an [InboundSessionStore] backed by db.
func NewInboundSessionRepository(db *DB, logger *logger.Logger) InboundSessionStore {
	return &inboundSessionRepository{DB: db, logger: logger}
}

func (i *inboundSessionRepository) GetInboundGroupSession(ctx context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.Select(inboundSessionColumns...).
		From("inbound_group_sessions").
		Where(sq.Eq{"session_id": sessionID, "sender_key": senderKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := i.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "inboundSessionRepository.GetInboundGroupSession").
			Str("session_id", sessionID).
			Msg("failed to query inbound group session")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		return nil, ErrSessionNotFound
	}

	var (
		session models.InboundGroupSession
		chain   []byte
	)
	err = rows.Scan(&session.SessionID, &session.SenderKey, &session.RoomID, &session.FirstKnownIndex,
		&session.Pickle, &chain, &session.Trusted, &session.UpdatedAt)
	if err != nil {
		log.Err(err).
			Str("func", "inboundSessionRepository.GetInboundGroupSession").
			Str("session_id", sessionID).
			Msg("failed to scan inbound group session row")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	if err := decodeBlob(chain, &session.ForwardingChain); err != nil {
		return nil, err
	}

	return &session, nil
}

func (i *inboundSessionRepository) StoreInboundGroupSessions(ctx context.Context, sessions ...*models.InboundGroupSession) error {
	if len(sessions) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	insert := builder.Insert("inbound_group_sessions").Columns(inboundSessionColumns...)
	for _, session := range sessions {
		chain, err := encodeBlob(session.ForwardingChain)
		if err != nil {
			return err
		}
		insert = insert.Values(session.SessionID, session.SenderKey, session.RoomID, session.FirstKnownIndex,
			session.Pickle, chain, session.Trusted, session.UpdatedAt)
	}

	query, args, err := insert.Suffix(`ON CONFLICT (session_id, sender_key) DO UPDATE SET
			room_id = excluded.room_id,
			first_known_index = excluded.first_known_index,
			pickle = excluded.pickle,
			forwarding_chain = excluded.forwarding_chain,
			trusted = excluded.trusted,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := i.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "inboundSessionRepository.StoreInboundGroupSessions").
			Int("count", len(sessions)).
			Msg("failed to upsert inbound group sessions")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
