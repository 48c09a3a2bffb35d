package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

// sharedSessionRepository is the SQLite implementation of
// [SharedSessionStore].
type sharedSessionRepository struct {
	*DB
	logger *logger.Logger
}

// NewSharedSessionRepository constructs a [SharedSessionStore] backed by db.
func NewSharedSessionRepository(db *DB, logger *logger.Logger) SharedSessionStore {
	return &sharedSessionRepository{DB: db, logger: logger}
}

func (s *sharedSessionRepository) GetSharedSessionInfo(ctx context.Context, roomID, sessionID, userID, deviceID string) (models.SharedSessionInfo, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.Select("chain_index").
		From("shared_sessions").
		Where(sq.Eq{"room_id": roomID, "session_id": sessionID, "user_id": userID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return models.SharedSessionInfo{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var chainIndex sql.NullInt64
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&chainIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SharedSessionInfo{Found: false}, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "sharedSessionRepository.GetSharedSessionInfo").
			Str("session_id", sessionID).
			Str("device_id", deviceID).
			Msg("failed to query shared session")
		return models.SharedSessionInfo{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	info := models.SharedSessionInfo{Found: true}
	if chainIndex.Valid {
		idx := int(chainIndex.Int64)
		info.ChainIndex = &idx
	}
	return info, nil
}

// MarkSharedWithDevice records a share. An existing record keeps the lowest
// chain index ever shared.
func (s *sharedSessionRepository) MarkSharedWithDevice(ctx context.Context, roomID, sessionID, userID, deviceID string, chainIndex int) error {
	log := logger.FromContext(ctx)

	query, args, err := builder.Insert("shared_sessions").
		Columns("room_id", "session_id", "user_id", "device_id", "chain_index").
		Values(roomID, sessionID, userID, deviceID, chainIndex).
		Suffix("ON CONFLICT (room_id, session_id, user_id, device_id) DO UPDATE SET chain_index = MIN(chain_index, excluded.chain_index)").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sharedSessionRepository.MarkSharedWithDevice").
			Str("session_id", sessionID).
			Str("device_id", deviceID).
			Msg("failed to record shared session")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
