package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
)

type roomRepository struct {
	*DB
	logger *logger.Logger
}

// NewRoomRepository constructs a [RoomStore] backed by db.
func NewRoomRepository(db *DB, logger *logger.Logger) RoomStore {
	return &roomRepository{DB: db, logger: logger}
}

func (r *roomRepository) GetRoomAlgorithm(ctx context.Context, roomID string) (string, error) {
	query, args, err := builder.Select("algorithm").From("rooms").Where(sq.Eq{"room_id": roomID}).ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var algorithm string
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&algorithm)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "roomRepository.GetRoomAlgorithm").
			Str("room_id", roomID).
			Msg("failed to query room algorithm")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return algorithm, nil
}

func (r *roomRepository) SetRoomAlgorithm(ctx context.Context, roomID, algorithm string) error {
	query, args, err := builder.Insert("rooms").
		Columns("room_id", "algorithm").
		Values(roomID, algorithm).
		Suffix("ON CONFLICT (room_id) DO UPDATE SET algorithm = excluded.algorithm").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "roomRepository.SetRoomAlgorithm").
			Str("room_id", roomID).
			Msg("failed to store room algorithm")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
