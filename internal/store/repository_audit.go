package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

// auditRepository is the SQLite implementation of [AuditStore].
type auditRepository struct {
	*DB
	logger *logger.Logger
}

// NewAuditRepository constructs an [AuditStore] backed by db.
func NewAuditRepository(db *DB, logger *logger.Logger) AuditStore {
	return &auditRepository{DB: db, logger: logger}
}

func (a *auditRepository) SaveGossipAudit(ctx context.Context, entry models.GossipAuditEntry) error {
	log := logger.FromContext(ctx)

	var chainIndex any
	if entry.ChainIndex != nil {
		chainIndex = *entry.ChainIndex
	}

	query, args, err := builder.Insert("gossip_audit").
		Columns("kind", "room_id", "session_id", "sender_key", "algorithm", "user_id", "device_id", "code", "chain_index", "at").
		Values(string(entry.Kind), entry.RoomID, entry.SessionID, entry.SenderKey, entry.Algorithm,
			entry.UserID, entry.DeviceID, string(entry.Code), chainIndex, entry.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := a.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "auditRepository.SaveGossipAudit").
			Str("kind", string(entry.Kind)).
			Str("session_id", entry.SessionID).
			Msg("failed to insert audit entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (a *auditRepository) ListGossipAudit(ctx context.Context, limit int) ([]models.GossipAuditEntry, error) {
	log := logger.FromContext(ctx)

	q := builder.
		Select("id", "kind", "room_id", "session_id", "sender_key", "algorithm", "user_id", "device_id", "code", "chain_index", "at").
		From("gossip_audit").
		OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "auditRepository.ListGossipAudit").Msg("failed to query audit entries")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.GossipAuditEntry
	for rows.Next() {
		var (
			entry      models.GossipAuditEntry
			kind, code string
			chainIndex sql.NullInt64
		)
		err := rows.Scan(&entry.ID, &kind, &entry.RoomID, &entry.SessionID, &entry.SenderKey, &entry.Algorithm,
			&entry.UserID, &entry.DeviceID, &code, &chainIndex, &entry.At)
		if err != nil {
			log.Err(err).Str("func", "auditRepository.ListGossipAudit").Msg("failed to scan audit row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entry.Kind = models.GossipAuditKind(kind)
		entry.Code = models.WithHeldCode(code)
		if chainIndex.Valid {
			idx := int(chainIndex.Int64)
			entry.ChainIndex = &idx
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}
