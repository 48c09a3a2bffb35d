package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

var outgoingKeyRequestColumns = []string{
	"request_id", "room_id", "session_id", "sender_key", "algorithm",
	"recipients", "from_index", "state", "replies", "created_at",
}

// outgoingKeyRequestRepository is the SQLite implementation of
// [OutgoingKeyRequestStore].
type outgoingKeyRequestRepository struct {
	*DB
	logger *logger.Logger
}

// NewOutgoingKeyRequestRepository constructs an [OutgoingKeyRequestStore]
// backed by db.
func NewOutgoingKeyRequestRepository(db *DB, logger *logger.Logger) OutgoingKeyRequestStore {
	return &outgoingKeyRequestRepository{DB: db, logger: logger}
}

func (o *outgoingKeyRequestRepository) GetOutgoingKeyRequests(ctx context.Context, body models.RoomKeyRequestBody) ([]*models.OutgoingKeyRequest, error) {
	return o.selectRequests(ctx, "outgoingKeyRequestRepository.GetOutgoingKeyRequests", sq.Eq{
		"room_id":    body.RoomID,
		"session_id": body.SessionID,
		"sender_key": body.SenderKey,
		"algorithm":  body.Algorithm,
	})
}

func (o *outgoingKeyRequestRepository) GetOutgoingKeyRequestsForSession(ctx context.Context, roomID, sessionID, senderKey string) ([]*models.OutgoingKeyRequest, error) {
	return o.selectRequests(ctx, "outgoingKeyRequestRepository.GetOutgoingKeyRequestsForSession", sq.Eq{
		"room_id":    roomID,
		"session_id": sessionID,
		"sender_key": senderKey,
	})
}

func (o *outgoingKeyRequestRepository) GetOutgoingKeyRequestsByState(ctx context.Context, states ...models.OutgoingKeyRequestState) ([]*models.OutgoingKeyRequest, error) {
	where := sq.Eq{}
	if len(states) > 0 {
		values := make([]int, 0, len(states))
		for _, state := range states {
			values = append(values, int(state))
		}
		where["state"] = values
	}
	return o.selectRequests(ctx, "outgoingKeyRequestRepository.GetOutgoingKeyRequestsByState", where)
}

func (o *outgoingKeyRequestRepository) SaveOutgoingKeyRequest(ctx context.Context, req *models.OutgoingKeyRequest) error {
	log := logger.FromContext(ctx)

	recipients, err := encodeBlob(req.Recipients)
	if err != nil {
		return err
	}
	replies, err := encodeBlob(req.Replies)
	if err != nil {
		return err
	}

	query, args, err := builder.Insert("outgoing_key_requests").
		Columns(outgoingKeyRequestColumns...).
		Values(
			req.RequestID, req.Body.RoomID, req.Body.SessionID, req.Body.SenderKey, req.Body.Algorithm,
			recipients, req.FromIndex, int(req.State), replies, req.CreatedAt,
		).
		Suffix(`ON CONFLICT (request_id) DO UPDATE SET
			recipients = excluded.recipients,
			from_index = excluded.from_index,
			state = excluded.state,
			replies = excluded.replies`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := o.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "outgoingKeyRequestRepository.SaveOutgoingKeyRequest").
			Str("request_id", req.RequestID).
			Msg("failed to upsert outgoing key request")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrKeyRequestNotSaved
	}

	return nil
}

func (o *outgoingKeyRequestRepository) DeleteOutgoingKeyRequest(ctx context.Context, requestID string) error {
	_, err := o.delete(ctx, "outgoingKeyRequestRepository.DeleteOutgoingKeyRequest", sq.Eq{"request_id": requestID})
	return err
}

func (o *outgoingKeyRequestRepository) DeleteOutgoingKeyRequestsByState(ctx context.Context, state models.OutgoingKeyRequestState) (int64, error) {
	return o.delete(ctx, "outgoingKeyRequestRepository.DeleteOutgoingKeyRequestsByState", sq.Eq{"state": int(state)})
}

func (o *outgoingKeyRequestRepository) delete(ctx context.Context, funcName string, where sq.Eq) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.Delete("outgoing_key_requests").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := o.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to delete outgoing key requests")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

func (o *outgoingKeyRequestRepository) selectRequests(ctx context.Context, funcName string, where sq.Eq) ([]*models.OutgoingKeyRequest, error) {
	log := logger.FromContext(ctx)

	q := builder.Select(outgoingKeyRequestColumns...).From("outgoing_key_requests")
	if len(where) > 0 {
		q = q.Where(where)
	}
	query, args, err := q.OrderBy("created_at", "request_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := o.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to query outgoing key requests")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var requests []*models.OutgoingKeyRequest
	for rows.Next() {
		req, err := scanOutgoingKeyRequest(rows)
		if err != nil {
			log.Err(err).Str("func", funcName).Msg("failed to scan outgoing key request row")
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return requests, nil
}

func scanOutgoingKeyRequest(rows *sql.Rows) (*models.OutgoingKeyRequest, error) {
	var (
		req                 models.OutgoingKeyRequest
		recipients, replies []byte
		state               int
	)

	err := rows.Scan(
		&req.RequestID, &req.Body.RoomID, &req.Body.SessionID, &req.Body.SenderKey, &req.Body.Algorithm,
		&recipients, &req.FromIndex, &state, &replies, &req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	req.State = models.OutgoingKeyRequestState(state)

	if err := decodeBlob(recipients, &req.Recipients); err != nil {
		return nil, err
	}
	if err := decodeBlob(replies, &req.Replies); err != nil {
		return nil, err
	}

	return &req, nil
}
