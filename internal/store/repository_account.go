package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
)

// Account keys.
const (
	AccountKeyUserID           = "user_id"
	AccountKeyDeviceID         = "device_id"
	AccountKeyGossipingEnabled = "gossiping_enabled"
	AccountKeySyncToken        = "sync_token"
)

type accountRepository struct {
	*DB
	logger *logger.Logger
}

// NewAccountRepository constructs an [AccountStore] backed by db.
func NewAccountRepository(db *DB, logger *logger.Logger) AccountStore {
	return &accountRepository{DB: db, logger: logger}
}

func (a *accountRepository) GetAccountValue(ctx context.Context, key string) (string, bool, error) {
	query, args, err := builder.Select("value").From("account").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value string
	err = a.DB.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "accountRepository.GetAccountValue").Str("key", key).Msg("failed to query account value")
		return "", false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, true, nil
}

func (a *accountRepository) SetAccountValue(ctx context.Context, key, value string) error {
	query, args, err := builder.Insert("account").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := a.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "accountRepository.SetAccountValue").Str("key", key).Msg("failed to store account value")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
