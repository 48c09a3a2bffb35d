package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

var deviceColumns = []string{
	"user_id", "device_id", "algorithms", "keys", "signatures", "unsigned",
	"locally_verified", "cross_signing_verified", "blocked", "first_time_seen",
}

// deviceRepository is the SQLite implementation of [DeviceStore].
type deviceRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeviceRepository constructs a [DeviceStore] backed by db.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceStore {
	return &deviceRepository{DB: db, logger: logger}
}

func (d *deviceRepository) GetDeviceTrackingStatuses(ctx context.Context) (map[string]models.DeviceTrackingStatus, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.Select("user_id", "status").From("device_tracking").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "deviceRepository.GetDeviceTrackingStatuses").Msg("failed to query tracking statuses")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	statuses := make(map[string]models.DeviceTrackingStatus)
	for rows.Next() {
		var (
			userID string
			status int
		)
		if err := rows.Scan(&userID, &status); err != nil {
			log.Err(err).Str("func", "deviceRepository.GetDeviceTrackingStatuses").Msg("failed to scan tracking status row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		statuses[userID] = models.DeviceTrackingStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return statuses, nil
}

// SaveDeviceTrackingStatuses replaces the whole tracking table. Users with
// status NotTracked are not stored.
func (d *deviceRepository) SaveDeviceTrackingStatuses(ctx context.Context, statuses map[string]models.DeviceTrackingStatus) error {
	log := logger.FromContext(ctx)

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "deviceRepository.SaveDeviceTrackingStatuses").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM device_tracking"); err != nil {
		log.Err(err).Str("func", "deviceRepository.SaveDeviceTrackingStatuses").Msg("failed to clear tracking statuses")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	insert := builder.Insert("device_tracking").Columns("user_id", "status")
	n := 0
	for userID, status := range statuses {
		if status == models.TrackingStatusNotTracked {
			continue
		}
		insert = insert.Values(userID, int(status))
		n++
	}

	if n > 0 {
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Str("func", "deviceRepository.SaveDeviceTrackingStatuses").Int("count", n).Msg("failed to insert tracking statuses")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "deviceRepository.SaveDeviceTrackingStatuses").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (d *deviceRepository) GetUserDevice(ctx context.Context, userID, deviceID string) (*models.DeviceRecord, error) {
	devices, err := d.selectDevices(ctx, sq.Eq{"user_id": userID, "device_id": deviceID})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}
	return devices[0], nil
}

func (d *deviceRepository) GetUserDevices(ctx context.Context, userID string) (map[string]*models.DeviceRecord, error) {
	devices, err := d.selectDevices(ctx, sq.Eq{"user_id": userID})
	if err != nil {
		return nil, err
	}

	result := make(map[string]*models.DeviceRecord, len(devices))
	for _, device := range devices {
		result[device.DeviceID] = device
	}
	return result, nil
}

func (d *deviceRepository) StoreUserDevices(ctx context.Context, userID string, devices map[string]*models.DeviceRecord) error {
	log := logger.FromContext(ctx)

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "deviceRepository.StoreUserDevices").Str("user_id", userID).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, err := builder.Delete("devices").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "deviceRepository.StoreUserDevices").Str("user_id", userID).Msg("failed to delete old devices")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if len(devices) > 0 {
		insert := builder.Insert("devices").Columns(deviceColumns...)
		for _, device := range devices {
			values, err := deviceValues(device)
			if err != nil {
				return err
			}
			insert = insert.Values(values...)
		}

		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Str("func", "deviceRepository.StoreUserDevices").Str("user_id", userID).Int("count", len(devices)).Msg("failed to insert devices")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "deviceRepository.StoreUserDevices").Str("user_id", userID).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (d *deviceRepository) SetDeviceTrust(ctx context.Context, userID, deviceID string, trust models.DeviceTrustLevel) error {
	return d.updateDevice(ctx, "deviceRepository.SetDeviceTrust", userID, deviceID, map[string]any{
		"locally_verified":       trust.LocallyVerified,
		"cross_signing_verified": trust.CrossSigningVerified,
	})
}

func (d *deviceRepository) SetDeviceBlocked(ctx context.Context, userID, deviceID string, blocked bool) error {
	return d.updateDevice(ctx, "deviceRepository.SetDeviceBlocked", userID, deviceID, map[string]any{
		"blocked": blocked,
	})
}

func (d *deviceRepository) updateDevice(ctx context.Context, funcName, userID, deviceID string, set map[string]any) error {
	log := logger.FromContext(ctx)

	query, args, err := builder.Update("devices").
		SetMap(set).
		Where(sq.Eq{"user_id": userID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := d.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Str("user_id", userID).Str("device_id", deviceID).Msg("failed to update device")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

func (d *deviceRepository) selectDevices(ctx context.Context, where sq.Eq) ([]*models.DeviceRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.Select(deviceColumns...).From("devices").Where(where).OrderBy("device_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "deviceRepository.selectDevices").Msg("failed to query devices")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var devices []*models.DeviceRecord
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			log.Err(err).Str("func", "deviceRepository.selectDevices").Msg("failed to scan device row")
			return nil, err
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return devices, nil
}

func deviceValues(device *models.DeviceRecord) ([]any, error) {
	algorithms, err := encodeBlob(device.Algorithms)
	if err != nil {
		return nil, err
	}
	keys, err := encodeBlob(device.Keys)
	if err != nil {
		return nil, err
	}
	signatures, err := encodeBlob(device.Signatures)
	if err != nil {
		return nil, err
	}

	var firstSeen any
	if !device.FirstTimeSeen.IsZero() {
		firstSeen = device.FirstTimeSeen
	}

	return []any{
		device.UserID, device.DeviceID, algorithms, keys, signatures, []byte(device.Unsigned),
		device.Trust.LocallyVerified, device.Trust.CrossSigningVerified, device.Blocked, firstSeen,
	}, nil
}

func scanDevice(rows *sql.Rows) (*models.DeviceRecord, error) {
	var (
		device                           models.DeviceRecord
		algorithms, keys, sigs, unsigned []byte
		firstSeen                        sql.NullTime
	)

	err := rows.Scan(
		&device.UserID, &device.DeviceID, &algorithms, &keys, &sigs, &unsigned,
		&device.Trust.LocallyVerified, &device.Trust.CrossSigningVerified, &device.Blocked, &firstSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	if err := decodeBlob(algorithms, &device.Algorithms); err != nil {
		return nil, err
	}
	if err := decodeBlob(keys, &device.Keys); err != nil {
		return nil, err
	}
	if err := decodeBlob(sigs, &device.Signatures); err != nil {
		return nil, err
	}
	if len(unsigned) > 0 {
		device.Unsigned = unsigned
	}
	if firstSeen.Valid {
		device.FirstTimeSeen = firstSeen.Time
	}

	return &device, nil
}
