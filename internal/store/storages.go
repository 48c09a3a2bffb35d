package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
)

// Storages groups every repository of the local crypto store into a single
// value that can be passed around the service layer.
type Storages struct {
	DB *DB

	Devices         DeviceStore
	OutgoingKeys    OutgoingKeyRequestStore
	Audit           AuditStore
	InboundSessions InboundSessionStore
	SharedSessions  SharedSessionStore
	Rooms           RoomStore
	Account         AccountStore
}

// NewStorages initialises the storage layer:
//  1. Opens an SQLite connection to cfg.DB.DSN, creating the file if needed.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Wires every repository to the connection.
func NewStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewStoragesFromDB(db, log), nil
}

// NewStoragesFromDB wires the repositories to an existing connection without
// migrating it.
func NewStoragesFromDB(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		DB:              db,
		Devices:         NewDeviceRepository(db, log),
		OutgoingKeys:    NewOutgoingKeyRequestRepository(db, log),
		Audit:           NewAuditRepository(db, log),
		InboundSessions: NewInboundSessionRepository(db, log),
		SharedSessions:  NewSharedSessionRepository(db, log),
		Rooms:           NewRoomRepository(db, log),
		Account:         NewAccountRepository(db, log),
	}
}

// Close closes the underlying connection.
func (s *Storages) Close() error {
	return s.DB.Close()
}
