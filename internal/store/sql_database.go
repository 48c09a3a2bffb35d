package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/migrations"
)

// DB is the SQLite connection shared by every repository.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// NewDB wraps an already opened connection.
func NewDB(conn *sql.DB, log *logger.Logger) *DB {
	return &DB{DB: conn, logger: log}
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}

// SchemaVersion returns the applied schema version.
func (db *DB) SchemaVersion() (int64, error) {
	return migrations.Version(db.DB)
}

// builder produces SQLite ("?") placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
