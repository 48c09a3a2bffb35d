package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrDeviceNotFound is returned when a device lookup matches no row.
	ErrDeviceNotFound = errors.New("device was not found")

	// ErrSessionNotFound is returned when an inbound group session is unknown.
	ErrSessionNotFound = errors.New("inbound group session was not found")

	// ErrKeyRequestNotSaved is returned when an upsert of an outgoing key
	// request affects no row.
	ErrKeyRequestNotSaved = errors.New("outgoing key request was not saved")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRows is returned when scanning column values fails.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrEncodingBlob is returned when a CBOR column cannot be encoded or
	// decoded.
	ErrEncodingBlob = errors.New("failed to encode cbor column")
)
