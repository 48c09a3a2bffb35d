package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid homeserver adapter settings
	// (for example, missing URL or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAccountConfigs indicates a missing or malformed user id or
	// device id.
	ErrInvalidAccountConfigs = errors.New("invalid account configuration")
	// ErrInvalidCryptoConfigs indicates invalid gossiping policy values.
	ErrInvalidCryptoConfigs = errors.New("invalid crypto configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sync timeout).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
