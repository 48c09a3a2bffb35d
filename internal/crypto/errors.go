package crypto

import "errors"

var (
	// ErrNoOneTimeKey is returned by [Engine.EstablishChannel] when the target
	// device has no one-time key left.
	ErrNoOneTimeKey = errors.New("no one-time key available for device")

	// ErrEngineUnavailable is returned by engines that hold no session
	// secrets.
	ErrEngineUnavailable = errors.New("olm engine not available")

	ErrInvalidSignature = errors.New("invalid ed25519 signature")

	ErrInvalidCiphertext      = errors.New("invalid megolm ciphertext")
	ErrUnsupportedVersion     = errors.New("unsupported megolm message version")
	ErrMissingMessageIndex    = errors.New("megolm message has no index")
	ErrInvalidSignableJSON    = errors.New("payload is not a json object")
	ErrInvalidBackupKey       = errors.New("invalid backup key")
	ErrBackupMACMismatch      = errors.New("backup session data mac mismatch")
	ErrInvalidBackupPadding   = errors.New("invalid backup session data padding")
	ErrInvalidBackupEncoding  = errors.New("invalid base64 in backup session data")
	ErrInvalidPassphraseParam = errors.New("invalid passphrase derivation parameters")
)
