package service

import "errors"

var (
	ErrKeysDownloadFailed  = errors.New("device keys download failed")
	ErrNoBackupKey         = errors.New("no recovery key set for key backup")
	ErrNoBackup            = errors.New("no key backup on the homeserver")
	ErrUntrustedBackup     = errors.New("recovery key does not match the key backup")
	ErrUnsupportedBackup   = errors.New("unsupported key backup algorithm")
	ErrInvalidBackupData   = errors.New("invalid backed up session")
	ErrSessionRoomMismatch = errors.New("session does not belong to the room")
	ErrCacheClosed         = errors.New("session cache is closed")
	ErrInvalidUserID       = errors.New("invalid user id")
)
