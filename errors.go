package hywire

import (
	"errors"

	"github.com/hywire/hywire/lib/encoding"
)

// Sentinel errors for runtime operations.
var (
	ErrTargetNotFound   = errors.New("hywire: swap target not found")
	ErrNoRuntime        = errors.New("hywire: root has not been enhanced")
	ErrInvalidFormat    = errors.New("hywire: invalid snapshot format")
	ErrSignatureInvalid = errors.New("hywire: snapshot signature verification failed")
	ErrDecryptFailed    = errors.New("hywire: snapshot decryption failed")
)

// IsSnapshotError checks if err came from decoding a signal snapshot
// token (tampered, truncated, or wrong key).
func IsSnapshotError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrDecryptFailed)
}

// wrapEncodingError maps encoding package errors to hywire sentinels.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) {
		return ErrInvalidFormat
	}
	if errors.Is(err, encoding.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, encoding.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}
