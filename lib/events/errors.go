package events

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEvent   = errors.New("malformed event")
	ErrIDMismatch       = errors.New("id does not match computed id")
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrSignatureVerify is returned when the key or signature could not be
	// processed at all; the underlying cause is wrapped alongside it.
	ErrSignatureVerify = errors.New("signature verify error")
)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// Reason maps a rejection to a short metrics label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMalformedEvent):
		return "malformed"
	case errors.Is(err, ErrIDMismatch):
		return "id_mismatch"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrSignatureVerify):
		return "verify_error"
	default:
		return "unknown"
	}
}
