package events

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/nbd-wtf/go-nostr"
)

// CheckEvent runs the full ingestion check on a raw event object: shape,
// id recomputation and signature, in that order. The decoded event is
// returned whenever decoding itself succeeded.
func CheckEvent(raw []byte) (*nostr.Event, error) {
	ev, err := ParseEvent(raw)
	if err != nil {
		return nil, err
	}
	return ev, VerifySignature(ev)
}

// Verify reports (true, "ok") for an acceptable raw event and otherwise
// false together with the rejection reason.
func Verify(raw []byte) (bool, string) {
	if _, err := CheckEvent(raw); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}

// VerifySignature checks that ev.ID is the hash of the event and that ev.Sig
// is a BIP-340 signature of that id under the x-only key ev.PubKey.
func VerifySignature(ev *nostr.Event) error {
	if DeriveID(ev) != ev.ID {
		return ErrIDMismatch
	}

	pkBytes, err := hex.DecodeString(ev.PubKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureVerify, err)
	}
	// x-only keys are lifted to the point with an even Y coordinate
	pubKey, err := schnorr.ParsePubKey(pkBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureVerify, err)
	}

	sigBytes, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureVerify, err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	msg, err := hex.DecodeString(ev.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureVerify, err)
	}
	if !sig.Verify(msg, pubKey) {
		return ErrInvalidSignature
	}
	return nil
}
