package events

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
)

// CanonicalPreimage returns the bytes an event id is the hash of:
// [0,<pubkey>,<created_at>,<kind>,<tags>,<content>] with no whitespace.
func CanonicalPreimage(ev *nostr.Event) []byte {
	return ev.Serialize()
}

// DeriveID hashes the canonical preimage and returns it lowercase hex encoded.
func DeriveID(ev *nostr.Event) string {
	h := sha256.Sum256(CanonicalPreimage(ev))
	return hex.EncodeToString(h[:])
}

// ClaimedID reads the id a client put on a raw event without validating it,
// so that rejections can still name the event they refer to.
func ClaimedID(raw []byte) string {
	return gjson.GetBytes(raw, "id").String()
}
