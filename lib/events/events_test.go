package events

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedEvent(t *testing.T, kind int, createdAt int64, content string) nostr.Event {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	ev := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Timestamp(createdAt),
		Kind:      kind,
		Tags:      nostr.Tags{{"t", "relay"}},
		Content:   content,
	}
	require.NoError(t, ev.Sign(sk))
	return ev
}

func rawEvent(t *testing.T, ev nostr.Event) []byte {
	t.Helper()
	raw, err := json.Marshal(&ev)
	require.NoError(t, err)
	return raw
}

// replaceField swaps one top level field of a raw event for a new JSON value.
func replaceField(t *testing.T, raw []byte, field string, value string) []byte {
	t.Helper()
	m := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(raw, &m))
	if value == "" {
		delete(m, field)
	} else {
		m[field] = json.RawMessage(value)
	}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return out
}

func TestCanonicalPreimage(t *testing.T) {
	ev := &nostr.Event{
		PubKey:    strings.Repeat("ab", 32),
		CreatedAt: 1700000000,
		Kind:      1,
		Tags:      nostr.Tags{{"e", "x"}},
		Content:   "hi",
	}
	expected := `[0,"` + strings.Repeat("ab", 32) + `",1700000000,1,[["e","x"]],"hi"]`
	assert.Equal(t, expected, string(CanonicalPreimage(ev)))
	assert.Len(t, DeriveID(ev), 64)
	assert.Equal(t, DeriveID(ev), DeriveID(ev))
}

func TestCanonicalPreimageEscaping(t *testing.T) {
	ev := &nostr.Event{
		PubKey:    strings.Repeat("ab", 32),
		CreatedAt: 1700000000,
		Kind:      1,
		Tags:      nostr.Tags{{"e", "x"}, {"t", "\té"}},
		Content:   "line\nquote\"back\\ctl\x01 café 🌱",
	}
	expected := `[0,"` + strings.Repeat("ab", 32) + `",1700000000,1,[["e","x"],["t","\té"]],"line\nquote\"back\\ctl\u0001 café 🌱"]`
	assert.Equal(t, expected, string(CanonicalPreimage(ev)))
	assert.Equal(t, "aa8dc14e62faaac86f4844c84088980519ed5e5c4b70cf4c89abc09cfed4ab91", DeriveID(ev))
}

func TestVerifyAcceptsSignedEvent(t *testing.T) {
	ev := signedEvent(t, 1, 1700000000, "hello relay")
	assert.Equal(t, ev.ID, DeriveID(&ev))

	ok, reason := Verify(rawEvent(t, ev))
	assert.True(t, ok)
	assert.Equal(t, "ok", reason)
}

func TestVerifyDetectsMutatedFields(t *testing.T) {
	ev := signedEvent(t, 1, 1700000000, "hello relay")
	other := signedEvent(t, 1, 1700000000, "other")

	mutations := map[string]func(e *nostr.Event){
		"pubkey":     func(e *nostr.Event) { e.PubKey = other.PubKey },
		"created_at": func(e *nostr.Event) { e.CreatedAt++ },
		"kind":       func(e *nostr.Event) { e.Kind = 7 },
		"tags":       func(e *nostr.Event) { e.Tags = nostr.Tags{{"p", other.PubKey}} },
		"content":    func(e *nostr.Event) { e.Content = "hello relay!" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			mutated := ev
			mutate(&mutated)
			_, err := CheckEvent(rawEvent(t, mutated))
			assert.ErrorIs(t, err, ErrIDMismatch)
		})
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ev := signedEvent(t, 1, 1700000000, "hello relay")
	other := signedEvent(t, 1, 1700000000, "hello relay")
	ev.Sig = other.Sig

	_, err := CheckEvent(rawEvent(t, ev))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, "invalid_signature", Reason(err))
}

func TestVerifyReportsUnparseableKey(t *testing.T) {
	// not an x coordinate on the curve: larger than the field prime
	ev := nostr.Event{
		PubKey:    strings.Repeat("ff", 32),
		CreatedAt: 1700000000,
		Kind:      1,
		Tags:      nostr.Tags{},
		Content:   "x",
		Sig:       strings.Repeat("00", 64),
	}
	ev.ID = DeriveID(&ev)

	_, err := CheckEvent(rawEvent(t, ev))
	assert.ErrorIs(t, err, ErrSignatureVerify)
	assert.True(t, strings.HasPrefix(err.Error(), "signature verify error: "))
}

func TestValidateShape(t *testing.T) {
	raw := rawEvent(t, signedEvent(t, 1, 1700000000, "shape"))
	assert.NoError(t, ValidateShape(raw))

	cases := []struct {
		name   string
		raw    []byte
		reason string
	}{
		{"not an object", []byte(`["EVENT"]`), "event must be an object"},
		{"missing sig", replaceField(t, raw, "sig", ""), "missing field: sig"},
		{"missing tags", replaceField(t, raw, "tags", ""), "missing field: tags"},
		{"short id", replaceField(t, raw, "id", `"abcd"`), "invalid id"},
		{"prefixed id", replaceField(t, raw, "id", `"0x`+strings.Repeat("a", 62)+`"`), "invalid id"},
		{"numeric pubkey", replaceField(t, raw, "pubkey", `12`), "invalid pubkey"},
		{"non hex sig", replaceField(t, raw, "sig", `"`+strings.Repeat("z", 128)+`"`), "invalid sig"},
		{"float created_at", replaceField(t, raw, "created_at", `1.5`), "created_at must be int"},
		{"string kind", replaceField(t, raw, "kind", `"1"`), "kind must be int"},
		{"flat tags", replaceField(t, raw, "tags", `["e","x"]`), "tags must be"},
		{"numeric tag item", replaceField(t, raw, "tags", `[["e",1]]`), "tags must be"},
		{"object content", replaceField(t, raw, "content", `{}`), "content must be string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateShape(tc.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEvent))
			assert.Contains(t, err.Error(), tc.reason)

			ok, reason := Verify(tc.raw)
			assert.False(t, ok)
			assert.Equal(t, err.Error(), reason)
		})
	}
}

func TestClaimedID(t *testing.T) {
	assert.Equal(t, "abc", ClaimedID([]byte(`{"id":"abc"}`)))
	assert.Equal(t, "", ClaimedID([]byte(`{"content":"x"}`)))
}

func TestMatches(t *testing.T) {
	since := nostr.Timestamp(100)
	until := nostr.Timestamp(200)
	ev := &nostr.Event{PubKey: "alice", Kind: 1, CreatedAt: 150}

	assert.True(t, Matches(ev, &nostr.Filter{}))
	assert.True(t, Matches(ev, &nostr.Filter{Kinds: []int{1, 3}}))
	assert.False(t, Matches(ev, &nostr.Filter{Kinds: []int{3}}))
	assert.True(t, Matches(ev, &nostr.Filter{Authors: []string{"alice"}}))
	assert.False(t, Matches(ev, &nostr.Filter{Authors: []string{"bob"}}))
	assert.True(t, Matches(ev, &nostr.Filter{Since: &since, Until: &until}))

	atBound := &nostr.Event{Kind: 1, CreatedAt: 200}
	assert.True(t, Matches(atBound, &nostr.Filter{Until: &until}))
	assert.True(t, Matches(&nostr.Event{CreatedAt: 100}, &nostr.Filter{Since: &since}))
	assert.False(t, Matches(&nostr.Event{CreatedAt: 99}, &nostr.Filter{Since: &since}))
	assert.False(t, Matches(&nostr.Event{CreatedAt: 201}, &nostr.Filter{Until: &until}))

	// ids and tags never constrain
	assert.True(t, Matches(ev, &nostr.Filter{IDs: []string{"nope"}, Tags: nostr.TagMap{"p": []string{"bob"}}}))

	assert.True(t, MatchesAny(ev, nostr.Filters{{Kinds: []int{3}}, {Kinds: []int{1}}}))
	assert.False(t, MatchesAny(ev, nostr.Filters{{Kinds: []int{3}}, {Authors: []string{"bob"}}}))
	assert.False(t, MatchesAny(ev, nil))
}
