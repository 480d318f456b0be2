package events

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
)

var requiredFields = []string{"id", "pubkey", "created_at", "kind", "tags", "content", "sig"}

type hexFields struct {
	ID     string `validate:"len=64,hexstring"`
	PubKey string `validate:"len=64,hexstring"`
	Sig    string `validate:"len=128,hexstring"`
}

var hexFieldErrors = map[string]string{
	"ID":     "invalid id (must be 32-byte hex / 64 chars)",
	"PubKey": "invalid pubkey (must be 32-byte hex / 64 chars, x-only)",
	"Sig":    "invalid sig (must be 64-byte hex / 128 chars)",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// hexadecimal from the validator package also accepts a 0x prefix
	if err := v.RegisterValidation("hexstring", isHexString); err != nil {
		panic(err)
	}
	return v
}

func isHexString(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// ValidateShape performs the purely syntactic checks on a raw event object.
// It never touches the signature and is meant to run before any hashing.
func ValidateShape(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return malformed("event must be an object")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return malformed("event must be an object")
	}
	for _, field := range requiredFields {
		if !obj.Get(field).Exists() {
			return malformed("missing field: %s", field)
		}
	}

	id, pubkey, sig := obj.Get("id"), obj.Get("pubkey"), obj.Get("sig")
	switch {
	case id.Type != gjson.String:
		return malformed("%s", hexFieldErrors["ID"])
	case pubkey.Type != gjson.String:
		return malformed("%s", hexFieldErrors["PubKey"])
	case sig.Type != gjson.String:
		return malformed("%s", hexFieldErrors["Sig"])
	}
	err := validate.Struct(hexFields{ID: id.Str, PubKey: pubkey.Str, Sig: sig.Str})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return malformed("%s", hexFieldErrors[verrs[0].Field()])
		}
		return malformed("%v", err)
	}

	if !isInteger(obj.Get("created_at")) {
		return malformed("created_at must be int")
	}
	if !isInteger(obj.Get("kind")) {
		return malformed("kind must be int")
	}
	if !isTagList(obj.Get("tags")) {
		return malformed("tags must be a list of string lists")
	}
	if obj.Get("content").Type != gjson.String {
		return malformed("content must be string")
	}
	return nil
}

// ParseEvent validates the shape of a raw event and decodes it.
func ParseEvent(raw []byte) (*nostr.Event, error) {
	if err := ValidateShape(raw); err != nil {
		return nil, err
	}
	ev := &nostr.Event{}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, malformed("%v", err)
	}
	return ev, nil
}

func isInteger(r gjson.Result) bool {
	if r.Type != gjson.Number {
		return false
	}
	_, err := strconv.ParseInt(r.Raw, 10, 64)
	return err == nil
}

func isTagList(r gjson.Result) bool {
	if !r.IsArray() {
		return false
	}
	for _, tag := range r.Array() {
		if !tag.IsArray() {
			return false
		}
		for _, item := range tag.Array() {
			if item.Type != gjson.String {
				return false
			}
		}
	}
	return true
}
