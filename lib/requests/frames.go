package requests

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
)

const (
	LabelEvent = "EVENT"
	LabelReq   = "REQ"
	LabelClose = "CLOSE"
)

// Frame is one decoded client message: Publish, Subscribe or Close.
type Frame interface {
	Label() string
}

// Publish carries the event object exactly as received; it is verified
// by the relay, not by the decoder.
type Publish struct {
	Event json.RawMessage
}

type Subscribe struct {
	SubscriptionID string
	Filters        nostr.Filters
}

type Close struct {
	SubscriptionID string
}

func (Publish) Label() string   { return LabelEvent }
func (Subscribe) Label() string { return LabelReq }
func (Close) Label() string     { return LabelClose }

// ProtocolError describes a frame that could not be understood. It is
// reported back to the client as a notice and never closes the connection.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return e.Reason
}

func violation(format string, args ...interface{}) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// Decode parses one text message into a Frame.
func Decode(raw []byte) (Frame, error) {
	if !gjson.ValidBytes(raw) {
		return nil, violation("invalid JSON")
	}
	msg := gjson.ParseBytes(raw)
	if !msg.IsArray() {
		return nil, violation("invalid message format")
	}
	elems := msg.Array()
	if len(elems) == 0 {
		return nil, violation("invalid message format")
	}

	label := elems[0]
	if label.Type != gjson.String {
		return nil, violation("unsupported message type: %s", label.Raw)
	}
	switch label.Str {
	case LabelEvent:
		if len(elems) != 2 || !elems[1].IsObject() {
			return nil, violation(`EVENT must be ["EVENT", <event_object>]`)
		}
		return Publish{Event: json.RawMessage(elems[1].Raw)}, nil

	case LabelReq:
		if len(elems) < 3 || elems[1].Type != gjson.String {
			return nil, violation(`REQ must be ["REQ", <sub_id>, <filter...>]`)
		}
		if elems[1].Str == "" {
			return nil, violation("REQ missing subscription id")
		}
		filters := nostr.Filters{}
		for _, el := range elems[2:] {
			// non-object entries are skipped rather than rejected
			if !el.IsObject() {
				continue
			}
			var f nostr.Filter
			if err := json.Unmarshal([]byte(el.Raw), &f); err != nil {
				return nil, violation("invalid filter: %v", err)
			}
			filters = append(filters, f)
		}
		if len(filters) == 0 {
			return nil, violation("REQ requires at least one filter object")
		}
		return Subscribe{SubscriptionID: elems[1].Str, Filters: filters}, nil

	case LabelClose:
		if len(elems) != 2 || elems[1].Type != gjson.String {
			return nil, violation(`CLOSE must be ["CLOSE", <sub_id>]`)
		}
		return Close{SubscriptionID: elems[1].Str}, nil

	default:
		return nil, violation("unsupported message type: %s", label.Str)
	}
}
