package responses

import (
	"github.com/nbd-wtf/go-nostr"
)

const (
	LabelOK     = "OK"
	LabelEvent  = "EVENT"
	LabelEOSE   = "EOSE"
	LabelNotice = "NOTICE"
)

// Frame is a relay to client message, encoded as a JSON array whose first
// element is the label.
type Frame []interface{}

func (f Frame) Label() string {
	if len(f) == 0 {
		return ""
	}
	label, _ := f[0].(string)
	return label
}

// Event returns the delivered event of an EVENT frame.
func (f Frame) Event() (*nostr.Event, bool) {
	if f.Label() != LabelEvent || len(f) != 3 {
		return nil, false
	}
	ev, ok := f[2].(*nostr.Event)
	return ev, ok
}

// OK acknowledges a publish. message is "accepted" on success and the
// rejection reason otherwise.
func OK(eventID string, accepted bool, message string) Frame {
	return Frame{LabelOK, eventID, accepted, message}
}

func Event(subscriptionID string, ev *nostr.Event) Frame {
	return Frame{LabelEvent, subscriptionID, ev}
}

// EOSE marks the end of the stored snapshot for a subscription.
func EOSE(subscriptionID string) Frame {
	return Frame{LabelEOSE, subscriptionID}
}

func Notice(message string) Frame {
	return Frame{LabelNotice, message}
}
