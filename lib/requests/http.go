package requests

// PublishEventRequest is the body of an HTTP publish. It only has to be a
// JSON document here; whether it is a valid event is decided by the relay.
type PublishEventRequest struct {
	Event string `validate:"required,json"`
}
