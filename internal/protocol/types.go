package protocol

// MessageType identifies one wire message kind. The set is closed and fixed
// at build time; the string value is what travels on the wire.
type MessageType string

const (
	MsgAuthRequest MessageType = "auth_request"
	MsgAuthFailed  MessageType = "auth_failed"
	MsgAuthSuccess MessageType = "auth_success"

	MsgAccessRequest  MessageType = "access_request"
	MsgAccessRedacted MessageType = "access_redacted"
	MsgAccessExpunged MessageType = "access_expunged"
	MsgAccessGranted  MessageType = "access_granted"

	// Connection liveness probes. Neither carries a registered schema;
	// their payload is unconstrained.
	MsgPing MessageType = "ping"
	MsgPong MessageType = "pong"
)

var messageTypes = map[MessageType]struct{}{
	MsgAuthRequest:    {},
	MsgAuthFailed:     {},
	MsgAuthSuccess:    {},
	MsgAccessRequest:  {},
	MsgAccessRedacted: {},
	MsgAccessExpunged: {},
	MsgAccessGranted:  {},
	MsgPing:           {},
	MsgPong:           {},
}

// Valid reports whether t is a member of the closed message type set.
func (t MessageType) Valid() bool {
	_, ok := messageTypes[t]
	return ok
}

func (t MessageType) String() string {
	return string(t)
}

// FieldKind is the expected primitive kind of one payload field.
type FieldKind uint8

const (
	KindString FieldKind = iota + 1
	KindInt
	KindHex
	KindMap
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "non-empty str"
	case KindInt:
		return "int"
	case KindHex:
		return "hex colour (#RRGGBB)"
	case KindMap:
		return "mapping"
	default:
		return "unknown kind"
	}
}

// FieldSpec declares one required payload field.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// Schema is the ordered required shape of a message type's payload.
// Schemas are closed: a payload must carry exactly these fields.
type Schema []FieldSpec

// Envelope is the validated {type, data} unit exchanged between peers.
// Build is the only constructor that yields a wire-valid envelope; treat a
// returned envelope and its payload as read-only.
type Envelope struct {
	Type MessageType
	Data map[string]any
}
