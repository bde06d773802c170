package protocol

// schemas is the canonical message_type -> payload shape table. It is built
// once at init and never mutated, so concurrent reads need no locking.
// A message type without an entry has an unconstrained payload; that is a
// deliberate state, not a configuration error.
var schemas = map[MessageType]Schema{
	MsgAuthRequest: {
		{Name: "user_id", Kind: KindInt},
		{Name: "password", Kind: KindString},
	},
	MsgAuthFailed: {
		{Name: "field", Kind: KindString},
	},
	MsgAuthSuccess: {
		{Name: "user", Kind: KindMap},
	},
	MsgAccessRequest: {
		{Name: "f_type", Kind: KindString},
		{Name: "f_id", Kind: KindInt},
	},
	MsgAccessRedacted: {
		{Name: "user_clear", Kind: KindString},
		{Name: "user_hex", Kind: KindHex},
		{Name: "needed_clear", Kind: KindString},
		{Name: "needed_hex", Kind: KindHex},
	},
	MsgAccessExpunged: {
		{Name: "f_type", Kind: KindString},
		{Name: "f_id", Kind: KindInt},
	},
	MsgAccessGranted: {
		{Name: "file", Kind: KindMap},
	},
}

// SchemaFor returns the registered payload schema for t. The second return
// is false when t carries no schema and its payload is unconstrained.
func SchemaFor(t MessageType) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}
