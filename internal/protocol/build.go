package protocol

import (
	"errors"

	logs "github.com/danmuck/smplog"
)

// Build validates a (type, payload) pair and produces an envelope. It is the
// sole choke point through which a wire-valid envelope may be produced: the
// type is coerced through CoerceType, the payload is checked against the
// registered schema, and the result holds its own deep copy of the data.
// Message types without a registered schema accept any payload.
func Build(msgType any, data map[string]any) (Envelope, error) {
	t, err := CoerceType("msg_type", msgType)
	if err != nil {
		return Envelope{}, err
	}

	schema, ok := SchemaFor(t)
	if !ok {
		return Envelope{Type: t, Data: copyMap(data)}, nil
	}

	normalized, err := ValidateMapping("data", data, schema)
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			fe.MessageType = t
		}
		logs.Errorf(nil, "protocol.Build reject message_type=%s err=%v", t, err)
		return Envelope{}, err
	}

	logs.Debugf("protocol.Build ok message_type=%s fields=%d", t, len(normalized))
	return Envelope{Type: t, Data: normalized}, nil
}

// Typed builders for each message kind. These mirror the wire contract and
// add the range checks the schema alone cannot express.

func NewAuthRequest(userID int64, password string) (Envelope, error) {
	if userID <= 0 {
		return Envelope{}, fieldError("user_id", describe(userID), "positive int")
	}
	return Build(MsgAuthRequest, map[string]any{
		"user_id":  userID,
		"password": password,
	})
}

func NewAuthFailed(field string) (Envelope, error) {
	return Build(MsgAuthFailed, map[string]any{
		"field": field,
	})
}

func NewAuthSuccess(user map[string]any) (Envelope, error) {
	return Build(MsgAuthSuccess, map[string]any{
		"user": user,
	})
}

func NewAccessRequest(fType string, fID int64) (Envelope, error) {
	if fID < 0 {
		return Envelope{}, fieldError("f_id", describe(fID), "non-negative int")
	}
	return Build(MsgAccessRequest, map[string]any{
		"f_type": fType,
		"f_id":   fID,
	})
}

func NewAccessRedacted(userClear, userHex, neededClear, neededHex string) (Envelope, error) {
	return Build(MsgAccessRedacted, map[string]any{
		"user_clear":   userClear,
		"user_hex":     userHex,
		"needed_clear": neededClear,
		"needed_hex":   neededHex,
	})
}

func NewAccessExpunged(fType string, fID int64) (Envelope, error) {
	if fID < 0 {
		return Envelope{}, fieldError("f_id", describe(fID), "non-negative int")
	}
	return Build(MsgAccessExpunged, map[string]any{
		"f_type": fType,
		"f_id":   fID,
	})
}

func NewAccessGranted(file map[string]any) (Envelope, error) {
	return Build(MsgAccessGranted, map[string]any{
		"file": file,
	})
}
