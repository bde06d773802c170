package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

// wireEnvelope is the serialized record shape: exactly two top-level fields.
type wireEnvelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Encode serializes env deterministically: object keys are emitted in sorted
// order, so identical envelopes always yield identical bytes.
func Encode(env Envelope) ([]byte, error) {
	if !env.Type.Valid() {
		return nil, fieldError("type", describe(string(env.Type)), "member of MessageType")
	}
	data := env.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(wireEnvelope{Type: string(env.Type), Data: data})
}

// Decode parses one serialized envelope. The bytes are untrusted regardless
// of origin: the top-level record must hold exactly {type, data}, the type
// must be a member of the closed set, and the payload is re-validated against
// the registered schema before the envelope is returned.
func Decode(b []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return Envelope{}, &DecodeError{Reason: "malformed envelope", Err: err}
	}
	if dec.More() {
		return Envelope{}, &DecodeError{Reason: "trailing data after envelope"}
	}

	rawType, hasType := raw["type"]
	rawData, hasData := raw["data"]
	if len(raw) != 2 || !hasType || !hasData {
		return Envelope{}, &DecodeError{Reason: "envelope must hold exactly {type, data}"}
	}

	var typeValue string
	if err := json.Unmarshal(rawType, &typeValue); err != nil {
		return Envelope{}, &DecodeError{Reason: "type is not a string", Err: err}
	}
	t, err := CoerceType("type", typeValue)
	if err != nil {
		return Envelope{}, &DecodeError{Reason: "unknown message type", Err: err}
	}

	if first := firstByte(rawData); first != '{' {
		return Envelope{}, &DecodeError{Reason: "data is not a mapping"}
	}
	dataDec := json.NewDecoder(bytes.NewReader(rawData))
	dataDec.UseNumber()
	var data map[string]any
	if err := dataDec.Decode(&data); err != nil {
		return Envelope{}, &DecodeError{Reason: "malformed data mapping", Err: err}
	}

	if schema, ok := SchemaFor(t); ok {
		normalized, err := ValidateMapping("data", data, schema)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.MessageType = t
			}
			return Envelope{}, &DecodeError{Reason: "payload rejected", Err: err}
		}
		data = normalized
	}

	return Envelope{Type: t, Data: data}, nil
}

func firstByte(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
