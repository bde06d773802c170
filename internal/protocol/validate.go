package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	logs "github.com/danmuck/smplog"
)

// CoerceType normalizes value into a MessageType member. It accepts either
// an already-typed member or a raw string off the wire; one code path serves
// both. A value matching no member fails with a FieldError.
func CoerceType(field string, value any) (MessageType, error) {
	switch v := value.(type) {
	case MessageType:
		if v.Valid() {
			return v, nil
		}
	case string:
		if t := MessageType(v); t.Valid() {
			return t, nil
		}
	}
	logs.Errorf(nil, "protocol.CoerceType reject field=%s value=%v", field, value)
	return "", fieldError(field, describe(value), "member of MessageType")
}

// ValidateMapping checks value against schema and returns a normalized deep
// copy of the payload. A non-mapping value is the structural ErrNotMapping;
// any schema violation is a single FieldError enumerating every missing,
// unknown, and mismatched field.
func ValidateMapping(field string, value any, schema Schema) (map[string]any, error) {
	data, ok := value.(map[string]any)
	if !ok && value != nil {
		return nil, fmt.Errorf("%w: %s is %T", ErrNotMapping, field, value)
	}

	issues := make([]Issue, 0)
	out := make(map[string]any, len(schema))

	for _, spec := range schema {
		v, present := data[spec.Name]
		if !present {
			issues = append(issues, Issue{Field: spec.Name, Got: "absent", Expected: spec.Kind.String()})
			continue
		}
		normalized, issue := checkKind(spec.Name, v, spec.Kind)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		out[spec.Name] = normalized
	}

	// Schemas are closed: unknown keys are rejected so a peer cannot smuggle
	// extra payload past the contract.
	known := make(map[string]struct{}, len(schema))
	for _, spec := range schema {
		known[spec.Name] = struct{}{}
	}
	extras := make([]string, 0)
	for name := range data {
		if _, ok := known[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		issues = append(issues, Issue{Field: name, Got: "present", Expected: "absent (unknown field)"})
	}

	if len(issues) != 0 {
		logs.Errorf(nil, "protocol.ValidateMapping reject field=%s issues=%d", field, len(issues))
		return nil, &FieldError{Issues: issues}
	}
	return out, nil
}

// ValidateString checks that value is a non-empty, non-whitespace string.
func ValidateString(field string, value any) (string, error) {
	v, issue := checkKind(field, value, KindString)
	if issue != nil {
		return "", &FieldError{Issues: []Issue{*issue}}
	}
	return v.(string), nil
}

// ValidateInt checks that value is an integer kind. Values decoded off the
// wire arrive as json.Number and pass through the same path as in-process
// ints; the result is normalized to int64.
func ValidateInt(field string, value any) (int64, error) {
	v, issue := checkKind(field, value, KindInt)
	if issue != nil {
		return 0, &FieldError{Issues: []Issue{*issue}}
	}
	return v.(int64), nil
}

// ValidateHex checks that value is a #RRGGBB colour string.
func ValidateHex(field string, value any) (string, error) {
	v, issue := checkKind(field, value, KindHex)
	if issue != nil {
		return "", &FieldError{Issues: []Issue{*issue}}
	}
	return v.(string), nil
}

func checkKind(field string, value any, kind FieldKind) (any, *Issue) {
	switch kind {
	case KindString:
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, &Issue{Field: field, Got: describe(value), Expected: kind.String()}
		}
		return s, nil

	case KindInt:
		n, ok := toInt64(value)
		if !ok {
			return nil, &Issue{Field: field, Got: describe(value), Expected: kind.String()}
		}
		return n, nil

	case KindHex:
		s, ok := value.(string)
		if !ok || !isHexColour(s) {
			return nil, &Issue{Field: field, Got: describe(value), Expected: kind.String()}
		}
		return s, nil

	case KindMap:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, &Issue{Field: field, Got: describe(value), Expected: kind.String()}
		}
		return copyMap(m), nil
	}
	return nil, &Issue{Field: field, Got: describe(value), Expected: kind.String()}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isHexColour(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v (%T)", value, value)
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
