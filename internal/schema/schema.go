// Package schema declares the structured-output contracts for extraction
// calls. A Schema is a plain list of typed fields with defaults; Validate is
// a pure function from a decoded JSON object to a coerced, complete result.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the field value types a schema can declare.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	StringList
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case StringList:
		return "string list"
	default:
		return "unknown"
	}
}

// Field describes one slot in a structured result.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Default fills the slot when the value is absent and the field is not
	// required, and seeds the whole-schema fallback object.
	Default any
	// Enum, when non-empty, restricts a String field to the listed values
	// (compared case-insensitively, canonical casing restored).
	Enum []string
}

// Schema is an ordered set of fields. Order matters only for diagnostics.
type Schema struct {
	Name   string
	Fields []Field
}

// Default returns the complete fallback object: every field set to its
// declared default, or the zero value for its kind.
func (s *Schema) Default() map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		if f.Default != nil {
			out[f.Name] = f.Default
			continue
		}
		out[f.Name] = zeroFor(f.Kind)
	}
	return out
}

// Validate coerces in against the schema. Unknown keys are dropped, absent
// optional fields are filled from defaults, and every present value is
// converted to the declared kind. A missing required field or an
// unconvertible value fails the whole object.
func (s *Schema) Validate(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, fmt.Errorf("%s: nil object", s.Name)
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := in[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return nil, fmt.Errorf("%s: missing required field %q", s.Name, f.Name)
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			} else {
				out[f.Name] = zeroFor(f.Kind)
			}
			continue
		}
		val, err := coerce(raw, f.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", s.Name, f.Name, err)
		}
		if f.Kind == String && len(f.Enum) > 0 {
			canon, ok := matchEnum(val.(string), f.Enum)
			if !ok {
				return nil, fmt.Errorf("%s: field %q: %q not in %v", s.Name, f.Name, val, f.Enum)
			}
			val = canon
		}
		out[f.Name] = val
	}
	return out, nil
}

func zeroFor(k Kind) any {
	switch k {
	case Number:
		return float64(0)
	case Bool:
		return false
	case StringList:
		return []string{}
	default:
		return ""
	}
}

func matchEnum(v string, enum []string) (string, bool) {
	for _, e := range enum {
		if strings.EqualFold(strings.TrimSpace(v), e) {
			return e, true
		}
	}
	return "", false
}

// coerce converts a decoded JSON value to the declared kind, accepting the
// loose representations models actually emit (numbers as strings, booleans
// as "yes"/"no", scalars where lists were asked for).
func coerce(raw any, k Kind) (any, error) {
	switch k {
	case String:
		return AsString(raw)
	case Number:
		return AsNumber(raw)
	case Bool:
		return AsBool(raw)
	case StringList:
		return AsStringList(raw)
	default:
		return nil, fmt.Errorf("unsupported kind %v", k)
	}
}

// AsString accepts strings and stringifiable scalars.
func AsString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot read %T as string", raw)
	}
}

// AsNumber accepts JSON numbers and numeric strings.
func AsNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot read %q as number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot read %T as number", raw)
	}
}

// AsBool accepts booleans and the usual textual spellings.
func AsBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true, nil
		case "false", "no", "n", "0":
			return false, nil
		}
		return false, fmt.Errorf("cannot read %q as bool", v)
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot read %T as bool", raw)
	}
}

// AsStringList accepts arrays of stringifiable values and lone scalars,
// which become single-element lists.
func AsStringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := AsString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("cannot read %T as string list", raw)
	}
}
