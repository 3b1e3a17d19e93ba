package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the primitive type a raw setting is coerced into.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	default:
		return "string"
	}
}

// Rule names the constraint a setting violated.
type Rule string

const (
	RuleRequired Rule = "required"
	RuleNumber   Rule = "number"
	RuleBoolean  Rule = "boolean"
	RuleArray    Rule = "array"
	RuleURL      Rule = "url"
	RuleSize     Rule = "size"
)

// Setting declares how a single raw environment value is validated and typed.
type Setting struct {
	Value    string
	Default  string
	Required bool
	Kind     Kind
	IsURL    bool
}

// Schema maps environment keys to their declarations.
type Schema map[string]Setting

// FieldError reports one key that failed validation.
type FieldError struct {
	Key     string
	Rule    Rule
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationErrors collects every FieldError produced while parsing a schema.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Error())
	}
	return "invalid environment: " + strings.Join(msgs, "; ")
}

// Keys returns the offending keys in report order.
func (v ValidationErrors) Keys() []string {
	keys := make([]string, 0, len(v))
	for _, fe := range v {
		keys = append(keys, fe.Key)
	}
	return keys
}

func newFieldError(key string, rule Rule, format string) *FieldError {
	return &FieldError{Key: key, Rule: rule, Message: fmt.Sprintf(format, key)}
}

// Value is a typed configuration value. The zero Value is an invalid placeholder.
type Value struct {
	kind  Kind
	valid bool
	str   string
	num   float64
	flag  bool
	list  []string
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) Valid() bool { return v.valid }

// String returns the value of a string setting, or a printable form for other kinds.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindArray:
		return strings.Join(v.list, ",")
	default:
		return v.str
	}
}

func (v Value) Number() float64 { return v.num }
func (v Value) Int() int        { return int(v.num) }
func (v Value) Bool() bool      { return v.flag }

// Strings returns a copy of an array setting.
func (v Value) Strings() []string {
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// Snapshot is the immutable result of parsing a Schema.
type Snapshot struct {
	values map[string]Value
}

// Get returns the value stored under key.
func (s Snapshot) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Value returns the value stored under key or an invalid placeholder.
func (s Snapshot) Value(key string) Value {
	return s.values[key]
}

// Keys lists the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// kindSpec validates and coerces raw strings for one Kind.
type kindSpec struct {
	rule    Rule
	message string
	check   func(raw string) bool
	coerce  func(raw string) Value
}

var kinds = map[Kind]kindSpec{
	KindString: {
		check:  func(string) bool { return true },
		coerce: func(raw string) Value { return Value{kind: KindString, valid: true, str: raw} },
	},
	KindNumber: {
		rule:    RuleNumber,
		message: "%s must be a number",
		check: func(raw string) bool {
			n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			return err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
		},
		coerce: func(raw string) Value {
			n, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			return Value{kind: KindNumber, valid: true, num: n}
		},
	},
	KindBoolean: {
		rule:    RuleBoolean,
		message: "%s must be a boolean",
		check:   func(raw string) bool { return raw == "true" || raw == "false" },
		coerce:  func(raw string) Value { return Value{kind: KindBoolean, valid: true, flag: raw == "true"} },
	},
	KindArray: {
		rule:    RuleArray,
		message: "%s must be a comma separated string",
		check: func(raw string) bool {
			for _, item := range splitList(raw) {
				if item == "" {
					return false
				}
			}
			return true
		},
		coerce: func(raw string) Value { return Value{kind: KindArray, valid: true, list: splitList(raw)} },
	},
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Parse validates every declared setting and builds a Snapshot. Failures do not
// stop evaluation of other keys: each failing key gets a FieldError and an
// invalid placeholder in the snapshot.
func Parse(schema Schema) (Snapshot, ValidationErrors) {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap := Snapshot{values: make(map[string]Value, len(schema))}
	var errs ValidationErrors
	for _, key := range keys {
		val, fe := parseSetting(key, schema[key])
		if fe != nil {
			errs = append(errs, fe)
		}
		snap.values[key] = val
	}
	return snap, errs
}

func parseSetting(key string, s Setting) (Value, *FieldError) {
	raw := s.Value
	if raw == "" {
		raw = s.Default
	}

	if strings.TrimSpace(raw) == "" {
		if s.Required {
			return Value{kind: s.Kind}, newFieldError(key, RuleRequired, "%s is required")
		}
		return zeroValue(s.Kind), nil
	}

	if fe := validate(key, raw, s); fe != nil {
		return Value{kind: s.Kind}, fe
	}
	return transform(raw, s), nil
}

func validate(key, raw string, s Setting) *FieldError {
	spec, ok := kinds[s.Kind]
	if !ok {
		spec = kinds[KindString]
	}
	if !spec.check(raw) {
		return newFieldError(key, spec.rule, spec.message)
	}
	if s.IsURL {
		candidates := []string{raw}
		if s.Kind == KindArray {
			candidates = splitList(raw)
		}
		for _, c := range candidates {
			if !isHTTPURL(c) {
				return newFieldError(key, RuleURL, "%s must be a URL")
			}
		}
	}
	return nil
}

func transform(raw string, s Setting) Value {
	spec, ok := kinds[s.Kind]
	if !ok {
		spec = kinds[KindString]
	}
	val := spec.coerce(raw)
	if !s.IsURL {
		return val
	}
	switch val.kind {
	case KindArray:
		for i, item := range val.list {
			val.list[i] = strings.TrimSuffix(item, "/")
		}
	case KindString:
		val.str = strings.TrimSuffix(val.str, "/")
	}
	return val
}

func zeroValue(k Kind) Value {
	v := Value{kind: k, valid: true}
	if k == KindArray {
		v.list = []string{}
	}
	return v
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
