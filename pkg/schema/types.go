package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type checks literal values assigned to a component input.
type Type interface {
	// Name is the type name used in flow files and schema JSON ("str", "[int]").
	Name() string
	Validate(value any) error
}

// kind is a named check. Every built-in type is a kind.
type kind struct {
	name  string
	check func(any) error
}

func (k *kind) Name() string             { return k.name }
func (k *kind) Validate(value any) error { return k.check(value) }

func mismatch(want string, value any) error {
	return fmt.Errorf("expected %s, got %T", want, value)
}

// String accepts strings and fmt.Stringer values such as domain.Message.
func String() Type {
	return &kind{name: "str", check: func(v any) error {
		switch v.(type) {
		case string, fmt.Stringer:
			return nil
		}
		return mismatch("str", v)
	}}
}

// Int accepts every integer kind. Whole floats pass too, since JSON and YAML
// decoders hand numbers over as float64.
func Int() Type {
	return &kind{name: "int", check: func(v any) error {
		switch n := v.(type) {
		case json.Number:
			if _, err := n.Int64(); err != nil {
				return fmt.Errorf("expected int, got %q", n.String())
			}
			return nil
		case float64:
			if n != float64(int64(n)) {
				return fmt.Errorf("expected int, got %v", n)
			}
			return nil
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return nil
		}
		return mismatch("int", v)
	}}
}

// Float accepts floats and signed integers.
func Float() Type {
	return &kind{name: "float", check: func(v any) error {
		if n, ok := v.(json.Number); ok {
			if _, err := n.Float64(); err != nil {
				return fmt.Errorf("expected float, got %q", n.String())
			}
			return nil
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Float32, reflect.Float64,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return nil
		}
		return mismatch("float", v)
	}}
}

func Bool() Type {
	return &kind{name: "bool", check: func(v any) error {
		if _, ok := v.(bool); !ok {
			return mismatch("bool", v)
		}
		return nil
	}}
}

// Dict accepts maps keyed by strings.
func Dict() Type {
	return &kind{name: "dict", check: func(v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return mismatch("dict", v)
		}
		return nil
	}}
}

func Any() Type {
	return &kind{name: "any", check: func(any) error { return nil }}
}

// Slice accepts slices and arrays whose every element matches elem.
func Slice(elem Type) Type {
	return &kind{name: "[" + elem.Name() + "]", check: func(v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return mismatch("slice", v)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := elem.Validate(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}}
}

// OneOf restricts a string to a fixed option list, as dropdown inputs do.
func OneOf(options ...string) Type {
	return &kind{name: "oneof(" + strings.Join(options, "|") + ")", check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return mismatch("str", v)
		}
		for _, opt := range options {
			if opt == s {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", s, strings.Join(options, ", "))
	}}
}

// Custom wraps a caller-provided check under name.
func Custom(name string, validate func(any) error) Type {
	return &kind{name: name, check: validate}
}

var builtins = map[string]func() Type{
	"str":    String,
	"string": String,
	"int":    Int,
	"float":  Float,
	"bool":   Bool,
	"dict":   Dict,
	"map":    Dict,
	"any":    Any,
}

// ParseType reads a type name: a built-in ("str", "int", "float", "bool",
// "dict", "any"), an option list "oneof(a|b)" or a slice "[T]".
func ParseType(name string) (Type, error) {
	if rest, ok := strings.CutPrefix(name, "oneof("); ok && strings.HasSuffix(rest, ")") {
		return OneOf(strings.Split(strings.TrimSuffix(rest, ")"), "|")...), nil
	}
	if len(name) > 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		elem, err := ParseType(name[1 : len(name)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	if fn, ok := builtins[name]; ok {
		return fn(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", name)
}

// ParseTypeMap reads a map of input names to type names.
func ParseTypeMap(names map[string]string) (Schema, error) {
	s := make(Schema, len(names))
	for key, name := range names {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		s[key] = t
	}
	return s, nil
}
