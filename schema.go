package libemit

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Shape describes, at runtime, the payload accepted by an event.
type Shape string

const (
	ShapeNumber Shape = "number"
	ShapeString Shape = "string"
	ShapeBool   Shape = "bool"
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
	ShapeBytes  Shape = "bytes"
	ShapeAny    Shape = "any"
	// ShapeVoid events carry no value. Emitting them takes the Nothing token, which
	// the Lenient convention also allows to omit.
	ShapeVoid Shape = "void"
)

var shapes = []Shape{
	ShapeNumber, ShapeString, ShapeBool, ShapeObject, ShapeArray, ShapeBytes, ShapeAny, ShapeVoid,
}

var bytesType = reflect.TypeFor[[]byte]()

func ParseShape(s string) (Shape, error) {
	shape := Shape(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(shapes, shape) {
		return "", errors.Wrapf(ErrUnknownShape, "%q", s)
	}
	return shape, nil
}

// Accepts reports whether v is a valid payload for the shape.
func (s Shape) Accepts(v any) bool {
	if s == ShapeAny {
		return true
	}
	if s == ShapeVoid {
		_, ok := v.(Void)
		return ok
	}
	if v == nil {
		return false
	}

	t := reflect.TypeOf(v)
	switch s {
	case ShapeNumber:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
	case ShapeString:
		return t.Kind() == reflect.String
	case ShapeBool:
		return t.Kind() == reflect.Bool
	case ShapeObject:
		return (t.Kind() == reflect.Map && t.Key().Kind() == reflect.String) || t.Kind() == reflect.Struct
	case ShapeArray:
		return (t.Kind() == reflect.Slice && t != bytesType) || t.Kind() == reflect.Array
	case ShapeBytes:
		return t == bytesType
	}

	return false
}

// Schema maps event names to the shape of their payload.
type Schema map[string]Shape

// ParseSchema builds a Schema out of name to shape-name pairs, as found in configuration files.
func ParseSchema(decl map[string]string) (Schema, error) {
	s := make(Schema, len(decl))
	for name, raw := range decl {
		shape, err := ParseShape(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "event %q", name)
		}
		s[name] = shape
	}
	return s, nil
}

// Names returns the declared event names, sorted.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks the arguments of an emission of event against its shape. Every event
// takes exactly one argument. Void events may omit it under the Lenient convention.
func (s Schema) Validate(event string, args []any, convention Convention) error {
	shape, found := s[event]
	if !found {
		return errors.Wrapf(ErrUnknownEvent, "event %q", event)
	}

	switch {
	case len(args) == 0 && shape == ShapeVoid:
		if convention == Strict {
			return errors.Wrapf(ErrPayloadRequired, "event %q: emit Nothing explicitly", event)
		}
		return nil
	case len(args) == 0:
		return errors.Wrapf(ErrShapeMismatch, "event %q expects a %s payload, got none", event, shape)
	case len(args) > 1:
		return errors.Wrapf(ErrShapeMismatch, "event %q takes a single payload, got %d", event, len(args))
	case !shape.Accepts(args[0]):
		return errors.Wrapf(ErrShapeMismatch, "event %q expects a %s payload, got %T", event, shape, args[0])
	}

	return nil
}
