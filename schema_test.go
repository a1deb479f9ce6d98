package libemit

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeAccepts(t *testing.T) {
	type point struct{ X, Y int }

	cases := []struct {
		shape  Shape
		accept []any
		reject []any
	}{
		{ShapeNumber, []any{1, int8(1), uint64(1), 1.5, float32(2)}, []any{"1", true, nil}},
		{ShapeString, []any{"", "bar"}, []any{1, []byte("bar"), nil}},
		{ShapeBool, []any{true, false}, []any{0, "true"}},
		{ShapeObject, []any{map[string]any{}, point{}}, []any{map[int]any{}, []any{}}},
		{ShapeArray, []any{[]any{1}, []string{}, [2]int{}}, []any{[]byte{1}, "a"}},
		{ShapeBytes, []any{[]byte("x")}, []any{"x", []int{1}}},
		{ShapeAny, []any{nil, 1, "x", Nothing}, nil},
		{ShapeVoid, []any{Nothing, Void{}}, []any{nil, "baz", struct{}{}}},
	}

	for _, tc := range cases {
		t.Run(string(tc.shape), func(t *testing.T) {
			for _, v := range tc.accept {
				assert.True(t, tc.shape.Accepts(v), "%#v", v)
			}
			for _, v := range tc.reject {
				assert.False(t, tc.shape.Accepts(v), "%#v", v)
			}
		})
	}
}

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema(map[string]string{"foo": "number", "bar": " String ", "baz": "void"})
	require.NoError(t, err)
	assert.Equal(t, demoSchema(), s)
	assert.Equal(t, []string{"bar", "baz", "foo"}, s.Names())

	_, err = ParseSchema(map[string]string{"foo": "integer"})
	assert.True(t, errors.Is(err, ErrUnknownShape))
}

func TestSchemaValidateLenientVoid(t *testing.T) {
	s := demoSchema()

	assert.NoError(t, s.Validate("baz", nil, Lenient))
	assert.True(t, errors.Is(s.Validate("baz", nil, Strict), ErrPayloadRequired))
	// Lenient only relaxes void events.
	assert.True(t, errors.Is(s.Validate("foo", nil, Lenient), ErrShapeMismatch))
}
