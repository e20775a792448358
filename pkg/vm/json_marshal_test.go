package vm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/jsinterop/pkg/errors"
)

func TestValueImplementsJSONInterfaces(t *testing.T) {
	t.Parallel()
	var _ json.Marshaler = Value{}
	var _ json.Unmarshaler = (*Value)(nil)
}

func TestDirectJSONMarshaling(t *testing.T) {
	t.Parallel()
	holey := NewArray(nil)
	require.NoError(t, holey.Put("2", NumberValue(1), true))

	obj := NewPlainObject(nil)
	obj.SetOwn("b", NewString("x"))
	obj.SetOwn("a", NumberValue(1))
	obj.SetOwn("skip", Undefined)
	obj.SetOwn("fn", NewNativeFunction(0, "fn", nil))
	obj.SetOwnNonEnumerable("hidden", True)

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null, "null"},
		{"undefined", Undefined, "null"},
		{"true", BooleanValue(true), "true"},
		{"integer", NumberValue(42), "42"},
		{"float", NumberValue(3.14), "3.14"},
		{"NaN", NumberValue(math.NaN()), "null"},
		{"string", NewString("he said \"hi\""), `"he said \"hi\""`},
		{"empty array", NewValueFromArray(NewArray(nil)), "[]"},
		{"holes", NewValueFromArray(holey), "[null,null,1]"},
		{"object", NewValueFromPlainObject(obj), `{"b":"x","a":1}`},
		{"host", NewHostObject(struct{ X int }{3}), `{"X":3}`},
		{"function", NewNativeFunction(0, "f", nil), "null"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestJSONMarshalRejectsCycles(t *testing.T) {
	t.Parallel()
	obj := NewPlainObject(nil)
	obj.SetOwn("self", NewValueFromPlainObject(obj))
	_, err := NewValueFromPlainObject(obj).MarshalJSON()
	assert.True(t, errors.IsTypeError(err))

	shared := NewValueFromPlainObject(NewPlainObject(nil))
	arr := NewArray(nil)
	require.NoError(t, arr.Push(shared, shared))
	out, err := NewValueFromArray(arr).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[{},{}]", string(out))
}

func TestDirectJSONUnmarshaling(t *testing.T) {
	t.Parallel()
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"list":[true,null,"s"]}`), &v))
	require.Equal(t, TypeObject, v.Type())

	a, ok := v.AsPlainObject().GetOwn("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, a.AsFloat())

	list, ok := v.AsPlainObject().GetOwn("list")
	require.True(t, ok)
	require.True(t, list.IsArray())
	assert.Equal(t, uint32(3), list.AsArray().Length())

	out, err := json.Marshal(list)
	require.NoError(t, err)
	assert.Equal(t, `[true,null,"s"]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{`), &v))
}
