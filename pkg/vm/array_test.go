package vm

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/jsinterop/pkg/config"
	"github.com/nooga/jsinterop/pkg/errors"
)

func mustGet(t *testing.T, o Object, key string) Value {
	t.Helper()
	v, err := o.Get(key)
	require.NoError(t, err)
	return v
}

func mustExport(t *testing.T, v Value) interface{} {
	t.Helper()
	out, err := Export(v)
	require.NoError(t, err)
	return out
}

func TestArrayPutExtendsLength(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)

	require.NoError(t, arr.Put("5", NewString("x"), true))

	assert.Equal(t, uint32(6), arr.Length())
	for i := 0; i < 5; i++ {
		assert.True(t, arr.GetOwnProperty(strconv.Itoa(i)).IsAbsent(), "index %d", i)
	}
	assert.Equal(t, "x", mustGet(t, arr, "5").AsString())

	ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(2)), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), arr.Length())
	for i := 2; i <= 5; i++ {
		assert.False(t, arr.HasOwnProperty(strconv.Itoa(i)), "index %d", i)
	}
}

func TestArrayLengthAlwaysAboveWrittenIndex(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	for _, idx := range []uint32{0, 7, 3, 100, 4294967294} {
		require.NoError(t, arr.Put(indexKey(idx), NumberValue(float64(idx)), true))
		assert.Greater(t, uint64(arr.Length()), uint64(idx))
	}
	assert.Equal(t, uint32(4294967295), arr.Length())
}

func TestArrayLengthDescriptorShape(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	desc := arr.GetOwnProperty("length")
	require.True(t, desc.IsDataDescriptor())
	v, ok := desc.Value()
	require.True(t, ok)
	assert.Equal(t, float64(0), v.AsFloat())
	assert.Equal(t, FlagTrue, desc.Writable())
	assert.Equal(t, FlagFalse, desc.Enumerable())
	assert.Equal(t, FlagFalse, desc.Configurable())
	assert.Equal(t, "Array", arr.Class())
}

func TestArrayShrinkRemovesConfigurable(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		filled []uint32
		length uint32
	}{
		{name: "dense", filled: []uint32{0, 1, 2, 3, 4, 5, 6, 7}, length: 8},
		{name: "sparse", filled: []uint32{1, 900}, length: 1000},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			arr := NewArray(nil)
			for _, idx := range tc.filled {
				require.NoError(t, arr.Put(indexKey(idx), True, true))
			}
			require.Equal(t, tc.length, arr.Length())

			ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(1)), true)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint32(1), arr.Length())
			for _, idx := range tc.filled {
				if idx >= 1 {
					assert.True(t, arr.GetOwnProperty(indexKey(idx)).IsAbsent(), "index %d", idx)
				}
			}
		})
	}
}

func TestArrayShrinkStopsAtNonConfigurable(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		filled []uint32
		pinned uint32
		length uint32
	}{
		// owned indices outnumber the removed range: countdown branch
		{name: "countdown", filled: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, pinned: 6},
		// few owned indices in a long range: sparse branch
		{name: "sparse", filled: []uint32{2, 40, 700, 999}, pinned: 40},
		{name: "sparse pinned at top", filled: []uint32{2, 40, 700, 999}, pinned: 999},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			arr := NewArray(nil)
			for _, idx := range tc.filled {
				require.NoError(t, arr.Put(indexKey(idx), True, true))
			}
			_, err := arr.DefineOwnProperty(indexKey(tc.pinned), AttributeDescriptor().WithConfigurable(false), true)
			require.NoError(t, err)

			ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(1)), false)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, tc.pinned+1, arr.Length())
			assert.False(t, arr.GetOwnProperty(indexKey(tc.pinned)).IsAbsent())
			for _, idx := range tc.filled {
				present := !arr.GetOwnProperty(indexKey(idx)).IsAbsent()
				assert.Equal(t, idx <= tc.pinned, present, "index %d", idx)
			}

			_, err = arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(1)), true)
			require.Error(t, err)
			assert.True(t, errors.IsTypeError(err))
		})
	}
}

func TestArrayShrinkWithWritableFalse(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(NumberValue(1), NumberValue(2), NumberValue(3)))

	ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(1)).WithWritable(false), true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), arr.Length())
	assert.Equal(t, FlagFalse, arr.GetOwnProperty("length").Writable())

	err = arr.Put("5", True, true)
	require.Error(t, err)
	assert.True(t, errors.IsTypeError(err))
	assert.NoError(t, arr.Put("5", True, false))
	assert.Equal(t, uint32(1), arr.Length())

	_, err = arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(0)), true)
	assert.True(t, errors.IsTypeError(err))
}

func TestArrayFailedShrinkKeepsNonWritable(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True, True, True, True))
	_, err := arr.DefineOwnProperty("2", AttributeDescriptor().WithConfigurable(false), true)
	require.NoError(t, err)

	ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(0)).WithWritable(false), false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint32(3), arr.Length())
	assert.Equal(t, FlagFalse, arr.GetOwnProperty("length").Writable())
}

func TestArrayInvalidLength(t *testing.T) {
	t.Parallel()
	for _, v := range []Value{
		NumberValue(-1),
		NumberValue(1.5),
		NumberValue(4294967296),
		NaN,
		NewString("abc"),
	} {
		arr := NewArray(nil)
		for _, throw := range []bool{true, false} {
			_, err := arr.DefineOwnProperty("length", ValueDescriptor(v), throw)
			require.Error(t, err, v.Inspect())
			assert.True(t, errors.IsRangeError(err), v.Inspect())
		}
		err := arr.Put("length", v, false)
		assert.True(t, errors.IsRangeError(err), v.Inspect())
	}
}

func TestArrayLengthFromString(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Put("length", NewString("3"), true))
	assert.Equal(t, uint32(3), arr.Length())
	assert.Equal(t, float64(3), mustGet(t, arr, "length").AsFloat())
}

func TestArrayLengthAttributeOnlyUpdate(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True, False))

	ok, err := arr.DefineOwnProperty("length", AttributeDescriptor().WithWritable(false), true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), arr.Length())
	assert.False(t, arr.CanPut("length"))

	ok, err = arr.DefineOwnProperty("length", AttributeDescriptor().WithEnumerable(true), false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrayGrowKeepsIndices(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True))
	ok, err := arr.DefineOwnProperty("length", ValueDescriptor(NumberValue(10)), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), arr.Length())
	assert.True(t, mustGet(t, arr, "0").AsBoolean())
}

func TestArrayPutPreservesAttributes(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	_, err := arr.DefineOwnProperty("0", DataDescriptor(NumberValue(1), true, false, false), true)
	require.NoError(t, err)

	require.NoError(t, arr.Put("0", NumberValue(2), true))
	desc := arr.GetOwnProperty("0")
	v, _ := desc.Value()
	assert.Equal(t, float64(2), v.AsFloat())
	assert.Equal(t, FlagFalse, desc.Enumerable())
	assert.Equal(t, FlagFalse, desc.Configurable())
}

func TestArrayPutReadOnlyIndex(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	_, err := arr.DefineOwnProperty("0", DataDescriptor(NumberValue(1), false, true, true), true)
	require.NoError(t, err)

	err = arr.Put("0", NumberValue(2), true)
	assert.True(t, errors.IsTypeError(err))
	assert.NoError(t, arr.Put("0", NumberValue(3), false))
	assert.Equal(t, float64(1), mustGet(t, arr, "0").AsFloat())
}

func TestArrayPutCallsSetter(t *testing.T) {
	t.Parallel()
	r := NewRealm()
	var gotThis Value
	var gotArgs []Value
	setter := NewNativeFunction(1, "set", func(this Value, args []Value) (Value, error) {
		gotThis, gotArgs = this, args
		return Undefined, nil
	})
	r.ArrayPrototype.SetOwnProperty("3", AccessorDescriptor(Undefined, setter, false, true))

	arr := r.NewArray()
	require.NoError(t, arr.Put("3", NewString("v"), true))

	require.Len(t, gotArgs, 1)
	assert.Equal(t, "v", gotArgs[0].AsString())
	require.True(t, gotThis.IsArray())
	assert.Same(t, arr, gotThis.AsArray())
	assert.True(t, arr.GetOwnProperty("3").IsAbsent())
	assert.Equal(t, uint32(0), arr.Length())
}

func TestArrayNonExtensible(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True))
	arr.PreventExtensions()

	err := arr.Put("1", True, true)
	assert.True(t, errors.IsTypeError(err))
	assert.NoError(t, arr.Put("1", True, false))
	assert.Equal(t, uint32(1), arr.Length())

	require.NoError(t, arr.Put("0", False, true))
	assert.False(t, mustGet(t, arr, "0").AsBoolean())
}

func TestArrayDelete(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True, True, True))

	ok, err := arr.Delete("1", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, arr.GetOwnProperty("1").IsAbsent())
	assert.Equal(t, uint32(3), arr.Length())

	ok, err = arr.Delete("17", true)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = arr.DefineOwnProperty("0", AttributeDescriptor().WithConfigurable(false), true)
	require.NoError(t, err)
	ok, err = arr.Delete("0", false)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = arr.Delete("0", true)
	assert.True(t, errors.IsTypeError(err))

	ok, err = arr.Delete("length", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrayOwnProperties(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Put("2", True, true))
	require.NoError(t, arr.Put("0", True, true))
	require.NoError(t, arr.Put("name", NewString("n"), true))

	entries := arr.OwnProperties()
	require.Len(t, entries, 4)

	indexed := map[string]bool{}
	for _, e := range entries[:2] {
		indexed[e.Key] = true
	}
	assert.Equal(t, map[string]bool{"0": true, "2": true}, indexed)
	assert.Equal(t, "length", entries[2].Key)
	assert.Equal(t, "name", entries[3].Key)
}

func TestArrayNamedPropertiesGoToBase(t *testing.T) {
	t.Parallel()
	base := NewPlainObject(nil)
	arr := NewArray(base)
	require.NoError(t, arr.Put("tag", NewString("t"), true))

	assert.True(t, base.HasOwn("tag"))
	assert.True(t, base.HasOwn("length"))
	assert.Equal(t, uint32(0), arr.Length())
	// 4294967295 is not an index, so it is a named property
	require.NoError(t, arr.Put("4294967295", True, true))
	assert.True(t, base.HasOwn("4294967295"))
	assert.Equal(t, uint32(0), arr.Length())
}

func TestArrayHasOwnProperty(t *testing.T) {
	t.Parallel()
	r := NewRealm()
	arr := r.NewArrayFromValues(True, Undefined)
	assert.True(t, arr.HasOwnProperty("0"))
	assert.True(t, arr.HasOwnProperty("1"))
	assert.False(t, arr.HasOwnProperty("2"))
	assert.True(t, arr.HasOwnProperty("length"))

	hop, err := arr.Get("hasOwnProperty")
	require.NoError(t, err)
	fn, ok := hop.AsCallable()
	require.True(t, ok)
	res, err := fn.Call(NewValueFromArray(arr), []Value{NewString("1")})
	require.NoError(t, err)
	assert.True(t, res.AsBoolean())
}

func TestArrayPrototypePush(t *testing.T) {
	t.Parallel()
	r := NewRealm()
	arr := r.NewArray()
	push, err := arr.Get("push")
	require.NoError(t, err)
	fn, ok := push.AsCallable()
	require.True(t, ok)

	res, err := fn.Call(NewValueFromArray(arr), []Value{NumberValue(1), NumberValue(2)})
	require.NoError(t, err)
	assert.Equal(t, float64(2), res.AsFloat())
	assert.Equal(t, "1,2", NewValueFromArray(arr).ToString())

	_, err = fn.Call(NewObject(nil), nil)
	assert.True(t, errors.IsTypeError(err))
}

func TestArrayReentrantDefineFromAccessor(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Push(True, True, True))
	calls := 0
	getter := NewNativeFunction(0, "get", func(this Value, args []Value) (Value, error) {
		calls++
		_, err := this.AsArray().DefineOwnProperty("length", ValueDescriptor(NumberValue(1)), true)
		return Undefined, err
	})
	_, err := arr.DefineOwnProperty("1", AccessorDescriptor(getter, Undefined, true, true), true)
	require.NoError(t, err)

	_, err = arr.Get("1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint32(1), arr.Length())
}

func TestArrayMirror(t *testing.T) {
	t.Parallel()
	r := NewRealm()
	host := []int{7}
	arr, err := r.NewArrayFromHost(&host)
	require.NoError(t, err)
	require.Equal(t, uint32(1), arr.Length())
	assert.Equal(t, float64(7), mustGet(t, arr, "0").AsFloat())

	require.NoError(t, arr.Put("3", NumberValue(42), true))
	assert.Equal(t, []int{7, 0, 0, 42}, host)
	assert.Equal(t, uint32(4), arr.Length())

	require.NoError(t, arr.Put("0", Null, true))
	assert.Equal(t, []int{0, 0, 0, 42}, host)

	err = arr.Put("1", NewString("nope"), true)
	assert.True(t, errors.IsTypeError(err))

	// named keys never reach the mirror
	require.NoError(t, arr.Put("label", NumberValue(1), true))
	assert.Len(t, host, 4)

	// shrinking length does not shrink the mirror
	require.NoError(t, arr.Put("length", NumberValue(1), true))
	assert.Len(t, host, 4)

	assert.Equal(t, []int{0, 0, 0, 42}, mustExport(t, NewValueFromArray(arr)))
	assert.Same(t, &host, arr.Mirror())
}

type point struct{ X, Y int }

func TestArrayMirrorUnwrapsHostObjects(t *testing.T) {
	t.Parallel()
	var host []*point
	arr := NewArray(nil)
	require.NoError(t, arr.BindMirror(&host))

	p := &point{X: 1}
	require.NoError(t, arr.Put("1", NewHostObject(p), true))
	require.Len(t, host, 2)
	assert.Nil(t, host[0])
	assert.Same(t, p, host[1])

	var anyHost []interface{}
	arr2 := NewArray(nil)
	require.NoError(t, arr2.BindMirror(&anyHost))
	require.NoError(t, arr2.Push(NewString("s"), True, NumberValue(2.5), Null))
	assert.Equal(t, []interface{}{"s", true, 2.5, nil}, anyHost)
}

func TestArrayMirrorLimit(t *testing.T) {
	t.Parallel()
	var host []float64
	arr := NewArray(nil, WithMirrorLimit(8))
	require.NoError(t, arr.BindMirror(&host))

	require.NoError(t, arr.Put("7", NumberValue(1), true))
	err := arr.Put("8", NumberValue(1), true)
	require.Error(t, err)
	assert.True(t, errors.IsRangeError(err))
	assert.Len(t, host, 8)
	assert.Equal(t, uint32(8), arr.Length())
}

func TestArrayBindMirrorRejectsNonSlicePointer(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	var s []int
	for _, bad := range []interface{}{s, 3, (*[]int)(nil), &struct{}{}} {
		err := arr.BindMirror(bad)
		assert.True(t, errors.IsTypeError(err), "%T", bad)
	}
	assert.Nil(t, arr.Mirror())
}

func TestArrayToStringAndInspect(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Put("0", NumberValue(1), true))
	require.NoError(t, arr.Put("2", NewString("c"), true))
	v := NewValueFromArray(arr)
	assert.Equal(t, "1,,c", v.ToString())
	assert.Equal(t, `[1, <empty>, "c"]`, v.Inspect())
	assert.True(t, math.IsNaN(v.ToFloat()))
}

func TestArrayMirrorRejectedWriteLeavesNoTrace(t *testing.T) {
	t.Parallel()
	var host []int
	arr := NewArray(nil)
	require.NoError(t, arr.BindMirror(&host))

	require.NoError(t, arr.Put("3", NewObject(nil), false))
	assert.Empty(t, host)
	assert.Equal(t, uint32(0), arr.Length())

	err := arr.Put("3", NewObject(nil), true)
	assert.True(t, errors.IsTypeError(err))
	assert.Empty(t, host)

	require.NoError(t, arr.Put("2", NumberValue(1e300), false))
	assert.Empty(t, host)
	assert.Equal(t, uint32(0), arr.Length())

	require.NoError(t, arr.Put("2", NumberValue(2.7), false))
	assert.Equal(t, []int{0, 0, 3}, host)
	assert.Equal(t, uint32(3), arr.Length())
}

func TestArrayMirrorRoundsHalfToEven(t *testing.T) {
	t.Parallel()
	var ints []int8
	arr := NewArray(nil)
	require.NoError(t, arr.BindMirror(&ints))
	require.NoError(t, arr.Push(NumberValue(2.5), NumberValue(3.5), NumberValue(-0.5), NumberValue(127.4)))
	assert.Equal(t, []int8{2, 4, 0, 127}, ints)

	assert.True(t, errors.IsTypeError(arr.Put("0", NumberValue(127.6), true)))
	assert.True(t, errors.IsTypeError(arr.Put("0", NaN, true)))
	assert.Equal(t, int8(2), ints[0])

	var uints []uint
	arr2 := NewArray(nil)
	require.NoError(t, arr2.BindMirror(&uints))
	assert.True(t, errors.IsTypeError(arr2.Put("0", NumberValue(-1), true)))
	require.NoError(t, arr2.Put("0", NewHostObject(int64(9)), true))
	assert.Equal(t, []uint{9}, uints)
}

func TestArrayMirrorRespectsFrozenLength(t *testing.T) {
	t.Parallel()
	host := []int{1}
	arr, err := NewRealm().NewArrayFromHost(&host)
	require.NoError(t, err)
	_, err = arr.DefineOwnProperty("length", AttributeDescriptor().WithWritable(false), true)
	require.NoError(t, err)

	require.NoError(t, arr.Put("4", NumberValue(5), false))
	assert.Equal(t, []int{1}, host)
	assert.True(t, errors.IsTypeError(arr.Put("4", NumberValue(5), true)))
	assert.Equal(t, []int{1}, host)
}

func TestHugeSparseArray(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Put("4294967294", True, true))
	require.Equal(t, uint32(4294967295), arr.Length())
	v := NewValueFromArray(arr)

	_, err := Export(v)
	assert.True(t, errors.IsRangeError(err))
	_, err = ExportLimited(NewValueFromArray(NewArray(nil)), 0)
	assert.NoError(t, err)

	_, err = arr.Join(",")
	assert.True(t, errors.IsRangeError(err))
	assert.Equal(t, "[object Array]", v.ToString())
	assert.True(t, math.IsNaN(v.ToFloat()))
	assert.Equal(t, "[<4294967294 empty items>, true]", v.Inspect())

	_, err = v.MarshalJSON()
	assert.True(t, errors.IsRangeError(err))

	joined, err := arr.Join("")
	require.NoError(t, err)
	assert.Equal(t, "true", joined)
}

func TestArraySparseJoin(t *testing.T) {
	t.Parallel()
	arr := NewArray(nil)
	require.NoError(t, arr.Put("1", NewString("a"), true))
	require.NoError(t, arr.Put("200", NewString("b"), true))
	require.NoError(t, arr.Put("201", Null, true))
	require.NoError(t, arr.Put("length", NumberValue(205), true))

	s, err := arr.Join("-")
	require.NoError(t, err)
	assert.Equal(t, "-a"+strings.Repeat("-", 199)+"b"+strings.Repeat("-", 4), s)
	assert.Equal(t, `[<empty>, "a", <198 empty items>, "b", null, <3 empty items>]`, NewValueFromArray(arr).Inspect())

	self := NewArray(nil)
	require.NoError(t, self.Push(NumberValue(1), NewValueFromArray(self)))
	assert.Equal(t, "1,", NewValueFromArray(self).ToString())
	assert.Equal(t, "[1, [Circular]]", NewValueFromArray(self).Inspect())
}

func TestRealmMirrorLimitDefaultsToConfig(t *testing.T) {
	t.Parallel()
	assert.Equal(t, config.DefaultMirrorLimit, NewRealm().MirrorLimit())
	assert.Equal(t, 3, NewRealm(WithRealmMirrorLimit(3)).MirrorLimit())
	assert.Equal(t, config.DefaultMirrorLimit, NewRealm(WithRealmMirrorLimit(-1)).MirrorLimit())
}
