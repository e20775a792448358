package vm

import (
	"reflect"

	"github.com/nooga/jsinterop/pkg/errors"
)

// Export turns a script value into its natural host representation:
//
//	undefined, null -> nil
//	boolean, number, string -> bool, float64, string
//	plain object -> map[string]any of enumerable own data properties
//	array -> the bound mirror slice, or []any with nil for holes
//	native function -> ScriptFunction
//	host object -> its Target
//
// Arrays without a mirror are materialised densely, so any array longer
// than DefaultMirrorLimit fails with a RangeError. Use ExportLimited to
// pick another bound.
func Export(v Value) (interface{}, error) {
	return ExportLimited(v, DefaultMirrorLimit)
}

// ExportLimited is Export with maxLength bounding the length of every
// array it has to materialise.
func ExportLimited(v Value, maxLength int) (interface{}, error) {
	if maxLength < 0 {
		maxLength = 0
	}
	e := exporter{limit: uint64(maxLength), seen: make(map[Object]interface{})}
	return e.export(v)
}

type exporter struct {
	limit uint64
	seen  map[Object]interface{}
}

func (e *exporter) export(v Value) (interface{}, error) {
	switch v.Type() {
	case TypeUndefined, TypeNull:
		return nil, nil
	case TypeBoolean:
		return v.AsBoolean(), nil
	case TypeFloatNumber:
		return v.AsFloat(), nil
	case TypeString:
		return v.AsString(), nil
	case TypeNativeFunction:
		fn := v.AsNativeFunction()
		return ScriptFunction(fn.Call), nil
	case TypeHostObject:
		return v.AsHostObject().Target, nil
	case TypeObject:
		o := v.AsPlainObject()
		if done, ok := e.seen[o]; ok {
			return done, nil
		}
		bag := make(map[string]interface{})
		e.seen[o] = bag
		for _, entry := range o.OwnProperties() {
			if !entry.Descriptor.Enumerable().IsTrue() {
				continue
			}
			if val, ok := entry.Descriptor.Value(); ok {
				hv, err := e.export(val)
				if err != nil {
					return nil, err
				}
				bag[entry.Key] = hv
			}
		}
		return bag, nil
	case TypeArray:
		arr := v.AsArray()
		if m := arr.Mirror(); m != nil {
			return reflect.ValueOf(m).Elem().Interface(), nil
		}
		if done, ok := e.seen[arr]; ok {
			return done, nil
		}
		if uint64(arr.Length()) > e.limit {
			return nil, errors.NewRangeError("cannot export array of length %d, limit is %d", arr.Length(), e.limit)
		}
		items := make([]interface{}, arr.Length())
		e.seen[arr] = items
		for idx, desc := range arr.sparse {
			if idx >= uint32(len(items)) {
				continue
			}
			if val, ok := desc.Value(); ok {
				hv, err := e.export(val)
				if err != nil {
					return nil, err
				}
				items[idx] = hv
			}
		}
		return items, nil
	}
	return nil, nil
}

// FromHost wraps a host value for script code. Numbers of any Go kind
// become numbers, slices become dense arrays, string-keyed maps become plain
// objects and everything else is carried as a host object. Composite values
// are created without prototypes; use Realm.FromHost to attach them.
func FromHost(x interface{}) Value {
	return fromHost(nil, x)
}

func fromHost(r *Realm, x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return BooleanValue(t)
	case string:
		return NewString(t)
	case float64:
		return NumberValue(t)
	case int:
		return NumberValue(float64(t))
	case ScriptFunction:
		return NewNativeFunction(0, "", t)
	case func(this Value, args []Value) (Value, error):
		return NewNativeFunction(0, "", t)
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberValue(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NumberValue(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NumberValue(rv.Float())
	case reflect.Bool:
		return BooleanValue(rv.Bool())
	case reflect.String:
		return NewString(rv.String())
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func:
		if rv.IsNil() {
			return Null
		}
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return sliceToArray(r, rv)
		}
	}

	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		var proto Object
		if r != nil {
			proto = r.ObjectPrototype
		}
		obj := NewPlainObject(proto)
		iter := rv.MapRange()
		for iter.Next() {
			obj.SetOwn(iter.Key().String(), fromHost(r, iter.Value().Interface()))
		}
		return NewValueFromPlainObject(obj)
	}
	return NewHostObject(x)
}

func sliceToArray(r *Realm, rv reflect.Value) Value {
	var arr *ArrayObject
	if r != nil {
		arr = r.newArrayObject()
	} else {
		arr = NewArray(nil)
	}
	for i := 0; i < rv.Len(); i++ {
		arr.SetOwnProperty(indexKey(uint32(i)), DataDescriptor(fromHost(r, rv.Index(i).Interface()), true, true, true))
	}
	arr.SetOwnProperty(lengthKey, arr.length.WithValue(NumberValue(float64(rv.Len()))))
	return NewValueFromArray(arr)
}
