package vm

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/nooga/jsinterop/pkg/errors"
)

// MarshalJSON implements json.Marshaler for Value, following JSON.stringify:
// undefined and functions become null, non-finite numbers become null,
// array holes become null and objects keep their enumerable own data
// properties in insertion order. Host objects are marshaled as their target.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalValue(&buf, v, make(map[Object]bool)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalValue(buf *bytes.Buffer, v Value, active map[Object]bool) error {
	switch v.Type() {
	case TypeBoolean:
		buf.WriteString(strconv.FormatBool(v.AsBoolean()))
	case TypeFloatNumber:
		f := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(v.ToString())
	case TypeString:
		s, err := json.Marshal(v.AsString())
		if err != nil {
			return err
		}
		buf.Write(s)
	case TypeHostObject:
		s, err := json.Marshal(v.AsHostObject().Target)
		if err != nil {
			return err
		}
		buf.Write(s)
	case TypeArray:
		arr := v.AsArray()
		if active[arr] {
			return errors.NewTypeError("cannot marshal cyclic array")
		}
		// every element takes at least one byte plus its separator
		if uint64(arr.Length())*2 > maxStringLength {
			return errors.NewRangeError("invalid string length marshaling array of length %d", arr.Length())
		}
		active[arr] = true
		defer delete(active, arr)

		buf.WriteByte('[')
		for i := uint32(0); i < arr.Length(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if buf.Len() > maxStringLength {
				return errors.NewRangeError("invalid string length marshaling array of length %d", arr.Length())
			}
			elem, err := arr.Get(indexKey(i))
			if err != nil {
				return err
			}
			if err := marshalValue(buf, elem, active); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeObject:
		obj := v.AsPlainObject()
		if active[obj] {
			return errors.NewTypeError("cannot marshal cyclic object")
		}
		active[obj] = true
		defer delete(active, obj)

		buf.WriteByte('{')
		first := true
		for _, entry := range obj.OwnProperties() {
			if !entry.Descriptor.Enumerable().IsTrue() {
				continue
			}
			prop, ok := entry.Descriptor.Value()
			if !ok || prop.IsUndefined() || prop.IsCallable() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(entry.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := marshalValue(buf, prop, active); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for *Value. Objects and arrays
// are created without prototypes.
func (v *Value) UnmarshalJSON(data []byte) error {
	var intermediate interface{}
	if err := json.Unmarshal(data, &intermediate); err != nil {
		return err
	}
	*v = FromHost(intermediate)
	return nil
}
