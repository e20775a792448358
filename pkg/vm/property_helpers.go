package vm

import (
	"github.com/nooga/jsinterop/pkg/errors"
)

// The ordinary property algorithms. Each takes the receiver as an Object so
// that an exotic wrapper passes itself and its storage overrides are honoured.

// objectValue returns the Value that carries o, used as `this` for accessors.
func objectValue(o Object) Value {
	switch obj := o.(type) {
	case *PlainObject:
		return NewValueFromPlainObject(obj)
	case *ArrayObject:
		return NewValueFromArray(obj)
	}
	return NewHostObject(o)
}

func reject(throw bool, format string, args ...interface{}) (bool, error) {
	if throw {
		return false, errors.NewTypeError(format, args...)
	}
	return false, nil
}

func getPropertyOrdinary(o Object, key string) PropertyDescriptor {
	if desc := o.GetOwnProperty(key); !desc.IsAbsent() {
		return desc
	}
	proto := o.Prototype()
	if proto == nil {
		return NoProperty
	}
	return proto.GetProperty(key)
}

func getOrdinary(o Object, key string) (Value, error) {
	desc := o.GetProperty(key)
	switch desc.Kind() {
	case DescriptorData:
		v, _ := desc.Value()
		return v, nil
	case DescriptorAccessor:
		getter, _ := desc.Getter()
		fn, ok := getter.AsCallable()
		if !ok {
			return Undefined, nil
		}
		return fn.Call(objectValue(o), nil)
	}
	return Undefined, nil
}

func canPutOrdinary(o Object, key string) bool {
	desc := o.GetOwnProperty(key)
	if !desc.IsAbsent() {
		if desc.IsAccessorDescriptor() {
			setter, _ := desc.Setter()
			return !setter.IsUndefined()
		}
		return desc.Writable().IsTrue()
	}

	proto := o.Prototype()
	if proto == nil {
		return o.Extensible()
	}
	inherited := proto.GetProperty(key)
	if inherited.IsAbsent() {
		return o.Extensible()
	}
	if inherited.IsAccessorDescriptor() {
		setter, _ := inherited.Setter()
		return !setter.IsUndefined()
	}
	if !o.Extensible() {
		return false
	}
	return inherited.Writable().IsTrue()
}

func putOrdinary(o Object, key string, value Value, throw bool) error {
	if !o.CanPut(key) {
		if throw {
			return errors.NewTypeError("cannot assign to read only property '%s'", key)
		}
		return nil
	}
	return putDescriptorPath(o, key, value, throw)
}

// putDescriptorPath is the part of [[Put]] after the CanPut check.
func putDescriptorPath(o Object, key string, value Value, throw bool) error {
	if own := o.GetOwnProperty(key); own.IsDataDescriptor() {
		_, err := o.DefineOwnProperty(key, ValueDescriptor(value), throw)
		return err
	}

	desc := o.GetProperty(key)
	if desc.IsAccessorDescriptor() {
		setter, _ := desc.Setter()
		fn, ok := setter.AsCallable()
		if !ok {
			if throw {
				return errors.NewTypeError("setter for '%s' is not callable", key)
			}
			return nil
		}
		_, err := fn.Call(objectValue(o), []Value{value})
		return err
	}

	_, err := o.DefineOwnProperty(key, DataDescriptor(value, true, true, true), throw)
	return err
}

func deleteOrdinary(o Object, key string, throw bool) (bool, error) {
	desc := o.GetOwnProperty(key)
	if desc.IsAbsent() {
		return true, nil
	}
	if desc.Configurable().IsTrue() {
		o.RemoveOwnProperty(key)
		return true, nil
	}
	return reject(throw, "cannot delete property '%s'", key)
}

// defineOwnPropertyOrdinary is ValidateAndApplyPropertyDescriptor over o's
// own storage.
func defineOwnPropertyOrdinary(o Object, key string, desc PropertyDescriptor, throw bool) (bool, error) {
	current := o.GetOwnProperty(key)

	if current.IsAbsent() {
		if !o.Extensible() {
			return reject(throw, "cannot define property '%s', object is not extensible", key)
		}
		if desc.IsAccessorDescriptor() {
			get, _ := desc.Getter()
			set, _ := desc.Setter()
			o.SetOwnProperty(key, AccessorDescriptor(get, set,
				desc.Enumerable().IsTrue(), desc.Configurable().IsTrue()))
		} else {
			v, _ := desc.Value()
			o.SetOwnProperty(key, DataDescriptor(v,
				desc.Writable().IsTrue(), desc.Enumerable().IsTrue(), desc.Configurable().IsTrue()))
		}
		return true, nil
	}

	if desc.hasNoFields() || sameDescriptorFields(current, desc) {
		return true, nil
	}

	if !current.Configurable().IsTrue() {
		if desc.Configurable().IsTrue() {
			return reject(throw, "cannot redefine property: %s", key)
		}
		if desc.Enumerable().IsSet() && desc.Enumerable() != current.Enumerable() {
			return reject(throw, "cannot redefine property: %s", key)
		}
	}

	merged := current
	switch {
	case desc.IsGenericDescriptor():
		// attribute-only change, validated above
	case current.IsDataDescriptor() != desc.IsDataDescriptor():
		if !current.Configurable().IsTrue() {
			return reject(throw, "cannot redefine property: %s", key)
		}
		if current.IsDataDescriptor() {
			merged = AccessorDescriptor(Undefined, Undefined,
				current.Enumerable().IsTrue(), current.Configurable().IsTrue())
		} else {
			merged = DataDescriptor(Undefined, false,
				current.Enumerable().IsTrue(), current.Configurable().IsTrue())
		}
	case current.IsDataDescriptor():
		if !current.Configurable().IsTrue() && !current.Writable().IsTrue() {
			if desc.Writable().IsTrue() {
				return reject(throw, "cannot redefine property: %s", key)
			}
			if v, ok := desc.Value(); ok {
				cur, _ := current.Value()
				if !v.Is(cur) {
					return reject(throw, "cannot assign to read only property '%s'", key)
				}
			}
		}
	default:
		if !current.Configurable().IsTrue() {
			if set, ok := desc.Setter(); ok {
				cur, _ := current.Setter()
				if !set.Is(cur) {
					return reject(throw, "cannot redefine property: %s", key)
				}
			}
			if get, ok := desc.Getter(); ok {
				cur, _ := current.Getter()
				if !get.Is(cur) {
					return reject(throw, "cannot redefine property: %s", key)
				}
			}
		}
	}

	o.SetOwnProperty(key, mergeDescriptor(merged, desc))
	return true, nil
}

// sameDescriptorFields reports whether every field present in desc is also
// present in current with the same value.
func sameDescriptorFields(current, desc PropertyDescriptor) bool {
	if v, ok := desc.Value(); ok {
		cur, has := current.Value()
		if !has || !v.Is(cur) {
			return false
		}
	}
	if g, ok := desc.Getter(); ok {
		cur, has := current.Getter()
		if !has || !g.Is(cur) {
			return false
		}
	}
	if s, ok := desc.Setter(); ok {
		cur, has := current.Setter()
		if !has || !s.Is(cur) {
			return false
		}
	}
	if desc.Writable().IsSet() && desc.Writable() != current.Writable() {
		return false
	}
	if desc.Enumerable().IsSet() && desc.Enumerable() != current.Enumerable() {
		return false
	}
	if desc.Configurable().IsSet() && desc.Configurable() != current.Configurable() {
		return false
	}
	return true
}

// mergeDescriptor copies every field present in desc onto base.
func mergeDescriptor(base, desc PropertyDescriptor) PropertyDescriptor {
	if v, ok := desc.Value(); ok {
		base = base.WithValue(v)
	}
	if desc.Writable().IsSet() {
		base = base.WithWritable(desc.Writable().IsTrue())
	}
	if g, ok := desc.Getter(); ok {
		base = base.WithGetter(g)
	}
	if s, ok := desc.Setter(); ok {
		base = base.WithSetter(s)
	}
	if desc.Enumerable().IsSet() {
		base = base.WithEnumerable(desc.Enumerable().IsTrue())
	}
	if desc.Configurable().IsSet() {
		base = base.WithConfigurable(desc.Configurable().IsTrue())
	}
	return base
}
