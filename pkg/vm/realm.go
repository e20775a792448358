package vm

import (
	"github.com/sirupsen/logrus"

	"github.com/nooga/jsinterop/pkg/errors"
)

// Realm holds the intrinsic prototypes that new objects and arrays link to,
// plus the settings shared by the arrays it creates.
type Realm struct {
	ObjectPrototype *PlainObject
	ArrayPrototype  *PlainObject

	mirrorLimit int
	logger      logrus.FieldLogger
}

// RealmOption configures a Realm.
type RealmOption func(*Realm)

// WithRealmMirrorLimit sets the mirror growth limit for arrays made by the realm.
func WithRealmMirrorLimit(n int) RealmOption {
	return func(r *Realm) {
		if n > 0 {
			r.mirrorLimit = n
		}
	}
}

// WithRealmLogger sets the logger handed to arrays made by the realm.
func WithRealmLogger(logger logrus.FieldLogger) RealmOption {
	return func(r *Realm) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRealm creates a realm with Object.prototype and Array.prototype wired.
func NewRealm(opts ...RealmOption) *Realm {
	r := &Realm{
		mirrorLimit: DefaultMirrorLimit,
		logger:      discardLogger,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ObjectPrototype = NewPlainObject(nil)
	r.ArrayPrototype = NewPlainObject(r.ObjectPrototype)
	r.ArrayPrototype.class = "Array"

	r.ObjectPrototype.SetOwnNonEnumerable("hasOwnProperty", NewNativeFunction(1, "hasOwnProperty",
		func(this Value, args []Value) (Value, error) {
			obj := this.AsObject()
			if obj == nil {
				return False, nil
			}
			return BooleanValue(obj.HasOwnProperty(ArgumentAt(args, 0).ToString())), nil
		}))
	r.ArrayPrototype.SetOwnNonEnumerable("push", NewNativeFunction(1, "push",
		func(this Value, args []Value) (Value, error) {
			if !this.IsArray() {
				return Undefined, errors.NewTypeError("push called on %s", this.TypeName())
			}
			arr := this.AsArray()
			if err := arr.Push(args...); err != nil {
				return Undefined, err
			}
			return NumberValue(float64(arr.Length())), nil
		}))
	return r
}

// MirrorLimit returns the mirror growth limit of arrays made by the realm.
func (r *Realm) MirrorLimit() int { return r.mirrorLimit }

// Logger returns the realm's logger.
func (r *Realm) Logger() logrus.FieldLogger { return r.logger }

// NewObject creates an ordinary object inheriting from Object.prototype.
func (r *Realm) NewObject() *PlainObject {
	return NewPlainObject(r.ObjectPrototype)
}

func (r *Realm) newArrayObject() *ArrayObject {
	return NewArray(NewPlainObject(r.ArrayPrototype), WithMirrorLimit(r.mirrorLimit), WithLogger(r.logger))
}

// NewArray creates an empty array inheriting from Array.prototype.
func (r *Realm) NewArray() *ArrayObject {
	return r.newArrayObject()
}

// NewArrayFromValues creates a dense array holding values.
func (r *Realm) NewArrayFromValues(values ...Value) *ArrayObject {
	arr := r.newArrayObject()
	for i, v := range values {
		arr.SetOwnProperty(indexKey(uint32(i)), DataDescriptor(v, true, true, true))
	}
	arr.SetOwnProperty(lengthKey, arr.length.WithValue(NumberValue(float64(len(values)))))
	return arr
}

// NewArrayFromHost creates an array holding the elements of *slicePtr and
// binds the slice as its mirror, so script writes land in host memory.
func (r *Realm) NewArrayFromHost(slicePtr interface{}) (*ArrayObject, error) {
	arr := r.newArrayObject()
	if err := arr.BindMirror(slicePtr); err != nil {
		return nil, err
	}
	slice := arr.mirror.Elem()
	for i := 0; i < slice.Len(); i++ {
		arr.SetOwnProperty(indexKey(uint32(i)), DataDescriptor(r.FromHost(slice.Index(i).Interface()), true, true, true))
	}
	arr.SetOwnProperty(lengthKey, arr.length.WithValue(NumberValue(float64(slice.Len()))))
	return arr, nil
}

// FromHost is like the package-level FromHost but links created objects and
// arrays to this realm's prototypes.
func (r *Realm) FromHost(x interface{}) Value {
	return fromHost(r, x)
}
