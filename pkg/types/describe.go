package types

import (
	"fmt"
	"reflect"
	"sync"
)

var describeMemo = struct {
	sync.Mutex
	byType map[reflect.Type]Type
}{byType: make(map[reflect.Type]Type)}

// Describe derives the description of a Go type. Results are memoised for
// the life of the process. Enums must be registered with RegisterEnum before
// their first use, otherwise they are described as plain integers.
//
// Supported: bool, integers, floats, string, interfaces, slices,
// *collections.List[T], funcs (non-variadic, at most one result plus an
// optional trailing error), structs and pointers to structs.
func Describe(t reflect.Type) (Type, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot describe a nil type")
	}
	if e := lookupEnum(t); e != nil {
		return e, nil
	}

	describeMemo.Lock()
	defer describeMemo.Unlock()

	if ty, ok := describeMemo.byType[t]; ok {
		return ty, nil
	}
	d := &describer{seen: make(map[reflect.Type]Type)}
	ty, err := d.describe(t)
	if err != nil {
		return nil, err
	}
	for k, v := range d.seen {
		describeMemo.byType[k] = v
	}
	return ty, nil
}

// MustDescribe is like Describe but panics on unsupported types.
func MustDescribe(t reflect.Type) Type {
	ty, err := Describe(t)
	if err != nil {
		panic(err)
	}
	return ty
}

// Of describes T.
func Of[T any]() (Type, error) {
	return Describe(reflect.TypeOf((*T)(nil)).Elem())
}

// describer walks one type graph. Callers hold describeMemo.
type describer struct {
	seen map[reflect.Type]Type
}

func (d *describer) describe(t reflect.Type) (Type, error) {
	if e := lookupEnum(t); e != nil {
		return e, nil
	}
	if ty, ok := d.seen[t]; ok {
		return ty, nil
	}
	if ty, ok := describeMemo.byType[t]; ok {
		return ty, nil
	}

	var (
		ty  Type
		err error
	)
	switch k := t.Kind(); {
	case IsScalar(k) || k == reflect.Interface:
		ty = primitiveFor(t)
	case k == reflect.Slice:
		elem, elemErr := d.describe(t.Elem())
		if elemErr != nil {
			return nil, fmt.Errorf("element of %s: %w", t, elemErr)
		}
		at := &ArrayType{ElementType: elem}
		if t.Name() != "" {
			at.goType = t
		}
		ty = at
	case k == reflect.Ptr:
		if elemT, ok := sequenceElem(t); ok {
			elem, elemErr := d.describe(elemT)
			if elemErr != nil {
				return nil, fmt.Errorf("element of %s: %w", t, elemErr)
			}
			ty = &SequenceType{ElementType: elem, goType: t}
		} else if t.Elem().Kind() == reflect.Struct {
			return describeStruct(t, d)
		} else {
			return nil, fmt.Errorf("unsupported pointer type %s", t)
		}
	case k == reflect.Struct:
		return describeStruct(t, d)
	case k == reflect.Func:
		ty, err = describeFunc(t, d)
	default:
		err = fmt.Errorf("unsupported type %s", t)
	}
	if err != nil {
		return nil, err
	}
	d.seen[t] = ty
	return ty, nil
}

// describeOptional is describe for struct members, which may have types
// without a description.
func (d *describer) describeOptional(t reflect.Type) Type {
	ty, err := d.describe(t)
	if err != nil {
		return nil
	}
	return ty
}

func primitiveFor(t reflect.Type) *Primitive {
	for _, p := range builtinPrimitives {
		if p.goType == t {
			return p
		}
	}
	return &Primitive{Name: t.String(), goType: t}
}
