// Package types describes the host (Go) types that script values can be
// converted into. The set of descriptions is closed: primitives, enums,
// slices, growable lists, function signatures and structs.
package types

import (
	"reflect"
)

// Type is the interface implemented by all target type descriptions.
type Type interface {
	// String returns a string representation of the type, suitable for debugging or printing.
	String() string
	// Equals checks if this description denotes the same host type as other.
	Equals(other Type) bool
	// GoType is the concrete Go type produced by a conversion into this description.
	GoType() reflect.Type
	// Nullable reports whether the Go type has a nil value.
	Nullable() bool

	// typeNode() is a marker method to ensure only types defined in this package
	// can be assigned to the Type interface.
	typeNode()
}

// --- Primitive Types ---

// Primitive represents a scalar Go type (bool, integers, floats, string) or
// an interface type. Any is the empty interface.
type Primitive struct {
	Name   string
	goType reflect.Type
}

func (p *Primitive) String() string         { return p.Name }
func (p *Primitive) typeNode()              {}
func (p *Primitive) GoType() reflect.Type   { return p.goType }
func (p *Primitive) Kind() reflect.Kind     { return p.goType.Kind() }
func (p *Primitive) Nullable() bool         { return p.goType.Kind() == reflect.Interface }
func (p *Primitive) Equals(other Type) bool { return sameGoType(p, other) }

func primitiveOf[T any](name string) *Primitive {
	return &Primitive{Name: name, goType: reflect.TypeOf((*T)(nil)).Elem()}
}

// Pre-defined instances for the builtin scalar types
var (
	Bool    = primitiveOf[bool]("bool")
	Int     = primitiveOf[int]("int")
	Int8    = primitiveOf[int8]("int8")
	Int16   = primitiveOf[int16]("int16")
	Int32   = primitiveOf[int32]("int32")
	Int64   = primitiveOf[int64]("int64")
	Uint    = primitiveOf[uint]("uint")
	Uint8   = primitiveOf[uint8]("uint8")
	Uint16  = primitiveOf[uint16]("uint16")
	Uint32  = primitiveOf[uint32]("uint32")
	Uint64  = primitiveOf[uint64]("uint64")
	Float32 = primitiveOf[float32]("float32")
	Float64 = primitiveOf[float64]("float64")
	String  = primitiveOf[string]("string")
	Any     = primitiveOf[interface{}]("any")
)

var builtinPrimitives = []*Primitive{
	Bool, Int, Int8, Int16, Int32, Int64,
	Uint, Uint8, Uint16, Uint32, Uint64,
	Float32, Float64, String, Any,
}

func sameGoType(t Type, other Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return reflect.TypeOf(t) == reflect.TypeOf(other) && t.GoType() == other.GoType()
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func IsInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// IsScalar reports whether k is bool, an integer, a float or string.
func IsScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64:
		return true
	}
	return IsInteger(k)
}
