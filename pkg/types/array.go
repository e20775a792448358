package types

import (
	"fmt"
	"reflect"

	"github.com/nooga/jsinterop/pkg/collections"
)

// --- Array Types ---

// ArrayType represents a Go slice of ElementType.
type ArrayType struct {
	ElementType Type
	goType      reflect.Type // set for named slice types
}

// NewArrayType describes []elem.
func NewArrayType(elem Type) *ArrayType {
	return &ArrayType{ElementType: elem}
}

func (at *ArrayType) String() string {
	elemTypeStr := "<nil>"
	if at.ElementType != nil {
		elemTypeStr = at.ElementType.String()
	}
	return fmt.Sprintf("[]%s", elemTypeStr)
}
func (at *ArrayType) typeNode()      {}
func (at *ArrayType) Nullable() bool { return true }
func (at *ArrayType) GoType() reflect.Type {
	if at.goType != nil {
		return at.goType
	}
	return reflect.SliceOf(at.ElementType.GoType())
}
func (at *ArrayType) Equals(other Type) bool {
	otherAt, ok := other.(*ArrayType)
	if !ok {
		return false
	}
	if at == nil || otherAt == nil {
		return at == otherAt
	}
	return at.GoType() == otherAt.GoType()
}

// --- Sequence Types ---

// SequenceType represents *collections.List[T] for the element type T.
type SequenceType struct {
	ElementType Type
	goType      reflect.Type
}

// SequenceOf describes *collections.List[T].
func SequenceOf[T any]() (*SequenceType, error) {
	elem, err := Describe(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return &SequenceType{ElementType: elem, goType: reflect.TypeOf((*collections.List[T])(nil))}, nil
}

func (st *SequenceType) String() string {
	return fmt.Sprintf("List[%s]", st.ElementType)
}
func (st *SequenceType) typeNode()              {}
func (st *SequenceType) Nullable() bool         { return true }
func (st *SequenceType) GoType() reflect.Type   { return st.goType }
func (st *SequenceType) Equals(other Type) bool { return sameGoType(st, other) }

// New allocates an empty list of the described type.
func (st *SequenceType) New() reflect.Value {
	return reflect.New(st.goType.Elem())
}

var sequenceInterface = reflect.TypeOf((*collections.Sequence)(nil)).Elem()

// sequenceElem reports whether t is a pointer to a collections.List and, if
// so, its element type.
func sequenceElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct || !t.Implements(sequenceInterface) {
		return nil, false
	}
	if t.Elem().PkgPath() != sequenceInterface.PkgPath() {
		return nil, false
	}
	seq := reflect.New(t.Elem()).Interface().(collections.Sequence)
	return seq.ElementType(), true
}
