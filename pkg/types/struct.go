package types

import (
	"reflect"
	"sort"
	"strings"
)

// MemberKind tells how a struct member is written.
type MemberKind uint8

const (
	SetterMember MemberKind = iota // a SetName(v) method on the pointer receiver
	FieldMember                    // an exported field
)

// Member is one writable member of a struct.
type Member struct {
	Name string
	Kind MemberKind
	// Type is nil when the member's Go type has no description.
	Type   Type
	GoType reflect.Type

	index  []int // field index path
	method int   // method index on the pointer type
}

// StructType represents a Go struct reached through a pointer (or by value
// when the description was derived from a struct type). Members lists the
// setters first, then the fields, each group sorted by name.
type StructType struct {
	Name    string
	Members []*Member
	goType  reflect.Type
}

func (st *StructType) String() string         { return st.Name }
func (st *StructType) typeNode()              {}
func (st *StructType) GoType() reflect.Type   { return st.goType }
func (st *StructType) Equals(other Type) bool { return sameGoType(st, other) }
func (st *StructType) Nullable() bool         { return st.goType.Kind() == reflect.Ptr }

// New allocates a zero instance and returns a pointer to it.
func (st *StructType) New() reflect.Value {
	return reflect.New(st.structType())
}

// Result turns the pointer returned by New into a value of GoType.
func (st *StructType) Result(ptr reflect.Value) reflect.Value {
	if st.goType.Kind() == reflect.Ptr {
		return ptr
	}
	return ptr.Elem()
}

func (st *StructType) structType() reflect.Type {
	if st.goType.Kind() == reflect.Ptr {
		return st.goType.Elem()
	}
	return st.goType
}

// Lookup returns the members whose names match name under fold, setters
// before fields.
func (st *StructType) Lookup(name string, fold func(string) string) []*Member {
	key := fold(name)
	var found []*Member
	for _, m := range st.Members {
		if fold(m.Name) == key {
			found = append(found, m)
		}
	}
	return found
}

// Assign writes v into member m of the struct behind ptr. It reports false
// when v is not assignable to the member's Go type.
func (m *Member) Assign(ptr reflect.Value, v reflect.Value) bool {
	if !v.IsValid() {
		v = reflect.Zero(m.GoType)
	}
	if !v.Type().AssignableTo(m.GoType) {
		return false
	}
	switch m.Kind {
	case SetterMember:
		ptr.Method(m.method).Call([]reflect.Value{v})
	case FieldMember:
		f := ptr.Elem().FieldByIndex(m.index)
		f.Set(v)
	}
	return true
}

func describeStruct(t reflect.Type, d *describer) (Type, error) {
	structT := t
	if t.Kind() == reflect.Ptr {
		structT = t.Elem()
	}
	name := structT.Name()
	if name == "" {
		name = structT.String()
	}
	st := &StructType{Name: name, goType: t}
	// registered before members so self-referencing structs resolve
	d.seen[t] = st

	ptrT := reflect.PointerTo(structT)
	var setters []*Member
	for i := 0; i < ptrT.NumMethod(); i++ {
		method := ptrT.Method(i)
		if !strings.HasPrefix(method.Name, "Set") || len(method.Name) == len("Set") {
			continue
		}
		mt := method.Type // receiver is In(0)
		if mt.NumIn() != 2 || mt.NumOut() != 0 {
			continue
		}
		setters = append(setters, &Member{
			Name:   strings.TrimPrefix(method.Name, "Set"),
			Kind:   SetterMember,
			Type:   d.describeOptional(mt.In(1)),
			GoType: mt.In(1),
			method: i,
		})
	}

	var fields []*Member
	for _, f := range reflect.VisibleFields(structT) {
		if !f.IsExported() || f.Anonymous || len(f.Index) != 1 {
			continue
		}
		fields = append(fields, &Member{
			Name:   f.Name,
			Kind:   FieldMember,
			Type:   d.describeOptional(f.Type),
			GoType: f.Type,
			index:  f.Index,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	st.Members = append(setters, fields...)
	return st, nil
}
