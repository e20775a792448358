package types

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Integer is the constraint satisfied by Go types usable as enums.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumType represents a named integer type with declared members. Values
// converted into an enum are not checked against Members.
type EnumType struct {
	Name    string
	Members map[string]int64
	goType  reflect.Type
}

func (e *EnumType) String() string         { return fmt.Sprintf("enum %s", e.Name) }
func (e *EnumType) typeNode()              {}
func (e *EnumType) GoType() reflect.Type   { return e.goType }
func (e *EnumType) Nullable() bool         { return false }
func (e *EnumType) Equals(other Type) bool { return sameGoType(e, other) }

// Underlying returns the integer kind values are stored as.
func (e *EnumType) Underlying() reflect.Kind { return e.goType.Kind() }

// MemberNames returns the declared member names sorted by value, then name.
func (e *EnumType) MemberNames() []string {
	names := make([]string, 0, len(e.Members))
	for n := range e.Members {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := e.Members[names[i]], e.Members[names[j]]
		if vi != vj {
			return vi < vj
		}
		return names[i] < names[j]
	})
	return names
}

// TypeString lists the members, e.g. "Red | Green | Blue".
func (e *EnumType) TypeString() string {
	return strings.Join(e.MemberNames(), " | ")
}

var enumRegistry = struct {
	sync.RWMutex
	byType map[reflect.Type]*EnumType
}{byType: make(map[reflect.Type]*EnumType)}

// RegisterEnum declares T as an enum with the given members. Registering
// the same type again replaces its member table.
func RegisterEnum[T Integer](members map[string]T) *EnumType {
	goType := reflect.TypeOf((*T)(nil)).Elem()
	e := &EnumType{
		Name:    goType.Name(),
		Members: make(map[string]int64, len(members)),
		goType:  goType,
	}
	if e.Name == "" {
		e.Name = goType.String()
	}
	for name, v := range members {
		e.Members[name] = int64(v)
	}

	enumRegistry.Lock()
	enumRegistry.byType[goType] = e
	enumRegistry.Unlock()
	return e
}

// EnumOf returns the registered description of T, registering T without
// members if it was never declared.
func EnumOf[T Integer]() *EnumType {
	if e := lookupEnum(reflect.TypeOf((*T)(nil)).Elem()); e != nil {
		return e
	}
	return RegisterEnum[T](nil)
}

func lookupEnum(t reflect.Type) *EnumType {
	enumRegistry.RLock()
	defer enumRegistry.RUnlock()
	return enumRegistry.byType[t]
}
