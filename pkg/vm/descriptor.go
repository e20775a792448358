package vm

import "strings"

// DescriptorKind discriminates the PropertyDescriptor union.
type DescriptorKind uint8

const (
	DescriptorAbsent   DescriptorKind = iota // "no such property" sentinel
	DescriptorGeneric                        // only enumerable/configurable present
	DescriptorData                           // value and/or writable present
	DescriptorAccessor                       // get and/or set present
)

func (k DescriptorKind) String() string {
	switch k {
	case DescriptorAbsent:
		return "absent"
	case DescriptorGeneric:
		return "generic"
	case DescriptorData:
		return "data"
	case DescriptorAccessor:
		return "accessor"
	}
	return "unknown"
}

// Flag is an optional boolean attribute.
type Flag uint8

const (
	FlagUnset Flag = iota
	FlagFalse
	FlagTrue
)

func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) IsSet() bool  { return f != FlagUnset }
func (f Flag) IsTrue() bool { return f == FlagTrue }

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	}
	return "unset"
}

// PropertyDescriptor is the attribute record backing one property. The data
// payload (value, writable) and the accessor payload (get, set) are mutually
// exclusive; the zero value is the absent sentinel.
type PropertyDescriptor struct {
	kind DescriptorKind

	value    Value
	hasValue bool

	get, set       Value
	hasGet, hasSet bool

	writable     Flag
	enumerable   Flag
	configurable Flag
}

// NoProperty is returned by own-property lookups that find nothing.
var NoProperty = PropertyDescriptor{kind: DescriptorAbsent}

// DataDescriptor builds a fully populated data descriptor.
func DataDescriptor(value Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		kind:         DescriptorData,
		value:        value,
		hasValue:     true,
		writable:     FlagOf(writable),
		enumerable:   FlagOf(enumerable),
		configurable: FlagOf(configurable),
	}
}

// AccessorDescriptor builds a fully populated accessor descriptor. Pass
// Undefined for a missing getter or setter.
func AccessorDescriptor(get, set Value, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		kind:         DescriptorAccessor,
		get:          get,
		set:          set,
		hasGet:       true,
		hasSet:       true,
		enumerable:   FlagOf(enumerable),
		configurable: FlagOf(configurable),
	}
}

// ValueDescriptor carries only a value; used to overwrite the value of an
// existing data property while leaving its attributes alone.
func ValueDescriptor(value Value) PropertyDescriptor {
	return PropertyDescriptor{kind: DescriptorData, value: value, hasValue: true}
}

// AttributeDescriptor returns an empty generic descriptor to be filled with
// the With* builders.
func AttributeDescriptor() PropertyDescriptor {
	return PropertyDescriptor{kind: DescriptorGeneric}
}

func (d PropertyDescriptor) reclassify() PropertyDescriptor {
	switch {
	case d.hasValue || d.writable.IsSet():
		if d.hasGet || d.hasSet {
			panic("property descriptor cannot be both a data and an accessor descriptor")
		}
		d.kind = DescriptorData
	case d.hasGet || d.hasSet:
		d.kind = DescriptorAccessor
	default:
		d.kind = DescriptorGeneric
	}
	return d
}

func (d PropertyDescriptor) WithValue(v Value) PropertyDescriptor {
	d.value, d.hasValue = v, true
	return d.reclassify()
}

func (d PropertyDescriptor) WithWritable(b bool) PropertyDescriptor {
	d.writable = FlagOf(b)
	return d.reclassify()
}

func (d PropertyDescriptor) WithEnumerable(b bool) PropertyDescriptor {
	d.enumerable = FlagOf(b)
	return d.reclassify()
}

func (d PropertyDescriptor) WithConfigurable(b bool) PropertyDescriptor {
	d.configurable = FlagOf(b)
	return d.reclassify()
}

func (d PropertyDescriptor) WithGetter(get Value) PropertyDescriptor {
	d.get, d.hasGet = get, true
	return d.reclassify()
}

func (d PropertyDescriptor) WithSetter(set Value) PropertyDescriptor {
	d.set, d.hasSet = set, true
	return d.reclassify()
}

func (d PropertyDescriptor) Kind() DescriptorKind { return d.kind }

func (d PropertyDescriptor) IsAbsent() bool             { return d.kind == DescriptorAbsent }
func (d PropertyDescriptor) IsDataDescriptor() bool     { return d.kind == DescriptorData }
func (d PropertyDescriptor) IsAccessorDescriptor() bool { return d.kind == DescriptorAccessor }
func (d PropertyDescriptor) IsGenericDescriptor() bool  { return d.kind == DescriptorGeneric }

// Value returns the value field and whether it is present.
func (d PropertyDescriptor) Value() (Value, bool) {
	if !d.hasValue {
		return Undefined, false
	}
	return d.value, true
}

// Getter returns the get field and whether it is present.
func (d PropertyDescriptor) Getter() (Value, bool) {
	if !d.hasGet {
		return Undefined, false
	}
	return d.get, true
}

// Setter returns the set field and whether it is present.
func (d PropertyDescriptor) Setter() (Value, bool) {
	if !d.hasSet {
		return Undefined, false
	}
	return d.set, true
}

func (d PropertyDescriptor) Writable() Flag     { return d.writable }
func (d PropertyDescriptor) Enumerable() Flag   { return d.enumerable }
func (d PropertyDescriptor) Configurable() Flag { return d.configurable }

// hasNoFields reports whether no field at all is present.
func (d PropertyDescriptor) hasNoFields() bool {
	return !d.hasValue && !d.hasGet && !d.hasSet &&
		!d.writable.IsSet() && !d.enumerable.IsSet() && !d.configurable.IsSet()
}

func (d PropertyDescriptor) String() string {
	if d.kind == DescriptorAbsent {
		return "<absent>"
	}
	var parts []string
	if d.hasValue {
		parts = append(parts, "value: "+d.value.Inspect())
	}
	if d.hasGet {
		parts = append(parts, "get: "+d.get.ToString())
	}
	if d.hasSet {
		parts = append(parts, "set: "+d.set.ToString())
	}
	if d.writable.IsSet() {
		parts = append(parts, "writable: "+d.writable.String())
	}
	if d.enumerable.IsSet() {
		parts = append(parts, "enumerable: "+d.enumerable.String())
	}
	if d.configurable.IsSet() {
		parts = append(parts, "configurable: "+d.configurable.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
