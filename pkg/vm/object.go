package vm

// Object is the property-storage capability every script object provides.
// Exotic objects wrap another Object and override the parts of the protocol
// they need; the ordinary algorithms in property_helpers.go are written
// against this interface so they dispatch through the wrapper.
type Object interface {
	// Class is the [[Class]] name ("Object", "Array", ...).
	Class() string

	// GetOwnProperty returns NoProperty when key is not an own property.
	GetOwnProperty(key string) PropertyDescriptor
	// GetProperty searches own properties, then the prototype chain.
	GetProperty(key string) PropertyDescriptor
	// SetOwnProperty stores desc verbatim, without any invariant checks.
	SetOwnProperty(key string, desc PropertyDescriptor)
	// RemoveOwnProperty drops key from storage, without any invariant checks.
	RemoveOwnProperty(key string)
	OwnProperties() []PropertyEntry
	HasOwnProperty(key string) bool

	DefineOwnProperty(key string, desc PropertyDescriptor, throw bool) (bool, error)
	Delete(key string, throw bool) (bool, error)
	CanPut(key string) bool
	Get(key string) (Value, error)
	Put(key string, value Value, throw bool) error

	Prototype() Object
	Extensible() bool
	PreventExtensions()
}

// PropertyEntry is one (key, descriptor) pair of an own-property listing.
type PropertyEntry struct {
	Key        string
	Descriptor PropertyDescriptor
}

// PlainObject is the ordinary object: named properties kept in insertion order.
type PlainObject struct {
	class      string
	prototype  Object
	keys       []string
	properties map[string]PropertyDescriptor
	extensible bool
}

// NewPlainObject creates an extensible ordinary object. proto may be nil.
func NewPlainObject(proto Object) *PlainObject {
	return &PlainObject{
		class:      "Object",
		prototype:  proto,
		properties: make(map[string]PropertyDescriptor),
		extensible: true,
	}
}

// NewObject creates an ordinary object and returns it as a Value.
func NewObject(proto Object) Value {
	return NewValueFromPlainObject(NewPlainObject(proto))
}

func (o *PlainObject) Class() string { return o.class }

func (o *PlainObject) GetOwnProperty(key string) PropertyDescriptor {
	if desc, ok := o.properties[key]; ok {
		return desc
	}
	return NoProperty
}

func (o *PlainObject) GetProperty(key string) PropertyDescriptor {
	return getPropertyOrdinary(o, key)
}

func (o *PlainObject) SetOwnProperty(key string, desc PropertyDescriptor) {
	if _, exists := o.properties[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.properties[key] = desc
}

func (o *PlainObject) RemoveOwnProperty(key string) {
	if _, exists := o.properties[key]; !exists {
		return
	}
	delete(o.properties, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *PlainObject) OwnProperties() []PropertyEntry {
	entries := make([]PropertyEntry, 0, len(o.keys))
	for _, k := range o.keys {
		entries = append(entries, PropertyEntry{Key: k, Descriptor: o.properties[k]})
	}
	return entries
}

func (o *PlainObject) HasOwnProperty(key string) bool {
	_, ok := o.properties[key]
	return ok
}

func (o *PlainObject) DefineOwnProperty(key string, desc PropertyDescriptor, throw bool) (bool, error) {
	return defineOwnPropertyOrdinary(o, key, desc, throw)
}

func (o *PlainObject) Delete(key string, throw bool) (bool, error) {
	return deleteOrdinary(o, key, throw)
}

func (o *PlainObject) CanPut(key string) bool {
	return canPutOrdinary(o, key)
}

func (o *PlainObject) Get(key string) (Value, error) {
	return getOrdinary(o, key)
}

func (o *PlainObject) Put(key string, value Value, throw bool) error {
	return putOrdinary(o, key, value, throw)
}

func (o *PlainObject) Prototype() Object { return o.prototype }

// SetPrototype replaces the prototype link. proto may be nil.
func (o *PlainObject) SetPrototype(proto Object) { o.prototype = proto }

func (o *PlainObject) Extensible() bool   { return o.extensible }
func (o *PlainObject) PreventExtensions() { o.extensible = false }

// --- Convenience accessors used by hosts and tests ---

// GetOwn looks up a direct (own) data property by name. Returns (value, true) if present.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	desc := o.GetOwnProperty(name)
	if desc.IsAbsent() {
		return Undefined, false
	}
	v, _ := desc.Value()
	return v, true
}

// SetOwn creates or overwrites a writable, enumerable, configurable data property.
func (o *PlainObject) SetOwn(name string, value Value) {
	o.SetOwnProperty(name, DataDescriptor(value, true, true, true))
}

// SetOwnNonEnumerable creates or overwrites a non-enumerable data property.
func (o *PlainObject) SetOwnNonEnumerable(name string, value Value) {
	o.SetOwnProperty(name, DataDescriptor(value, true, false, true))
}

// HasOwn reports whether name is an own property.
func (o *PlainObject) HasOwn(name string) bool { return o.HasOwnProperty(name) }

// OwnKeys returns own property names in insertion order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}
