package vm

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nooga/jsinterop/pkg/config"
	"github.com/nooga/jsinterop/pkg/errors"
	"github.com/nooga/jsinterop/pkg/logging"
)

// NotAnIndex is returned by ParseArrayIndex for keys that are not array
// indices. 2^32-1 itself is reserved and never a valid index.
const NotAnIndex = math.MaxUint32

// DefaultMirrorLimit bounds how far a bound mirror slice may be grown by a
// single indexed write, and how long an array Export materialises.
const DefaultMirrorLimit = config.DefaultMirrorLimit

// maxStringLength caps strings built from arrays by Join and MarshalJSON.
const maxStringLength = 1<<29 - 24

const lengthKey = "length"

var discardLogger = logging.Discard()

// ParseArrayIndex decodes key as an unsigned decimal index. It stops at the
// first non-digit or once the value reaches 2^32-1 and returns NotAnIndex.
// Leading zeros are accepted: "01" decodes to 1.
func ParseArrayIndex(key string) uint32 {
	if len(key) == 0 {
		return NotAnIndex
	}
	var result uint64
	for i := 0; i < len(key); i++ {
		d := key[i] - '0'
		if d > 9 {
			return NotAnIndex
		}
		result = result*10 + uint64(d)
		if result >= NotAnIndex {
			return NotAnIndex
		}
	}
	return uint32(result)
}

// IsArrayIndex reports whether key is an array index and returns it.
func IsArrayIndex(key string) (uint32, bool) {
	idx := ParseArrayIndex(key)
	return idx, idx != NotAnIndex
}

func indexKey(idx uint32) string {
	return strconv.FormatUint(uint64(idx), 10)
}

// ArrayOption configures an ArrayObject at construction.
type ArrayOption func(*ArrayObject)

// WithMirrorLimit caps the length a bound mirror may be grown to.
func WithMirrorLimit(n int) ArrayOption {
	return func(a *ArrayObject) {
		if n > 0 {
			a.mirrorLimit = n
		}
	}
}

// WithLogger sets the logger used for mirror and length diagnostics.
func WithLogger(logger logrus.FieldLogger) ArrayOption {
	return func(a *ArrayObject) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// ArrayObject is the exotic Array: indexed properties live in a sparse map,
// everything else (including "length") in the wrapped base object. The
// length descriptor is cached so reads do not go through the base.
//
// An ArrayObject is not safe for concurrent mutation.
type ArrayObject struct {
	base   Object
	sparse map[uint32]PropertyDescriptor
	length PropertyDescriptor

	mirror      reflect.Value // *[]T, invalid when unbound
	mirrorLimit int

	logger logrus.FieldLogger
}

// NewArray wraps base as an empty array. A nil base gets a fresh ordinary
// object without a prototype.
func NewArray(base Object, opts ...ArrayOption) *ArrayObject {
	if base == nil {
		base = NewPlainObject(nil)
	}
	a := &ArrayObject{
		base:        base,
		sparse:      make(map[uint32]PropertyDescriptor),
		mirrorLimit: DefaultMirrorLimit,
		logger:      discardLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.SetOwnProperty(lengthKey, DataDescriptor(NumberValue(0), true, false, false))
	return a
}

func (a *ArrayObject) Class() string { return "Array" }

// Base returns the wrapped object holding the non-indexed properties.
func (a *ArrayObject) Base() Object { return a.base }

// Length returns the current value of the length property.
func (a *ArrayObject) Length() uint32 {
	v, ok := a.length.Value()
	if !ok || !v.IsNumber() {
		return 0
	}
	return uint32(v.AsFloat())
}

func (a *ArrayObject) GetOwnProperty(key string) PropertyDescriptor {
	if idx, ok := IsArrayIndex(key); ok {
		if desc, found := a.sparse[idx]; found {
			return desc
		}
		return NoProperty
	}
	if key == lengthKey {
		return a.length
	}
	return a.base.GetOwnProperty(key)
}

func (a *ArrayObject) GetProperty(key string) PropertyDescriptor {
	return getPropertyOrdinary(a, key)
}

func (a *ArrayObject) SetOwnProperty(key string, desc PropertyDescriptor) {
	if idx, ok := IsArrayIndex(key); ok {
		a.sparse[idx] = desc
		return
	}
	if key == lengthKey {
		a.length = desc
	}
	a.base.SetOwnProperty(key, desc)
}

func (a *ArrayObject) RemoveOwnProperty(key string) {
	if idx, ok := IsArrayIndex(key); ok {
		delete(a.sparse, idx)
		return
	}
	a.base.RemoveOwnProperty(key)
}

// OwnProperties lists the sparse entries in map order, then the base's own
// properties.
func (a *ArrayObject) OwnProperties() []PropertyEntry {
	baseEntries := a.base.OwnProperties()
	entries := make([]PropertyEntry, 0, len(a.sparse)+len(baseEntries))
	for idx, desc := range a.sparse {
		entries = append(entries, PropertyEntry{Key: indexKey(idx), Descriptor: desc})
	}
	return append(entries, baseEntries...)
}

func (a *ArrayObject) HasOwnProperty(key string) bool {
	if idx, ok := IsArrayIndex(key); ok {
		if idx >= a.Length() {
			return false
		}
		_, found := a.sparse[idx]
		return found
	}
	return a.base.HasOwnProperty(key)
}

func (a *ArrayObject) CanPut(key string) bool {
	return canPutOrdinary(a, key)
}

func (a *ArrayObject) Get(key string) (Value, error) {
	return getOrdinary(a, key)
}

// Put writes value at key. For an index key with a bound mirror the host
// slice is updated before the property itself.
func (a *ArrayObject) Put(key string, value Value, throw bool) error {
	if !a.CanPut(key) {
		if throw {
			return errors.NewTypeError("cannot assign to read only property '%s' of array", key)
		}
		return nil
	}

	if idx, ok := IsArrayIndex(key); ok && a.mirror.IsValid() {
		if idx >= a.Length() && !a.length.Writable().IsTrue() {
			_, err := reject(throw, "cannot add index %d, array length is not writable", idx)
			return err
		}
		if written, err := a.writeMirror(idx, value, throw); !written {
			return err
		}
	}

	return putDescriptorPath(a, key, value, throw)
}

func (a *ArrayObject) Delete(key string, throw bool) (bool, error) {
	idx, ok := IsArrayIndex(key)
	if !ok {
		return a.base.Delete(key, throw)
	}
	desc, found := a.sparse[idx]
	if !found {
		return true, nil
	}
	if !desc.Configurable().IsTrue() {
		return reject(throw, "cannot delete property '%s' of array", key)
	}
	delete(a.sparse, idx)
	_, err := a.base.Delete(key, false)
	return true, err
}

// DefineOwnProperty keeps length consistent with the indexed properties.
func (a *ArrayObject) DefineOwnProperty(key string, desc PropertyDescriptor, throw bool) (bool, error) {
	oldLenDesc := a.length
	oldLen := a.Length()

	if key == lengthKey {
		return a.defineLength(oldLenDesc, oldLen, desc, throw)
	}

	if idx, ok := IsArrayIndex(key); ok {
		if idx >= oldLen && !oldLenDesc.Writable().IsTrue() {
			return reject(throw, "cannot add index %d, array length is not writable", idx)
		}
		succeeded, err := defineOwnPropertyOrdinary(a, key, desc, false)
		if err != nil {
			return false, err
		}
		if !succeeded {
			return reject(throw, "cannot redefine array index %d", idx)
		}
		if idx >= oldLen {
			a.SetOwnProperty(lengthKey, oldLenDesc.WithValue(NumberValue(float64(idx)+1)))
		}
		return true, nil
	}

	return a.base.DefineOwnProperty(key, desc, throw)
}

func (a *ArrayObject) defineLength(oldLenDesc PropertyDescriptor, oldLen uint32, desc PropertyDescriptor, throw bool) (bool, error) {
	value, hasValue := desc.Value()
	if !hasValue {
		return defineOwnPropertyOrdinary(a, lengthKey, desc, throw)
	}

	number := value.ToFloat()
	newLen := toUint32(number)
	if float64(newLen) != number {
		return false, errors.NewRangeError("invalid array length: %s", value.ToString())
	}

	newLenDesc := desc.WithValue(NumberValue(float64(newLen)))
	if newLen >= oldLen {
		return defineOwnPropertyOrdinary(a, lengthKey, newLenDesc, throw)
	}

	if !oldLenDesc.Writable().IsTrue() {
		return reject(throw, "cannot shrink array, length is not writable")
	}

	newWritable := !desc.Writable().IsSet() || desc.Writable().IsTrue()
	if !newWritable {
		newLenDesc = newLenDesc.WithWritable(true)
	}
	succeeded, err := defineOwnPropertyOrdinary(a, lengthKey, newLenDesc, throw)
	if !succeeded || err != nil {
		return false, err
	}

	if uint32(len(a.sparse)) < oldLen-newLen {
		for _, idx := range a.ownIndicesDescending(newLen, oldLen) {
			if ok, _ := a.Delete(indexKey(idx), false); !ok {
				return a.abortShrink(newLenDesc, idx, newWritable, throw)
			}
		}
	} else {
		for oldLen > newLen {
			oldLen--
			if ok, _ := a.Delete(indexKey(oldLen), false); !ok {
				return a.abortShrink(newLenDesc, oldLen, newWritable, throw)
			}
		}
	}

	if !newWritable {
		_, _ = defineOwnPropertyOrdinary(a, lengthKey, AttributeDescriptor().WithWritable(false), false)
	}
	return true, nil
}

// abortShrink pins length just above the index that refused deletion.
func (a *ArrayObject) abortShrink(newLenDesc PropertyDescriptor, failedIdx uint32, newWritable bool, throw bool) (bool, error) {
	newLenDesc = newLenDesc.WithValue(NumberValue(float64(failedIdx) + 1))
	if !newWritable {
		newLenDesc = newLenDesc.WithWritable(false)
	}
	_, _ = defineOwnPropertyOrdinary(a, lengthKey, newLenDesc, false)
	a.logger.WithFields(logrus.Fields{
		"index":  failedIdx,
		"length": failedIdx + 1,
	}).Debug("Array length shrink stopped at non-configurable element")
	return reject(throw, "cannot delete array index %d", failedIdx)
}

// ownIndicesDescending returns the owned indices in [from, to), highest first,
// so a refused deletion leaves the same state as counting down.
func (a *ArrayObject) ownIndicesDescending(from, to uint32) []uint32 {
	keys := a.ownIndices(from, to)
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys
}

// ownIndices returns the owned indices in [from, to) in ascending order.
func (a *ArrayObject) ownIndices(from, to uint32) []uint32 {
	keys := make([]uint32, 0, len(a.sparse))
	for idx := range a.sparse {
		if idx >= from && idx < to {
			keys = append(keys, idx)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// isDense reports whether walking every index below length is cheap
// compared to the number of owned elements. Dense walks go through Get and
// see indexed properties inherited from the prototype chain; sparse walks
// visit owned elements only.
func (a *ArrayObject) isDense() bool {
	return uint64(a.Length()) <= 2*uint64(len(a.sparse))+64
}

func (a *ArrayObject) Prototype() Object  { return a.base.Prototype() }
func (a *ArrayObject) Extensible() bool   { return a.base.Extensible() }
func (a *ArrayObject) PreventExtensions() { a.base.PreventExtensions() }

// Push appends values at the current length.
func (a *ArrayObject) Push(values ...Value) error {
	for _, v := range values {
		if err := a.Put(indexKey(a.Length()), v, true); err != nil {
			return err
		}
	}
	return nil
}

// Join implements Array.prototype.join. Holes, undefined and null render
// as empty strings and a nested array already being joined renders as
// empty. A result longer than the engine's string limit is a RangeError.
func (a *ArrayObject) Join(sep string) (string, error) {
	return a.join(sep, make(map[*ArrayObject]bool))
}

func (a *ArrayObject) join(sep string, active map[*ArrayObject]bool) (string, error) {
	n := a.Length()
	if n == 0 || active[a] {
		return "", nil
	}
	if uint64(n-1)*uint64(len(sep)) > maxStringLength {
		return "", errors.NewRangeError("invalid string length joining array of length %d", n)
	}
	active[a] = true
	defer delete(active, a)

	var b strings.Builder
	element := func(idx uint32) error {
		el, err := a.Get(indexKey(idx))
		if err != nil || el.IsNullish() {
			return err
		}
		if el.IsArray() {
			s, err := el.AsArray().join(",", active)
			if err != nil {
				return err
			}
			b.WriteString(s)
		} else {
			b.WriteString(el.ToString())
		}
		if b.Len() > maxStringLength {
			return errors.NewRangeError("invalid string length joining array of length %d", n)
		}
		return nil
	}

	if a.isDense() {
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				b.WriteString(sep)
			}
			if err := element(i); err != nil {
				return "", err
			}
		}
		return b.String(), nil
	}

	prev := uint32(0)
	gap := func(k uint32) {
		if sep != "" {
			b.WriteString(strings.Repeat(sep, int(k)))
		}
	}
	for _, idx := range a.ownIndices(0, n) {
		gap(idx - prev)
		prev = idx
		if err := element(idx); err != nil {
			return "", err
		}
	}
	gap(n - 1 - prev)
	return b.String(), nil
}

// inspect renders the array for developers, collapsing runs of holes.
func (a *ArrayObject) inspect(active map[*ArrayObject]bool) string {
	if active[a] {
		return "[Circular]"
	}
	active[a] = true
	defer delete(active, a)

	n := a.Length()
	var parts []string
	holes := func(k uint32) {
		switch {
		case k == 1:
			parts = append(parts, "<empty>")
		case k > 1:
			parts = append(parts, fmt.Sprintf("<%d empty items>", k))
		}
	}
	var indices []uint32
	if a.isDense() {
		for i := uint32(0); i < n; i++ {
			if !a.GetOwnProperty(indexKey(i)).IsAbsent() {
				indices = append(indices, i)
			}
		}
	} else {
		indices = a.ownIndices(0, n)
	}

	next := uint32(0)
	for _, idx := range indices {
		holes(idx - next)
		next = idx + 1
		desc := a.GetOwnProperty(indexKey(idx))
		val, ok := desc.Value()
		switch {
		case !ok:
			parts = append(parts, "[Getter/Setter]")
		case val.IsArray():
			parts = append(parts, val.AsArray().inspect(active))
		default:
			parts = append(parts, val.Inspect())
		}
	}
	if n > 0 {
		holes(n - next)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// --- Host mirror ---

// BindMirror attaches a host slice, passed as a pointer to a slice, that
// receives every subsequent indexed write. Existing elements are untouched.
func (a *ArrayObject) BindMirror(slicePtr interface{}) error {
	rv := reflect.ValueOf(slicePtr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return errors.NewTypeError("array mirror must be a non-nil pointer to a slice, got %T", slicePtr)
	}
	a.mirror = rv
	return nil
}

// Mirror returns the bound pointer to slice, or nil.
func (a *ArrayObject) Mirror() interface{} {
	if !a.mirror.IsValid() {
		return nil
	}
	return a.mirror.Interface()
}

// writeMirror stores value at idx of the bound slice, growing it with zero
// values when needed. Nothing is written unless the value fits the element
// type.
func (a *ArrayObject) writeMirror(idx uint32, value Value, throw bool) (bool, error) {
	slice := a.mirror.Elem()
	elemType := slice.Type().Elem()

	hv, ok := mirrorValue(value, elemType)
	if !ok {
		return reject(throw, "cannot store %s in array mirror of %s", value.TypeName(), elemType)
	}

	if int64(idx) >= int64(slice.Len()) {
		if int64(idx) >= int64(a.mirrorLimit) {
			return false, errors.NewRangeError("array mirror cannot grow to %d elements (limit %d)", uint64(idx)+1, a.mirrorLimit)
		}
		n := int(idx) + 1 - slice.Len()
		grown := reflect.AppendSlice(slice, reflect.MakeSlice(slice.Type(), n, n))
		a.logger.WithFields(logrus.Fields{
			"from": slice.Len(),
			"to":   grown.Len(),
			"type": elemType.String(),
		}).Debug("Growing array mirror")
		slice.Set(grown)
		slice = a.mirror.Elem()
	}

	slice.Index(int(idx)).Set(hv)
	return true, nil
}

// mirrorValue turns a script value into a host value of type t. Nullish
// values become t's zero value and host wrappers are unwrapped. Numbers
// stored into integer slots are rounded half to even and must fit.
func mirrorValue(value Value, t reflect.Type) (reflect.Value, bool) {
	var host interface{}
	switch value.Type() {
	case TypeUndefined, TypeNull:
		return reflect.Zero(t), true
	case TypeBoolean:
		host = value.AsBoolean()
	case TypeFloatNumber:
		host = value.AsFloat()
	case TypeString:
		host = value.AsString()
	case TypeHostObject:
		host = value.AsHostObject().Target
	default:
		host = value
	}

	rv := reflect.ValueOf(host)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if isNumericKind(rv.Kind()) && isNumericKind(t.Kind()) {
		return convertNumber(rv, t)
	}
	return reflect.Value{}, false
}

func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		f := numberOf(rv)
		if !math.IsInf(f, 0) && !math.IsNaN(f) && out.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		out.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if rv.Uint() > math.MaxInt64 {
				return reflect.Value{}, false
			}
			i = int64(rv.Uint())
		default:
			f := math.RoundToEven(rv.Float())
			if math.IsNaN(f) || f < -(1<<63) || f >= 1<<63 {
				return reflect.Value{}, false
			}
			i = int64(f)
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, false
		}
		out.SetInt(i)
	default:
		var u uint64
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() < 0 {
				return reflect.Value{}, false
			}
			u = uint64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			u = rv.Uint()
		default:
			f := math.RoundToEven(rv.Float())
			if math.IsNaN(f) || f < 0 || f >= 1<<64 {
				return reflect.Value{}, false
			}
			u = uint64(f)
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, false
		}
		out.SetUint(u)
	}
	return out, true
}

func numberOf(rv reflect.Value) float64 {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	}
	return rv.Float()
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
