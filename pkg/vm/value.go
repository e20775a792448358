package vm

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unsafe"
)

// cleanExponentialFormat removes leading zeros from exponent to match JS format
// e.g., "1e-07" -> "1e-7", "1e+25" -> "1e+25"
func cleanExponentialFormat(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				sign := s[i+1]
				expStart := i + 2
				j := expStart
				for j < len(s) && s[j] == '0' {
					j++
				}
				if j >= len(s) {
					return s[:i+2] + "0"
				}
				return s[:i+1] + string(sign) + s[j:]
			}
			break
		}
	}
	return s
}

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeString
	TypeFloatNumber
	TypeBoolean

	TypeNativeFunction

	TypeObject
	TypeArray

	TypeHostObject // Go value wrapped for script access
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypeString:
		return "string"
	case TypeFloatNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeNativeFunction:
		return "native function"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeHostObject:
		return "host object"
	default:
		return "unknown"
	}
}

type StringObject struct {
	value string
}

// HostObject wraps an arbitrary Go value so it can travel through script code.
type HostObject struct {
	Target interface{}
}

type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeFloatNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeFloatNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int32) Value {
	return NumberValue(float64(value))
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&StringObject{value: value})}
}

func NewValueFromPlainObject(o *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(o)}
}

func NewValueFromArray(a *ArrayObject) Value {
	return Value{typ: TypeArray, obj: unsafe.Pointer(a)}
}

// NewHostObject wraps target. A nil target yields Null.
func NewHostObject(target interface{}) Value {
	if target == nil {
		return Null
	}
	return Value{typ: TypeHostObject, obj: unsafe.Pointer(&HostObject{Target: target})}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNumber() bool    { return v.typ == TypeFloatNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsArray() bool     { return v.typ == TypeArray }
func (v Value) IsCallable() bool  { return v.typ == TypeNativeFunction }
func (v Value) IsHostObject() bool {
	return v.typ == TypeHostObject
}

// IsObject reports whether v refers to something implementing Object.
func (v Value) IsObject() bool {
	return v.typ == TypeObject || v.typ == TypeArray
}

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool {
	return v.typ == TypeNull || v.typ == TypeUndefined
}

// TypeName returns the name used in diagnostics.
func (v Value) TypeName() string {
	return v.typ.String()
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeFloatNumber {
		panic("value is not a number")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*StringObject)(v.obj).value
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload == 1
}

func (v Value) AsPlainObject() *PlainObject {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return (*PlainObject)(v.obj)
}

func (v Value) AsArray() *ArrayObject {
	if v.typ != TypeArray {
		panic("value is not an array")
	}
	return (*ArrayObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	if v.typ != TypeNativeFunction {
		panic("value is not a native function")
	}
	return (*NativeFunctionObject)(v.obj)
}

func (v Value) AsHostObject() *HostObject {
	if v.typ != TypeHostObject {
		panic("value is not a host object")
	}
	return (*HostObject)(v.obj)
}

// AsObject returns the Object behind v, or nil when v is not an object.
func (v Value) AsObject() Object {
	switch v.typ {
	case TypeObject:
		return (*PlainObject)(v.obj)
	case TypeArray:
		return (*ArrayObject)(v.obj)
	}
	return nil
}

// AsCallable returns the callable behind v, if any.
func (v Value) AsCallable() (Callable, bool) {
	switch v.typ {
	case TypeNativeFunction:
		return (*NativeFunctionObject)(v.obj), true
	case TypeHostObject:
		c, ok := (*HostObject)(v.obj).Target.(Callable)
		return c, ok
	}
	return nil, false
}

func (v Value) ToString() string {
	switch v.typ {
	case TypeString:
		return (*StringObject)(v.obj).value
	case TypeFloatNumber:
		return formatNumber(v.AsFloat())
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeNativeFunction:
		fn := v.AsNativeFunction()
		if fn.Name != "" {
			return fmt.Sprintf("<native function %s>", fn.Name)
		}
		return "<native function>"
	case TypeObject:
		return "[object Object]"
	case TypeArray:
		s, err := v.AsArray().Join(",")
		if err != nil {
			// too long to join
			return "[object Array]"
		}
		return s
	case TypeHostObject:
		return fmt.Sprintf("%v", v.AsHostObject().Target)
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	}
	return fmt.Sprintf("<unknown type %d>", v.typ)
}

// formatNumber implements Number::toString for radix 10.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		return "0"
	}
	absF := math.Abs(f)
	if absF < 1e-6 || absF >= 1e21 {
		return cleanExponentialFormat(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseStringToNumber converts a string to a number following ECMAScript rules
// Handles hex (0x), octal (0o), binary (0b), and decimal (including scientific notation)
func parseStringToNumber(s string) float64 {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0
	}

	if len(str) >= 2 && (strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X")) {
		if i, err := strconv.ParseInt(str[2:], 16, 64); err == nil {
			return float64(i)
		}
		return math.NaN()
	}
	if len(str) >= 2 && (strings.HasPrefix(str, "0b") || strings.HasPrefix(str, "0B")) {
		if i, err := strconv.ParseInt(str[2:], 2, 64); err == nil {
			return float64(i)
		}
		return math.NaN()
	}
	if len(str) >= 2 && (strings.HasPrefix(str, "0o") || strings.HasPrefix(str, "0O")) {
		if i, err := strconv.ParseInt(str[2:], 8, 64); err == nil {
			return float64(i)
		}
		return math.NaN()
	}

	// "Infinity" is case-sensitive, unlike Go's ParseFloat
	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	strLower := strings.ToLower(str)
	if strLower == "infinity" || strLower == "+infinity" || strLower == "-infinity" ||
		strLower == "inf" || strLower == "+inf" || strLower == "-inf" || strLower == "nan" {
		return math.NaN()
	}

	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return f
	}
	return math.NaN()
}

// ToFloat implements ToNumber for the value kinds this package models.
func (v Value) ToFloat() float64 {
	switch v.typ {
	case TypeFloatNumber:
		return v.AsFloat()
	case TypeBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case TypeString:
		return parseStringToNumber(v.AsString())
	case TypeNull:
		return 0
	case TypeArray:
		return parseStringToNumber(v.ToString())
	default:
		return math.NaN()
	}
}

// ToUint32 implements the ECMAScript ToUint32 abstract operation.
func (v Value) ToUint32() uint32 {
	return toUint32(v.ToFloat())
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	i := math.Trunc(f)
	m := math.Mod(i, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

func (v Value) ToBoolean() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.AsBoolean()
	case TypeFloatNumber:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case TypeString:
		return v.AsString() != ""
	default:
		return true
	}
}

// Is implements SameValue.
func (v Value) Is(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return v.payload == other.payload
	case TypeFloatNumber:
		a, b := v.AsFloat(), other.AsFloat()
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		if a == 0 && b == 0 {
			return math.Signbit(a) == math.Signbit(b)
		}
		return a == b
	case TypeString:
		return v.AsString() == other.AsString()
	case TypeHostObject:
		if v.obj == other.obj {
			return true
		}
		a, b := v.AsHostObject().Target, other.AsHostObject().Target
		ta := reflect.TypeOf(a)
		return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
	default:
		return v.obj == other.obj
	}
}

// Inspect returns a developer-facing rendering of v.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeString:
		return strconv.Quote(v.AsString())
	case TypeArray:
		return v.AsArray().inspect(make(map[*ArrayObject]bool))
	case TypeObject:
		o := v.AsPlainObject()
		parts := make([]string, 0)
		for _, entry := range o.OwnProperties() {
			if val, ok := entry.Descriptor.Value(); ok {
				parts = append(parts, entry.Key+": "+val.Inspect())
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.ToString()
}
