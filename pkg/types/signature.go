package types

import (
	"fmt"
	"reflect"
	"strings"
)

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// SignatureType represents a Go function type. A void signature has no
// ReturnType. ReturnsError adds a trailing error result, which is where
// adapters report failures.
type SignatureType struct {
	ParameterTypes []Type
	ReturnType     Type
	IsVoid         bool
	ReturnsError   bool
	goType         reflect.Type
}

// NewSignatureType builds the description and its Go func type. A nil ret
// makes the signature void.
func NewSignatureType(params []Type, ret Type, returnsError bool) *SignatureType {
	in := make([]reflect.Type, len(params))
	for i, p := range params {
		in[i] = p.GoType()
	}
	var out []reflect.Type
	if ret != nil {
		out = append(out, ret.GoType())
	}
	if returnsError {
		out = append(out, errorInterface)
	}
	return &SignatureType{
		ParameterTypes: params,
		ReturnType:     ret,
		IsVoid:         ret == nil,
		ReturnsError:   returnsError,
		goType:         reflect.FuncOf(in, out, false),
	}
}

func (ft *SignatureType) String() string {
	var params strings.Builder
	params.WriteString("func(")
	for i, p := range ft.ParameterTypes {
		if i > 0 {
			params.WriteString(", ")
		}
		params.WriteString(p.String())
	}
	params.WriteString(")")

	switch {
	case ft.IsVoid && ft.ReturnsError:
		params.WriteString(" error")
	case !ft.IsVoid && ft.ReturnsError:
		fmt.Fprintf(&params, " (%s, error)", ft.ReturnType)
	case !ft.IsVoid:
		fmt.Fprintf(&params, " %s", ft.ReturnType)
	}
	return params.String()
}
func (ft *SignatureType) typeNode()              {}
func (ft *SignatureType) Nullable() bool         { return true }
func (ft *SignatureType) GoType() reflect.Type   { return ft.goType }
func (ft *SignatureType) Equals(other Type) bool { return sameGoType(ft, other) }

// Arity is the number of parameters.
func (ft *SignatureType) Arity() int { return len(ft.ParameterTypes) }

func describeFunc(t reflect.Type, d *describer) (Type, error) {
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic function %s is not supported", t)
	}
	params := make([]Type, t.NumIn())
	for i := range params {
		p, err := d.describe(t.In(i))
		if err != nil {
			return nil, fmt.Errorf("parameter %d of %s: %w", i, t, err)
		}
		params[i] = p
	}

	var ret Type
	returnsError := false
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorInterface {
			returnsError = true
			break
		}
		r, err := d.describe(t.Out(0))
		if err != nil {
			return nil, fmt.Errorf("result of %s: %w", t, err)
		}
		ret = r
	case 2:
		if t.Out(1) != errorInterface {
			return nil, fmt.Errorf("second result of %s must be error", t)
		}
		r, err := d.describe(t.Out(0))
		if err != nil {
			return nil, fmt.Errorf("result of %s: %w", t, err)
		}
		ret, returnsError = r, true
	default:
		return nil, fmt.Errorf("function %s has too many results", t)
	}

	sig := NewSignatureType(params, ret, returnsError)
	// keep named func types intact
	sig.goType = t
	return sig, nil
}
