package interop

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

// convertScalar coerces a bool, number or string into the scalar Go type t.
// Formatting and parsing are locale independent. Floats are rounded half to
// even when an integer is wanted; values outside the target range fail.
func convertScalar(src reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !types.IsScalar(src.Kind()) || !types.IsScalar(t.Kind()) {
		return reflect.Value{}, fmt.Errorf("%s is not a scalar conversion", t)
	}
	out := reflect.New(t).Elem()

	switch {
	case t.Kind() == reflect.String:
		out.SetString(formatScalar(src))

	case t.Kind() == reflect.Bool:
		b, err := scalarToBool(src)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)

	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		f, err := scalarToFloat(src)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() == reflect.Float32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", f, t)
		}
		out.SetFloat(f)

	case isSigned(t.Kind()):
		i, err := scalarToInt(src)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", i, t)
		}
		out.SetInt(i)

	default:
		u, err := scalarToUint(src)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", u, t)
		}
		out.SetUint(u)
	}
	return out, nil
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func formatScalar(src reflect.Value) string {
	switch k := src.Kind(); {
	case k == reflect.String:
		return src.String()
	case k == reflect.Bool:
		return strconv.FormatBool(src.Bool())
	case isSigned(k):
		return strconv.FormatInt(src.Int(), 10)
	case types.IsInteger(k):
		return strconv.FormatUint(src.Uint(), 10)
	default:
		return vm.NumberValue(src.Float()).ToString()
	}
}

func scalarToBool(src reflect.Value) (bool, error) {
	switch k := src.Kind(); {
	case k == reflect.Bool:
		return src.Bool(), nil
	case k == reflect.String:
		return strconv.ParseBool(strings.TrimSpace(src.String()))
	case isSigned(k):
		return src.Int() != 0, nil
	case types.IsInteger(k):
		return src.Uint() != 0, nil
	default:
		f := src.Float()
		return f != 0 && !math.IsNaN(f), nil
	}
}

func scalarToFloat(src reflect.Value) (float64, error) {
	switch k := src.Kind(); {
	case k == reflect.Bool:
		if src.Bool() {
			return 1, nil
		}
		return 0, nil
	case k == reflect.String:
		return strconv.ParseFloat(strings.TrimSpace(src.String()), 64)
	case isSigned(k):
		return float64(src.Int()), nil
	case types.IsInteger(k):
		return float64(src.Uint()), nil
	default:
		return src.Float(), nil
	}
}

// 2^63 and 2^64 as float64; every finite float below them fits.
const (
	twoTo63 = 9223372036854775808.0
	twoTo64 = 18446744073709551616.0
)

func scalarToInt(src reflect.Value) (int64, error) {
	switch k := src.Kind(); {
	case k == reflect.Bool:
		if src.Bool() {
			return 1, nil
		}
		return 0, nil
	case k == reflect.String:
		return strconv.ParseInt(strings.TrimSpace(src.String()), 10, 64)
	case isSigned(k):
		return src.Int(), nil
	case types.IsInteger(k):
		u := src.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	default:
		f := math.RoundToEven(src.Float())
		if math.IsNaN(f) || f >= twoTo63 || f < -twoTo63 {
			return 0, fmt.Errorf("%v is not representable as an integer", src.Float())
		}
		return int64(f), nil
	}
}

func scalarToUint(src reflect.Value) (uint64, error) {
	switch k := src.Kind(); {
	case k == reflect.Bool:
		if src.Bool() {
			return 1, nil
		}
		return 0, nil
	case k == reflect.String:
		return strconv.ParseUint(strings.TrimSpace(src.String()), 10, 64)
	case isSigned(k):
		i := src.Int()
		if i < 0 {
			return 0, fmt.Errorf("%d is negative", i)
		}
		return uint64(i), nil
	case types.IsInteger(k):
		return src.Uint(), nil
	default:
		f := math.RoundToEven(src.Float())
		if math.IsNaN(f) || f >= twoTo64 || f < 0 {
			return 0, fmt.Errorf("%v is not representable as an unsigned integer", src.Float())
		}
		return uint64(f), nil
	}
}
