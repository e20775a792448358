package interop

import (
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// adapter builds a host function of sig's Go type that calls fn. Arguments
// are wrapped as script values, fn runs with an undefined receiver, and the
// result is converted back to the return type with the full rule chain.
//
// Failures are returned through the trailing error result when sig has one.
// Otherwise the adapter panics with the error.
func (c *Converter) adapter(fn vm.Callable, sig *types.SignatureType) reflect.Value {
	ft := sig.GoType()
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]vm.Value, len(in))
		for i, arg := range in {
			args[i] = c.fromHost(arg.Interface())
		}

		var result reflect.Value
		res, err := fn.Call(vm.Undefined, args)
		called := err == nil
		if called && !sig.IsVoid {
			result, err = c.convert(res, sig.ReturnType)
			if err == nil && result.Type() != ft.Out(0) {
				result = result.Convert(ft.Out(0))
			}
		}
		if err != nil {
			entry := c.logger.WithFields(logrus.Fields{
				"signature": sig.String(),
				"arity":     len(in),
			})
			if called {
				// marshaled through Value.MarshalJSON by the json formatter
				entry = entry.WithField("result", res)
			}
			entry.WithError(err).Warn("Script callable failed inside adapter")
			if !sig.ReturnsError {
				panic(err)
			}
		}
		return adapterResults(ft, sig, result, err)
	})
}

func adapterResults(ft reflect.Type, sig *types.SignatureType, result reflect.Value, err error) []reflect.Value {
	out := make([]reflect.Value, 0, ft.NumOut())
	if !sig.IsVoid {
		if err != nil || !result.IsValid() {
			result = reflect.Zero(ft.Out(0))
		}
		out = append(out, result)
	}
	if sig.ReturnsError {
		errV := reflect.New(errorType).Elem()
		if err != nil {
			errV.Set(reflect.ValueOf(err))
		}
		out = append(out, errV)
	}
	return out
}

func (c *Converter) fromHost(x interface{}) vm.Value {
	if c.realm != nil {
		return c.realm.FromHost(x)
	}
	return vm.FromHost(x)
}
