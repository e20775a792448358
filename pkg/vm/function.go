package vm

import (
	"unsafe"
)

// ScriptFunction is the host-facing shape of a script callable.
type ScriptFunction func(this Value, args []Value) (Value, error)

func (f ScriptFunction) Call(this Value, args []Value) (Value, error) {
	return f(this, args)
}

// Callable is anything that can be invoked with a receiver and arguments.
type Callable interface {
	Call(this Value, args []Value) (Value, error)
}

// NativeFunctionObject represents a Go function callable from script code.
type NativeFunctionObject struct {
	Arity int
	Name  string
	Fn    ScriptFunction
}

// Call invokes the wrapped function. A nil Fn yields undefined.
func (f *NativeFunctionObject) Call(this Value, args []Value) (Value, error) {
	if f.Fn == nil {
		return Undefined, nil
	}
	return f.Fn(this, args)
}

func NewNativeFunction(arity int, name string, fn ScriptFunction) Value {
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{
		Arity: arity,
		Name:  name,
		Fn:    fn,
	})}
}

// ArgumentAt returns args[i], or undefined when fewer arguments were passed.
func ArgumentAt(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
