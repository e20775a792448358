package driver

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/nooga/jsinterop/pkg/errors"
	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

// ModuleBuilder provides the declarative API for building native modules.
// Exports become properties of the module object; Go functions are wrapped
// so that script arguments are converted to their parameter types.
type ModuleBuilder struct {
	engine  *Engine
	object  *vm.PlainObject
	exports map[string]types.Type
	err     error
}

// NativeModule represents a module declared in Go code. It is built on
// first Require.
type NativeModule struct {
	name    string
	builder func(*ModuleBuilder)

	once    sync.Once
	value   vm.Value
	exports map[string]types.Type
	err     error
}

// Name returns the module name.
func (nm *NativeModule) Name() string { return nm.name }

// DeclareModule registers a native module. Declaring a name again replaces
// the earlier declaration for later Require calls.
func (e *Engine) DeclareModule(name string, builder func(m *ModuleBuilder)) *NativeModule {
	mod := &NativeModule{name: name, builder: builder}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.modules[name]; exists {
		e.logger.WithField("module", name).Warn("Native module declared twice, replacing")
	}
	e.modules[name] = mod
	return mod
}

// Require returns the module object, building it on first use.
func (e *Engine) Require(name string) (vm.Value, error) {
	e.mu.Lock()
	mod, ok := e.modules[name]
	e.mu.Unlock()
	if !ok {
		return vm.Undefined, fmt.Errorf("native module %q is not declared", name)
	}

	mod.once.Do(func() {
		m := e.newModuleBuilder()
		mod.builder(m)
		mod.value = vm.NewValueFromPlainObject(m.object)
		mod.exports = m.exports
		mod.err = m.err
		e.logger.WithField("module", name).WithField("exports", len(m.exports)).Debug("Initialized native module")
	})
	if mod.err != nil {
		return vm.Undefined, fmt.Errorf("building native module %q: %w", name, mod.err)
	}
	return mod.value, nil
}

// ExportTypes returns the host type of every described export of a built
// module.
func (e *Engine) ExportTypes(name string) (map[string]types.Type, error) {
	if _, err := e.Require(name); err != nil {
		return nil, err
	}
	e.mu.Lock()
	mod := e.modules[name]
	e.mu.Unlock()

	out := make(map[string]types.Type, len(mod.exports))
	for k, v := range mod.exports {
		out[k] = v
	}
	return out, nil
}

func (e *Engine) newModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{
		engine:  e,
		object:  e.realm.NewObject(),
		exports: make(map[string]types.Type),
	}
}

// Const adds a read-only export.
func (m *ModuleBuilder) Const(name string, value interface{}) *ModuleBuilder {
	return m.define(name, value, false)
}

// Let adds a writable export.
func (m *ModuleBuilder) Let(name string, value interface{}) *ModuleBuilder {
	return m.define(name, value, true)
}

// Default sets the default export.
func (m *ModuleBuilder) Default(value interface{}) *ModuleBuilder {
	return m.define("default", value, false)
}

// Function adds a Go function. Script arguments are converted to the
// parameter types; a missing argument is treated as undefined. A trailing
// error result is raised to the caller.
func (m *ModuleBuilder) Function(name string, fn interface{}) *ModuleBuilder {
	value, sig, err := m.engine.wrapFunction(name, fn)
	if err != nil {
		m.fail(fmt.Errorf("function %s: %w", name, err))
		return m
	}
	m.exports[name] = sig
	m.put(name, value, false)
	return m
}

// Namespace adds a nested object built by builder.
func (m *ModuleBuilder) Namespace(name string, builder func(ns *ModuleBuilder)) *ModuleBuilder {
	ns := m.engine.newModuleBuilder()
	builder(ns)
	if ns.err != nil {
		m.fail(fmt.Errorf("namespace %s: %w", name, ns.err))
	}
	for k, v := range ns.exports {
		m.exports[name+"."+k] = v
	}
	m.put(name, vm.NewValueFromPlainObject(ns.object), false)
	return m
}

func (m *ModuleBuilder) define(name string, value interface{}, writable bool) *ModuleBuilder {
	if value != nil {
		if ty, err := types.Describe(reflect.TypeOf(value)); err == nil {
			m.exports[name] = ty
		}
	}
	m.put(name, m.engine.ToValue(value), writable)
	return m
}

func (m *ModuleBuilder) put(name string, value vm.Value, writable bool) {
	if _, err := m.object.DefineOwnProperty(name, vm.DataDescriptor(value, writable, true, false), true); err != nil {
		m.fail(err)
	}
}

func (m *ModuleBuilder) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// wrapFunction turns a Go function into a native function whose arguments
// go through the engine's converter.
func (e *Engine) wrapFunction(name string, fn interface{}) (vm.Value, *types.SignatureType, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return vm.Undefined, nil, fmt.Errorf("%T is not a function", fn)
	}
	desc, err := types.Describe(fv.Type())
	if err != nil {
		return vm.Undefined, nil, err
	}
	sig := desc.(*types.SignatureType)

	native := func(this vm.Value, args []vm.Value) (vm.Value, error) {
		in := make([]reflect.Value, sig.Arity())
		for i, param := range sig.ParameterTypes {
			arg, err := e.converter.Convert(vm.ArgumentAt(args, i), param)
			if err != nil {
				return vm.Undefined, errors.NewTypeError("%s: argument %d: %s", name, i, err.Error()).CausedBy(err)
			}
			in[i] = reflect.ValueOf(arg)
			if !in[i].IsValid() {
				in[i] = reflect.Zero(param.GoType())
			}
		}

		out := fv.Call(in)
		if sig.ReturnsError {
			if errV := out[len(out)-1]; !errV.IsNil() {
				return vm.Undefined, errV.Interface().(error)
			}
		}
		if sig.IsVoid {
			return vm.Undefined, nil
		}
		return e.ToValue(out[0].Interface()), nil
	}
	return vm.NewNativeFunction(sig.Arity(), name, native), sig, nil
}
