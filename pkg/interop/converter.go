package interop

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/nooga/jsinterop/pkg/errors"
	"github.com/nooga/jsinterop/pkg/types"
	"github.com/nooga/jsinterop/pkg/vm"
)

var valueType = reflect.TypeOf(vm.Value{})

// Convert turns value into a host value of target's Go type. A vm.Value is
// exported first unless target is vm.Value itself. It fails with a
// *errors.ConversionError when no rule applies.
func (c *Converter) Convert(value interface{}, target types.Type) (interface{}, error) {
	out, err := c.convert(value, target)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// ConvertTo converts value to T using the description of T.
func ConvertTo[T any](c *Converter, value interface{}) (T, error) {
	var zero T
	target, err := types.Of[T]()
	if err != nil {
		return zero, &errors.ConversionError{
			Source: sourceName(value),
			Target: reflect.TypeOf((*T)(nil)).Elem().String(),
			Cause:  err,
		}
	}
	out, err := c.Convert(value, target)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// TryConvert is Convert without an error. Pairs already seen are answered
// from the cache: a pair recorded as not convertible fails without trying,
// a pair recorded as convertible is converted again.
//
// Host code run by a conversion, such as a setter, may call TryConvert on
// the same cache for other pairs. Asking for the pair being converted from
// inside its own conversion blocks.
func (c *Converter) TryConvert(value interface{}, target types.Type) (interface{}, bool) {
	if target == nil {
		return nil, false
	}
	if v, ok := value.(vm.Value); ok && target.GoType() != valueType {
		exported, err := c.export(v)
		if err != nil {
			c.logger.WithError(err).WithField("target", target.String()).Debug("Value cannot be exported")
			return nil, false
		}
		value = exported
	}
	if value != nil && reflect.TypeOf(value).AssignableTo(target.GoType()) {
		out, err := c.convertSafe(value, target)
		return out, err == nil
	}
	if c.cache == nil {
		out, err := c.convertSafe(value, target)
		return out, err == nil
	}

	key := newCacheKey(value, target)
	for {
		if convertible, ok := c.cache.lookup(key); ok {
			c.cache.hits.Add(1)
			return c.convertKnown(convertible, value, target)
		}
		convertible, known, wait := c.cache.acquire(key)
		if known {
			c.cache.hits.Add(1)
			return c.convertKnown(convertible, value, target)
		}
		if wait == nil {
			break
		}
		<-wait
	}

	c.cache.misses.Add(1)
	c.cache.attempts.Add(1)
	out, err := c.convertSafe(value, target)
	convertible := c.cache.settle(key, err == nil)

	entry := c.logger.WithFields(logrus.Fields{
		"source":      sourceName(value),
		"target":      target.String(),
		"convertible": convertible,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("Recorded conversion verdict")

	if err != nil {
		return nil, false
	}
	return out, true
}

func (c *Converter) convertKnown(convertible bool, value interface{}, target types.Type) (interface{}, bool) {
	if !convertible {
		return nil, false
	}
	out, err := c.convertSafe(value, target)
	if err != nil {
		c.logger.WithError(err).WithField("target", target.String()).Debug("Cached pair failed to convert")
		return nil, false
	}
	return out, true
}

// convertSafe runs Convert and turns a panic raised by host code, such as a
// setter, into an error.
func (c *Converter) convertSafe(value interface{}, target types.Type) (out interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = (&errors.ConversionError{
				Source: sourceName(value),
				Target: target.String(),
				Msg:    "conversion panicked",
			}).CausedBy(fmt.Errorf("%v", r))
		}
	}()
	return c.Convert(value, target)
}

// convert returns a value whose type is exactly target.GoType().
func (c *Converter) convert(value interface{}, target types.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, &errors.ConversionError{Source: sourceName(value), Target: "<nil>", Msg: "no target type"}
	}
	goType := target.GoType()
	if v, ok := value.(vm.Value); ok {
		if goType == valueType {
			return reflect.ValueOf(v), nil
		}
		exported, err := c.export(v)
		if err != nil {
			return reflect.Value{}, conversionError(v, target, err.Error()).CausedBy(err)
		}
		value = exported
	}

	// null
	if value == nil {
		if target.Nullable() {
			return reflect.Zero(goType), nil
		}
		return reflect.Value{}, conversionError(value, target, "")
	}

	// identity
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(goType) {
		out := reflect.New(goType).Elem()
		out.Set(rv)
		return out, nil
	}

	// property bag
	if bag, ok := value.(map[string]interface{}); ok {
		if st, ok := target.(*types.StructType); ok {
			return c.convertBag(bag, st)
		}
	}

	switch t := target.(type) {
	case *types.EnumType:
		out, err := convertScalar(rv, goType)
		if err != nil {
			return reflect.Value{}, conversionError(value, target, "").CausedBy(err)
		}
		return out, nil

	case *types.SignatureType:
		if fn, ok := asCallable(value); ok {
			return c.adapter(fn, t), nil
		}

	case *types.ArrayType:
		items, err := c.convertElements(value, t.ElementType, target)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(goType, len(items), len(items))
		for i, item := range items {
			out.Index(i).Set(item)
		}
		return out, nil

	case *types.SequenceType:
		items, err := c.convertElements(value, t.ElementType, target)
		if err != nil {
			return reflect.Value{}, err
		}
		batch := reflect.MakeSlice(reflect.SliceOf(t.ElementType.GoType()), len(items), len(items))
		for i, item := range items {
			batch.Index(i).Set(item)
		}
		list := t.New()
		list.MethodByName("AppendAll").Call([]reflect.Value{batch})
		return list, nil
	}

	// scalar coercion
	out, err := convertScalar(rv, goType)
	if err != nil {
		return reflect.Value{}, conversionError(value, target, "").CausedBy(err)
	}
	return out, nil
}

// export turns a script value into host form. Arrays longer than the
// realm's mirror limit are refused rather than materialised.
func (c *Converter) export(v vm.Value) (interface{}, error) {
	limit := vm.DefaultMirrorLimit
	if c.realm != nil {
		limit = c.realm.MirrorLimit()
	}
	return vm.ExportLimited(v, limit)
}

func (c *Converter) convertBag(bag map[string]interface{}, st *types.StructType) (reflect.Value, error) {
	ptr := st.New()
	fold := cases.Fold()

	names := make([]string, 0, len(bag))
	for name := range bag {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		members := st.Lookup(name, fold.String)
		if len(members) == 0 {
			continue
		}
		m := members[0]
		if !m.Assign(ptr, reflect.ValueOf(bag[name])) {
			return reflect.Value{}, conversionError(bag, st,
				fmt.Sprintf("member %s of type %s cannot hold %s", m.Name, m.GoType, sourceName(bag[name])))
		}
	}
	return st.Result(ptr), nil
}

// convertElements converts every element of an ordered sequence to elem.
func (c *Converter) convertElements(value interface{}, elem types.Type, target types.Type) ([]reflect.Value, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, conversionError(value, target, "not an ordered sequence")
	}
	items := make([]reflect.Value, rv.Len())
	for i := range items {
		item, err := c.convert(rv.Index(i).Interface(), elem)
		if err != nil {
			return nil, conversionError(value, target, fmt.Sprintf("element %d", i)).CausedBy(err)
		}
		items[i] = item
	}
	return items, nil
}

func asCallable(value interface{}) (vm.Callable, bool) {
	switch fn := value.(type) {
	case vm.Callable:
		return fn, true
	case func(this vm.Value, args []vm.Value) (vm.Value, error):
		return vm.ScriptFunction(fn), true
	}
	return nil, false
}

func conversionError(value interface{}, target types.Type, msg string) *errors.ConversionError {
	return &errors.ConversionError{Source: sourceName(value), Target: target.String(), Msg: msg}
}

// sourceName is the runtime type name reported in conversion errors.
func sourceName(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case vm.Value:
		return v.TypeName()
	}
	return reflect.TypeOf(value).String()
}
