package resapp

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

// fabricator creates exactly one instance per resource type. Types with a
// registered factory are built by a dig container; pointer-to-struct types
// without one get a zero value from reflect.New.
type fabricator struct {
	c           *dig.Container
	factories   map[reflect.Type][]reflect.Type // out type -> parameter types
	supplied    map[reflect.Type]bool
	provided    map[reflect.Type]bool
	constructed map[reflect.Type]reflect.Value
	inherited   func(reflect.Type) (reflect.Value, bool)
}

// newFabricator provides supplies and factories to a fresh dig container.
// Factory parameters that are inherited resources or pointer-to-struct
// resources are provided too, so dig hands factories the same instances the
// graph holds. Factories for inherited types are skipped.
func newFabricator(factories, supplies []any, inherited func(reflect.Type) (reflect.Value, bool)) (*fabricator, error) {
	f := &fabricator{
		c:           dig.New(dig.RecoverFromPanics()),
		factories:   make(map[reflect.Type][]reflect.Type),
		supplied:    make(map[reflect.Type]bool),
		provided:    make(map[reflect.Type]bool),
		constructed: make(map[reflect.Type]reflect.Value),
		inherited:   inherited,
	}

	for _, v := range supplies {
		if v == nil {
			return nil, GraphResolutionError{Cause: fmt.Errorf("supplied value: %w", ErrNilInstance)}
		}
		t := reflect.TypeOf(v)
		if err := f.provide(t, constant(t, reflect.ValueOf(v))); err != nil {
			return nil, err
		}
		f.supplied[t] = true
	}

	for _, fn := range factories {
		ft := reflect.TypeOf(fn)
		if !isFactory(ft) {
			return nil, GraphResolutionError{Type: ft, Cause: ErrInvalidFactory}
		}

		out := ft.Out(0)
		if _, ok := inherited(out); ok {
			continue
		}

		if err := f.provide(out, fn); err != nil {
			return nil, err
		}

		params := make([]reflect.Type, 0, ft.NumIn())
		for i := 0; i < ft.NumIn(); i++ {
			params = append(params, ft.In(i))
		}
		f.factories[out] = params
	}

	// Bridge factory parameters that dig cannot build on its own.
	for _, params := range f.factories {
		for _, p := range params {
			if err := f.bridge(p); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func (f *fabricator) provide(t reflect.Type, ctor any) error {
	if err := f.c.Provide(ctor); err != nil {
		return GraphResolutionError{Type: t, Cause: err}
	}
	f.provided[t] = true
	return nil
}

// bridge provides t when it is an inherited resource or a pointer-to-struct
// resource dig has no constructor for.
func (f *fabricator) bridge(t reflect.Type) error {
	if f.provided[t] {
		return nil
	}
	if v, ok := f.inherited(t); ok {
		return f.provide(t, constant(t, v))
	}
	if isStructPointer(t) {
		return f.provide(t, f.lazy(t))
	}
	return nil
}

// bindInterface provides the interface parameter declared as resolved to the
// resource it was bound to.
func (f *fabricator) bindInterface(declared, resolved reflect.Type) error {
	if f.provided[declared] || declared == resolved {
		return nil
	}
	if err := f.bridge(resolved); err != nil {
		return err
	}
	return f.provide(declared, convert(resolved, declared))
}

func (f *fabricator) hasFactory(t reflect.Type) bool {
	_, ok := f.factories[t]
	return ok
}

func (f *fabricator) canFabricate(t reflect.Type) bool {
	return f.hasFactory(t) || isStructPointer(t)
}

// factoryDependencies returns the parameters of t's factory that are resources:
// everything except supplied values and dig parameter objects.
func (f *fabricator) factoryDependencies(t reflect.Type) []reflect.Type {
	var deps []reflect.Type
	for _, p := range f.factories[t] {
		if f.supplied[p] || dig.IsIn(p) {
			continue
		}
		deps = append(deps, p)
	}
	return deps
}

// fabricate returns the single instance of t.
func (f *fabricator) fabricate(t reflect.Type) (reflect.Value, error) {
	if f.hasFactory(t) {
		return f.invoke(t)
	}
	if isStructPointer(t) {
		return f.construct(t), nil
	}
	return reflect.Value{}, ErrNoFabricationStrategy
}

// invoke extracts t from the container through a synthesized func(t) error.
func (f *fabricator) invoke(t reflect.Type) (reflect.Value, error) {
	var result reflect.Value

	fnType := reflect.FuncOf([]reflect.Type{t}, []reflect.Type{errType}, false)
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result = args[0]
		return []reflect.Value{reflect.Zero(errType)}
	})

	if err := f.c.Invoke(fn.Interface()); err != nil {
		return reflect.Value{}, dig.RootCause(err)
	}

	if isNil(result) {
		return reflect.Value{}, ErrNilInstance
	}

	// Keep the dynamic value so methods resolve on the concrete type.
	if result.Kind() == reflect.Interface {
		result = result.Elem()
	}
	return result, nil
}

func (f *fabricator) construct(t reflect.Type) reflect.Value {
	if v, ok := f.constructed[t]; ok {
		return v
	}
	v := reflect.New(t.Elem())
	f.constructed[t] = v
	return v
}

// lazy returns a dig constructor for t backed by construct.
func (f *fabricator) lazy(t reflect.Type) any {
	fnType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{f.construct(t)}
	}).Interface()
}

// convert returns a dig constructor yielding its from parameter as to.
func convert(from, to reflect.Type) any {
	fnType := reflect.FuncOf([]reflect.Type{from}, []reflect.Type{to}, false)
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		out := reflect.New(to).Elem()
		out.Set(args[0])
		return []reflect.Value{out}
	}).Interface()
}

// constant returns a dig constructor that always yields v as t.
func constant(t reflect.Type, v reflect.Value) any {
	fnType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		out := reflect.New(t).Elem()
		out.Set(v)
		return []reflect.Value{out}
	}).Interface()
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func isFactory(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Func || t.IsVariadic() {
		return false
	}
	switch t.NumOut() {
	case 1:
		return t.Out(0) != errType
	case 2:
		return t.Out(0) != errType && t.Out(1) == errType
	default:
		return false
	}
}

func isStructPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
