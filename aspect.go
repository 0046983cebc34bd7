package resapp

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Aspect instruments resources. Instrument returns the replacement instance;
// it must remain assignable to the resource type and to every field and hook
// parameter referencing the resource.
//
// Besides the aspects given to Builder.Aspects, any local resource implementing
// Aspect is used as one. Such resources are never instrumented themselves.
type Aspect interface {
	Selects(t reflect.Type) bool
	Instrument(t reflect.Type, instance any) (any, error)
}

// FuncAspect adapts a match function and a wrap function to an Aspect.
type FuncAspect struct {
	Name  string
	Match func(t reflect.Type) bool
	Wrap  func(t reflect.Type, instance any) (any, error)
}

// Selects reports whether Match accepts t. A nil Match selects nothing.
func (a FuncAspect) Selects(t reflect.Type) bool {
	return a.Match != nil && a.Match(t)
}

// Instrument calls Wrap. A nil Wrap fails with ErrNilInstrumentation.
func (a FuncAspect) Instrument(t reflect.Type, instance any) (any, error) {
	if a.Wrap == nil {
		return nil, ErrNilInstrumentation
	}
	return a.Wrap(t, instance)
}

// String returns Name, or "FuncAspect" when it is empty.
func (a FuncAspect) String() string {
	if a.Name == "" {
		return "FuncAspect"
	}
	return a.Name
}

// Around returns a FuncAspect selecting exactly the given types.
func Around(name string, wrap func(t reflect.Type, instance any) (any, error), types ...reflect.Type) FuncAspect {
	set := make(map[reflect.Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return FuncAspect{
		Name:  name,
		Match: func(t reflect.Type) bool { return set[t] },
		Wrap:  wrap,
	}
}

// instrument applies every selecting aspect to each local resource, first
// aspect innermost, and re-wires when anything was replaced.
func (app *App) instrument(registered []Aspect, parallel int) error {
	handlers := append([]Aspect(nil), registered...)
	for _, r := range app.local {
		if h, ok := r.Instance().(Aspect); ok {
			r.aspect = true
			handlers = append(handlers, h)
		}
	}
	if len(handlers) == 0 {
		return nil
	}

	referrers := app.referencingTypes()

	var changed []*Resource
	for _, r := range app.local {
		if r.aspect {
			continue
		}

		current := r.instance
		replaced := false
		for _, h := range handlers {
			selected, out, err := apply(h, r.typ, current)
			if err != nil {
				return AspectError{Type: r.typ, Aspect: aspectName(h), Cause: err}
			}
			if !selected {
				continue
			}
			if out == nil {
				return AspectError{Type: r.typ, Aspect: aspectName(h), Cause: ErrNilInstrumentation}
			}

			v := reflect.ValueOf(out)
			for _, want := range append([]reflect.Type{r.typ}, referrers[r.typ]...) {
				if !v.Type().AssignableTo(want) {
					return AspectError{
						Type:   r.typ,
						Aspect: aspectName(h),
						Cause:  TypeMismatchError{Expected: want, Actual: v.Type(), Context: "instrumented instance"},
					}
				}
			}

			current = v
			replaced = true
		}

		if replaced {
			r.instance = current
			changed = append(changed, r)
			app.log.Debug("instrumented resource", "resource", formatType(r.typ))
		}
	}

	if len(changed) == 0 {
		return nil
	}

	if err := app.wire(parallel); err != nil {
		return err
	}

	for _, r := range changed {
		r.advance(StateInstrumented)
	}
	return nil
}

// apply runs h against the current instance of t. A panic in Selects or
// Instrument is returned as a HookPanicError naming the method.
func apply(h Aspect, t reflect.Type, current reflect.Value) (selected bool, out any, err error) {
	method := "Selects"
	defer func() {
		if rec := recover(); rec != nil {
			err = HookPanicError{Type: t, Hook: method, Panic: rec, Stack: debug.Stack()}
		}
	}()

	if !h.Selects(t) {
		return false, nil, nil
	}

	method = "Instrument"
	out, err = h.Instrument(t, current.Interface())
	return true, out, err
}

// referencingTypes maps each resource type to the declared types that bind to
// it across the App.
func (app *App) referencingTypes() map[reflect.Type][]reflect.Type {
	refs := make(map[reflect.Type][]reflect.Type)
	seen := make(map[[2]reflect.Type]bool)
	for _, r := range app.resources {
		for declared, resolved := range r.bindings {
			key := [2]reflect.Type{resolved, declared}
			if declared == resolved || seen[key] {
				continue
			}
			seen[key] = true
			refs[resolved] = append(refs[resolved], declared)
		}
	}
	return refs
}

func aspectName(a Aspect) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", a)
}
