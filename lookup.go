package resapp

import "reflect"

// GetResource returns the resource of exactly type t when there is one.
// Otherwise it returns the first resource, in Resources order, whose type is
// assignable to t: inherited resources before local ones, each in discovery
// order. A miss, or an App that has been shut down, returns (nil, false).
func (app *App) GetResource(t reflect.Type) (*Resource, bool) {
	if t == nil || app.State() == AppShutDown {
		return nil, false
	}

	if r, ok := app.byType[t]; ok {
		return r, true
	}

	for _, r := range app.resources {
		if r.typ.AssignableTo(t) {
			return r, true
		}
	}

	return nil, false
}

// Get returns the current instance of the resource GetResource finds for T.
func Get[T any](app *App) (T, bool) {
	var zero T

	r, ok := app.GetResource(TypeOf[T]())
	if !ok {
		return zero, false
	}

	v, ok := r.Instance().(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
