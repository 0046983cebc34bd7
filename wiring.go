package resapp

import (
	"reflect"

	"golang.org/x/sync/errgroup"
)

// wire sets every resource field of the local resources to the current instance
// of the resource it resolved to. Each resource only touches its own fields, so
// resources are wired independently, up to limit at a time. Running wire again
// with unchanged instances leaves every field unchanged.
func (app *App) wire(limit int) error {
	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	for _, r := range app.local {
		g.Go(func() error {
			return app.wireResource(r)
		})
	}

	return g.Wait()
}

func (app *App) wireResource(r *Resource) error {
	if len(r.metadata.Fields) == 0 {
		r.advance(StateWired)
		return nil
	}

	if !isStructPointer(r.target.Type()) {
		return TypeMismatchError{
			Expected: reflect.PointerTo(reflect.TypeOf(struct{}{})),
			Actual:   r.target.Type(),
			Context:  "resource fields of " + formatType(r.typ) + " require a struct pointer",
		}
	}

	// Validate every field before the first write.
	values := make([]reflect.Value, len(r.metadata.Fields))
	for i, f := range r.metadata.Fields {
		v := app.instanceFor(r, f.Type)
		if !v.Type().AssignableTo(f.Type) {
			return TypeMismatchError{
				Expected: f.Type,
				Actual:   v.Type(),
				Context:  "field " + formatType(r.typ) + "." + f.Name,
			}
		}
		values[i] = v
	}

	target := r.target.Elem()
	for i, f := range r.metadata.Fields {
		target.FieldByIndex(f.Index).Set(values[i])
	}

	r.advance(StateWired)
	return nil
}

// instanceFor returns the current instance bound to the declared type.
func (app *App) instanceFor(r *Resource, declared reflect.Type) reflect.Value {
	return app.byType[r.bindings[declared]].instance
}
