package resapp

import (
	"reflect"
	"runtime/debug"
	"slices"
	"time"
)

// order computes the post-construct order over the local resources: every
// resource follows the resources it depends on, ties go to the one discovered
// first. Cycles with at most one hook-bearing member are tolerated; any other
// cycle is a CycleError.
func (app *App) order() ([]*Resource, error) {
	local := app.graph.Subgraph(func(t reflect.Type) bool {
		return app.byType[t].local
	})

	for _, members := range local.DetectCycles() {
		hooked := 0
		for _, t := range members {
			if app.byType[t].hasHooks() {
				hooked++
			}
		}
		if hooked >= 2 {
			return nil, CycleError{Members: members, Path: local.FindCyclePath(members[0])}
		}
		app.log.Warn("tolerating dependency cycle", "members", typeNames(members))
	}

	sorted := local.TopologicalSort()
	order := make([]*Resource, len(sorted))
	for i, t := range sorted {
		order[i] = app.byType[t]
	}
	return order, nil
}

// start runs the post-construct hooks in order. It stops at the first failure
// and leaves the resources initialized so far as they are.
func (app *App) start() error {
	for i, r := range app.postConstruct {
		if hook := r.PostConstructHook(); hook != nil {
			app.log.Debug("running post-construct hook", "resource", formatType(r.typ), "hook", hook.Name)
			if err := app.invoke(r, hook, PhasePostConstruct); err != nil {
				app.log.Warn("post-construct hook failed", "resource", formatType(r.typ), "error", err)
				return InitializationFailure{
					Resource:      r,
					Cause:         err,
					Initialized:   slices.Clone(app.postConstruct[:i]),
					Uninitialized: slices.Clone(app.postConstruct[i+1:]),
				}
			}
		}
		r.advance(StateInitialized)
	}
	return nil
}

// stop runs the pre-destroy hooks in reverse post-construct order, stopping at
// the first failure.
func (app *App) stop() error {
	for i, r := range app.preDestroy {
		if hook := r.PreDestroyHook(); hook != nil && r.State() == StateInitialized {
			app.log.Debug("running pre-destroy hook", "resource", formatType(r.typ), "hook", hook.Name)
			if err := app.invoke(r, hook, PhasePreDestroy); err != nil {
				app.log.Warn("pre-destroy hook failed", "resource", formatType(r.typ), "error", err)
				return DestructionFailure{
					Resource:    r,
					Cause:       err,
					Destroyed:   slices.Clone(app.preDestroy[:i]),
					Undestroyed: slices.Clone(app.preDestroy[i+1:]),
				}
			}
		}
		r.advance(StateDestroyed)
	}
	return nil
}

// invoke calls hook on r's current instance with its parameters resolved to
// the current resource instances. Panics are recovered into HookPanicError.
func (app *App) invoke(r *Resource, hook *Hook, phase Phase) (err error) {
	args := make([]reflect.Value, len(hook.Params))
	for i, p := range hook.Params {
		v := app.instanceFor(r, p)
		if !v.Type().AssignableTo(p) {
			return TypeMismatchError{
				Expected: p,
				Actual:   v.Type(),
				Context:  "hook parameter " + formatType(r.typ) + "." + hook.Name,
			}
		}
		args[i] = v
	}

	method := hookMethod(r, hook.Name)
	if !method.IsValid() {
		return GraphResolutionError{Type: r.typ, Field: hook.Name, Cause: ErrInvalidHook}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = HookPanicError{Type: r.typ, Hook: hook.Name, Panic: rec, Stack: debug.Stack()}
		}
		for _, observe := range app.cfg.observers {
			observe(phase, r.typ, time.Since(start), err)
		}
	}()

	out := method.Call(args)
	if hook.ReturnsError && len(out) == 1 && !out[0].IsNil() {
		err = out[0].Interface().(error)
	}
	return err
}

// hookMethod returns the named method of the current instance, so instrumented
// resources are called through their replacement. The target is used when the
// replacement lacks a method of the same signature.
func hookMethod(r *Resource, name string) reflect.Value {
	fallback := r.target.MethodByName(name)
	m := r.instance.MethodByName(name)
	if !m.IsValid() || (fallback.IsValid() && m.Type() != fallback.Type()) {
		return fallback
	}
	return m
}

func typeNames(ts []reflect.Type) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = formatType(t)
	}
	return names
}
