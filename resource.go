package resapp

import (
	"reflect"
	"slices"
	"sync/atomic"
)

// ResourceState is the lifecycle state of a resource. States only move forward.
type ResourceState int32

const (
	// StateCreated means the instance exists but its fields are unset.
	StateCreated ResourceState = iota
	// StateWired means every resource field holds its dependency.
	StateWired
	// StateInstrumented means an aspect replaced the instance.
	StateInstrumented
	// StateInitialized means the post-construct hook completed.
	StateInitialized
	// StateDestroyed means the pre-destroy hook completed.
	StateDestroyed
)

// String returns the string representation of the state.
func (s ResourceState) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateWired:
		return "Wired"
	case StateInstrumented:
		return "Instrumented"
	case StateInitialized:
		return "Initialized"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// entry is the state shared by a resource's owner and every App inheriting it.
type entry struct {
	typ      reflect.Type
	metadata *Metadata

	// target is the fabricated value whose fields are wired. instance starts as
	// target and is replaced when an aspect instruments the resource.
	target   reflect.Value
	instance reflect.Value

	// bindings maps each declared field and hook parameter type to the resource
	// type it resolved to.
	bindings map[reflect.Type]reflect.Type
	deps     []reflect.Type

	// aspect is set when the resource itself instruments other resources.
	aspect bool

	state atomic.Int32
}

func newEntry(t reflect.Type, md *Metadata, v reflect.Value) *entry {
	return &entry{
		typ:      t,
		metadata: md,
		target:   v,
		instance: v,
		bindings: make(map[reflect.Type]reflect.Type),
	}
}

func (e *entry) bind(declared, resolved reflect.Type) {
	if _, ok := e.bindings[declared]; ok {
		return
	}
	e.bindings[declared] = resolved
	if !slices.Contains(e.deps, resolved) && resolved != e.typ {
		e.deps = append(e.deps, resolved)
	}
}

func (e *entry) loadState() ResourceState {
	return ResourceState(e.state.Load())
}

// advance moves the entry to next. Destroyed is only reachable from Initialized;
// every other transition must move forward. It reports whether the move happened.
func (e *entry) advance(next ResourceState) bool {
	for {
		cur := e.loadState()
		if next == StateDestroyed && cur != StateInitialized {
			return false
		}
		if cur >= next {
			return false
		}
		if e.state.CompareAndSwap(int32(cur), int32(next)) {
			return true
		}
	}
}

// Resource is a singleton managed by an App: its type, instance, lifecycle hooks
// and state. A Resource inherited from a parent App is a view over the parent's
// resource and observes its transitions.
type Resource struct {
	*entry
	local bool
}

// Type returns the resource type.
func (r *Resource) Type() reflect.Type {
	return r.typ
}

// Instance returns the current instance, which is instrumented when an aspect
// selected the resource.
func (r *Resource) Instance() any {
	return r.instance.Interface()
}

// Target returns the fabricated, un-instrumented value.
func (r *Resource) Target() any {
	return r.target.Interface()
}

// IsLocal reports whether the resource is owned by the App it was obtained from.
func (r *Resource) IsLocal() bool {
	return r.local
}

// PostConstructHook returns the post-construct hook, or nil.
func (r *Resource) PostConstructHook() *Hook {
	return r.metadata.PostConstruct
}

// PreDestroyHook returns the pre-destroy hook, or nil.
func (r *Resource) PreDestroyHook() *Hook {
	return r.metadata.PreDestroy
}

// DependsOn returns the resource types this resource depends on, in the order
// they were resolved.
func (r *Resource) DependsOn() []reflect.Type {
	return slices.Clone(r.deps)
}

// State returns the current lifecycle state.
func (r *Resource) State() ResourceState {
	return r.loadState()
}

func (r *Resource) hasHooks() bool {
	return r.metadata.PostConstruct != nil || r.metadata.PreDestroy != nil
}

// inherited returns a non-local view of r for a child App.
func (r *Resource) inherited() *Resource {
	return &Resource{entry: r.entry}
}

func types(resources []*Resource) []reflect.Type {
	result := make([]reflect.Type, len(resources))
	for i, r := range resources {
		result[i] = r.typ
	}
	return result
}
