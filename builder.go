package resapp

import (
	"reflect"
	"slices"
)

// Builder collects root types, parent Apps, markers, aspects and factories, and
// builds an App from them. Methods return the builder for chaining.
type Builder struct {
	cfg *config

	roots   []reflect.Type
	parents []*App

	resourceTags  []string
	postConstruct []string
	preDestroy    []string

	aspects   []Aspect
	factories []any
	supplies  []any

	errs []error
}

// NewBuilder creates a new Builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{cfg: newConfig(opts...)}
}

// ResourceTypes adds root types. Duplicates are ignored and insertion order is
// kept.
func (b *Builder) ResourceTypes(types ...reflect.Type) *Builder {
	for _, t := range types {
		if t == nil {
			b.errs = append(b.errs, ErrNilType)
			continue
		}
		if !slices.Contains(b.roots, t) {
			b.roots = append(b.roots, t)
		}
	}
	return b
}

// ParentApps declares Apps whose resources the built App inherits. Earlier
// parents win when two provide the same type.
func (b *Builder) ParentApps(apps ...*App) *Builder {
	for _, app := range apps {
		if app == nil {
			b.errs = append(b.errs, ErrNilParent)
			continue
		}
		if !slices.Contains(b.parents, app) {
			b.parents = append(b.parents, app)
		}
	}
	return b
}

// ResourceTag sets the struct tag keys marking resource fields.
func (b *Builder) ResourceTag(keys ...string) *Builder {
	b.resourceTags = append(b.resourceTags, keys...)
	return b
}

// PostConstructMethod sets the method names recognized as post-construct hooks.
func (b *Builder) PostConstructMethod(names ...string) *Builder {
	b.postConstruct = append(b.postConstruct, names...)
	return b
}

// PreDestroyMethod sets the method names recognized as pre-destroy hooks.
func (b *Builder) PreDestroyMethod(names ...string) *Builder {
	b.preDestroy = append(b.preDestroy, names...)
	return b
}

// Aspects registers instrumentation handlers. They apply in registration order,
// the first innermost.
func (b *Builder) Aspects(aspects ...Aspect) *Builder {
	for _, a := range aspects {
		if a != nil {
			b.aspects = append(b.aspects, a)
		}
	}
	return b
}

// Factories registers constructor functions. Each must return the resource
// type and optionally an error. Its parameters are either supplied values or
// other resources.
func (b *Builder) Factories(fns ...any) *Builder {
	b.factories = append(b.factories, fns...)
	return b
}

// Supply registers values factories may take as parameters. Supplied values are
// not resources.
func (b *Builder) Supply(values ...any) *Builder {
	b.supplies = append(b.supplies, values...)
	return b
}

func (b *Builder) markers() Markers {
	m := defaultMarkers()
	if len(b.resourceTags) > 0 {
		m.ResourceTags = slices.Clone(b.resourceTags)
	}
	if len(b.postConstruct) > 0 {
		m.PostConstruct = slices.Clone(b.postConstruct)
	}
	if len(b.preDestroy) > 0 {
		m.PreDestroy = slices.Clone(b.preDestroy)
	}
	return m
}
