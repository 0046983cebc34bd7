package resapp

import (
	"reflect"
)

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Builder) error

// NewModule creates a new module with the given name and options.
// Modules are a way to group related resource registrations together.
//
// Example:
//
//	var StorageModule = resapp.NewModule("storage",
//	    resapp.AddFactories(NewDatabase),
//	    resapp.AddResources(resapp.TypeOf[*UserRepository]()),
//	)
//
//	var AppModule = resapp.NewModule("app",
//	    StorageModule,
//	    resapp.AddResources(resapp.TypeOf[*Server]()),
//	)
//
//	app, err := resapp.NewBuilder().Modules(AppModule).Build()
func NewModule(name string, options ...ModuleOption) ModuleOption {
	return func(b *Builder) error {
		for _, option := range options {
			if option == nil {
				continue
			}

			if err := option(b); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// AddResources creates a ModuleOption adding root types.
func AddResources(types ...reflect.Type) ModuleOption {
	return func(b *Builder) error {
		for _, t := range types {
			if t == nil {
				return ErrNilType
			}
		}
		b.ResourceTypes(types...)
		return nil
	}
}

// AddFactories creates a ModuleOption registering factories.
func AddFactories(fns ...any) ModuleOption {
	return func(b *Builder) error {
		for _, fn := range fns {
			if !isFactory(reflect.TypeOf(fn)) {
				return ErrInvalidFactory
			}
		}
		b.Factories(fns...)
		return nil
	}
}

// AddSupply creates a ModuleOption registering supplied values.
func AddSupply(values ...any) ModuleOption {
	return func(b *Builder) error {
		b.Supply(values...)
		return nil
	}
}

// AddAspects creates a ModuleOption registering aspects.
func AddAspects(aspects ...Aspect) ModuleOption {
	return func(b *Builder) error {
		b.Aspects(aspects...)
		return nil
	}
}

// Modules applies modules to the builder in order. The first failing module
// is reported by Build.
func (b *Builder) Modules(modules ...ModuleOption) *Builder {
	for _, m := range modules {
		if m == nil {
			continue
		}
		if err := m(b); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	return b
}
