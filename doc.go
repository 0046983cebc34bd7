// Package resapp builds applications out of long-lived singleton resources and
// runs their lifecycle hooks in dependency order.
//
// # Overview
//
// A Builder is given root types. Build discovers every resource reachable from
// them, creates exactly one instance per type, sets the resource fields of each
// instance, applies aspects, and runs the post-construct hooks so that every
// resource is initialized after the resources it depends on. Shutdown runs the
// pre-destroy hooks in exactly the reverse order.
//
// # Basic Usage
//
//	type Database struct{}
//
//	func (db *Database) PostConstruct() error { return db.connect() }
//	func (db *Database) PreDestroy() error    { return db.close() }
//
//	type UserService struct {
//	    DB *Database `inject:""`
//	}
//
//	app, err := resapp.NewBuilder().
//	    ResourceTypes(resapp.TypeOf[*UserService]()).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
//
//	users, _ := resapp.Get[*UserService](app)
//
// # Resources
//
// A pointer-to-struct type is created with reflect.New. Any other type, or a
// type that needs configuration, is created by a factory registered with
// Builder.Factories; factories run in a dig container and may take values
// registered with Builder.Supply as well as other resources.
//
// Struct fields tagged with `inject:""` or `resource:""` are resource
// references. A tag value of "-" skips the field. Fields of embedded structs are
// included. Interface-typed fields resolve to the first resource assignable to
// them. Tagged fields must be exported.
//
// Generic instantiations are distinct types: *Repo[User] and *Repo[Order] are
// two resources.
//
// # Lifecycle Hooks
//
// Methods named PostConstruct and PreDestroy are hooks. They may take other
// resources as parameters, which adds those resources as dependencies, and
// return nothing or an error. The names and tag keys can be changed with
// Builder.PostConstructMethod, Builder.PreDestroyMethod and Builder.ResourceTag.
//
// A dependency cycle between two or more resources with hooks fails the build
// with a CycleError before any hook runs. Cycles involving at most one resource
// with hooks are allowed and logged.
//
// # Failures
//
// If a post-construct hook fails, Build returns an InitializationFailure naming
// the failed resource, the resources already initialized, and the resources
// never reached. Nothing is rolled back. Shutdown reports a DestructionFailure
// the same way.
//
// # Parent Apps
//
// An App built with Builder.ParentApps inherits every resource of its parents.
// Inherited resources are wired into the child's resources but are never
// initialized or destroyed by the child.
//
// # Aspects
//
// An Aspect replaces the instance of each resource it selects, typically with a
// wrapper implementing the same interface. All selecting aspects apply, the
// first registered innermost. Fields are wired again afterwards so dependents
// hold the instrumented instance, and lifecycle hooks are called through it.
//
// # Modules
//
// NewModule groups registrations so they can be shared between Apps:
//
//	var Storage = resapp.NewModule("storage",
//	    resapp.AddFactories(NewDatabase),
//	    resapp.AddResources(resapp.TypeOf[*UserRepository]()),
//	)
//
//	app, err := resapp.NewBuilder().Modules(Storage).Build()
package resapp
