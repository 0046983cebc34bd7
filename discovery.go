package resapp

import (
	"errors"
	"reflect"

	"github.com/junioryono/resapp/internal/reflection"
)

// discovery walks the resource graph breadth-first from the root types,
// fabricating every local resource it reaches.
type discovery struct {
	app      *App
	fab      *fabricator
	provider MetadataProvider
	markers  Markers

	queue    []*Resource
	deferred []pendingDependency
}

// pendingDependency is an interface-typed dependency resolved once the whole
// resource set is known.
type pendingDependency struct {
	owner *Resource
	dep   dependency
}

// seedParents copies every resource of every parent into the App as an
// inherited view. The first parent providing a type wins.
func (app *App) seedParents(parents []*App) error {
	for _, p := range parents {
		if p.State() != AppRunning {
			return ErrParentShutDown
		}
		app.parents = append(app.parents, p)
		for _, r := range p.resources {
			if _, ok := app.byType[r.typ]; ok {
				continue
			}
			app.add(r.inherited())
		}
	}
	return nil
}

func (app *App) add(r *Resource) {
	app.byType[r.typ] = r
	app.resources = append(app.resources, r)
	if r.local {
		app.local = append(app.local, r)
	}
	app.graph.AddNode(r.typ)
}

// discover resolves and fabricates every resource reachable from roots.
func (d *discovery) discover(roots []reflect.Type) error {
	for _, t := range roots {
		if _, ok := d.app.byType[t]; ok {
			continue
		}
		if !d.fab.canFabricate(t) {
			return GraphResolutionError{Type: t, Cause: ErrNoFabricationStrategy}
		}
		d.enqueue(t)
	}

	for len(d.queue) > 0 {
		r := d.queue[0]
		d.queue = d.queue[1:]
		if err := d.visit(r); err != nil {
			return err
		}
	}

	if err := d.resolveDeferred(); err != nil {
		return err
	}

	if err := d.fabricateAll(); err != nil {
		return err
	}

	for _, r := range d.app.resources {
		for _, dep := range r.deps {
			if d.app.graph.HasNode(dep) {
				d.app.graph.AddEdge(r.typ, dep)
			}
		}
	}

	return nil
}

func (d *discovery) enqueue(t reflect.Type) {
	r := &Resource{entry: newEntry(t, nil, reflect.Value{}), local: true}
	d.app.add(r)
	d.queue = append(d.queue, r)
}

// visit describes r and resolves each of its dependencies.
func (d *discovery) visit(r *Resource) error {
	md, err := d.provider.Describe(r.typ, d.markers)
	if err != nil {
		var ae reflection.AnalysisError
		if errors.As(err, &ae) {
			return GraphResolutionError{Type: r.typ, Field: ae.Member, Cause: err}
		}
		return GraphResolutionError{Type: r.typ, Cause: err}
	}
	r.metadata = md

	deps := dependencyTypes(md)
	for _, t := range d.fab.factoryDependencies(r.typ) {
		deps = append(deps, dependency{typ: t})
	}

	for _, dep := range deps {
		if err := d.resolve(r, dep); err != nil {
			return err
		}
	}

	d.app.log.Debug("discovered resource", "resource", formatType(r.typ), "dependencies", len(deps))
	return nil
}

func (d *discovery) resolve(owner *Resource, dep dependency) error {
	if _, ok := d.app.byType[dep.typ]; ok {
		owner.bind(dep.typ, dep.typ)
		return nil
	}

	if d.fab.canFabricate(dep.typ) {
		d.enqueue(dep.typ)
		owner.bind(dep.typ, dep.typ)
		return nil
	}

	if dep.typ.Kind() == reflect.Interface {
		d.deferred = append(d.deferred, pendingDependency{owner: owner, dep: dep})
		return nil
	}

	return GraphResolutionError{
		Type:       owner.typ,
		Field:      dep.field,
		Dependency: dep.typ,
		Cause:      ErrNoFabricationStrategy,
	}
}

// resolveDeferred binds each interface dependency to the first other resource,
// in Resources order, whose type is assignable to it.
func (d *discovery) resolveDeferred() error {
	for _, p := range d.deferred {
		var match *Resource
		for _, r := range d.app.resources {
			if r.entry != p.owner.entry && r.typ.AssignableTo(p.dep.typ) {
				match = r
				break
			}
		}
		if match == nil {
			return GraphResolutionError{
				Type:       p.owner.typ,
				Field:      p.dep.field,
				Dependency: p.dep.typ,
				Cause:      ErrUnresolvedType,
			}
		}
		p.owner.bind(p.dep.typ, match.typ)
	}
	return nil
}

// fabricateAll creates the local instances once every dependency is bound, so
// factories can take interface parameters resolved by assignability.
func (d *discovery) fabricateAll() error {
	for _, r := range d.app.local {
		for _, p := range d.fab.factories[r.typ] {
			if p.Kind() != reflect.Interface {
				continue
			}
			if resolved, ok := r.bindings[p]; ok {
				if err := d.fab.bindInterface(p, resolved); err != nil {
					return err
				}
			}
		}
	}

	for _, r := range d.app.local {
		v, err := d.fab.fabricate(r.typ)
		if err != nil {
			return GraphResolutionError{Type: r.typ, Cause: err}
		}
		r.target = v
		r.instance = v
	}
	return nil
}
