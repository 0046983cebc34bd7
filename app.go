package resapp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/junioryono/resapp/internal/graph"
)

// AppState is the state of an App.
type AppState int32

const (
	// AppBuilding is the state while Build runs.
	AppBuilding AppState = iota
	// AppRunning means every post-construct hook completed.
	AppRunning
	// AppShuttingDown is the state while Shutdown runs.
	AppShuttingDown
	// AppShutDown is final; the App no longer serves lookups.
	AppShutDown
)

// String returns the string representation of the state.
func (s AppState) String() string {
	switch s {
	case AppBuilding:
		return "Building"
	case AppRunning:
		return "Running"
	case AppShuttingDown:
		return "ShuttingDown"
	case AppShutDown:
		return "ShutDown"
	default:
		return "Unknown"
	}
}

// App owns a fixed set of initialized resources. It is only returned by a
// successful Build and cannot be restarted once shut down. Resources inherited
// from parent Apps are readable but never destroyed by the child.
type App struct {
	id  string
	cfg *config
	log *slog.Logger

	parents   []*App
	local     []*Resource
	resources []*Resource
	byType    map[reflect.Type]*Resource
	graph     *graph.DependencyGraph

	postConstruct []*Resource
	preDestroy    []*Resource

	state      atomic.Int32
	shutdownMu sync.Mutex
}

// Build resolves, fabricates, wires, instruments and initializes the
// resources. On failure no App is returned. A post-construct failure is an
// InitializationFailure; resources initialized before it stay initialized.
func (b *Builder) Build() (*App, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	app := &App{
		id:     uuid.NewString(),
		cfg:    b.cfg,
		byType: make(map[reflect.Type]*Resource),
		graph:  graph.NewDependencyGraph(),
	}
	app.log = b.cfg.logger.With("app", app.id)

	if err := app.seedParents(b.parents); err != nil {
		return nil, err
	}

	fab, err := newFabricator(b.factories, b.supplies, app.inheritedInstance)
	if err != nil {
		return nil, err
	}

	d := &discovery{
		app:      app,
		fab:      fab,
		provider: b.cfg.provider,
		markers:  b.markers(),
	}
	if err := d.discover(b.roots); err != nil {
		return nil, err
	}
	app.log.Debug("resolved resource graph",
		"local", len(app.local),
		"inherited", len(app.resources)-len(app.local))

	if err := app.wire(b.cfg.parallel); err != nil {
		return nil, err
	}

	if err := app.instrument(b.aspects, b.cfg.parallel); err != nil {
		return nil, err
	}

	order, err := app.order()
	if err != nil {
		return nil, err
	}
	app.postConstruct = order
	app.preDestroy = reversed(order)

	if err := app.start(); err != nil {
		return nil, err
	}

	app.state.Store(int32(AppRunning))
	app.log.Debug("app running", "resources", len(app.resources))
	return app, nil
}

// Shutdown runs the pre-destroy hooks in the reverse of the post-construct
// order and stops at the first failure with a DestructionFailure. The App is
// shut down either way; later calls return ErrAppShutDown.
func (app *App) Shutdown() error {
	app.shutdownMu.Lock()
	defer app.shutdownMu.Unlock()

	if !app.state.CompareAndSwap(int32(AppRunning), int32(AppShuttingDown)) {
		return ErrAppShutDown
	}
	defer app.state.Store(int32(AppShutDown))

	app.log.Debug("shutting down app")
	return app.stop()
}

// ID returns the unique identifier of the App.
func (app *App) ID() string {
	return app.id
}

// State returns the current state.
func (app *App) State() AppState {
	return AppState(app.state.Load())
}

// ParentApps returns the parent Apps in declaration order.
func (app *App) ParentApps() []*App {
	return slices.Clone(app.parents)
}

// LocalResources returns the resources owned by the App in discovery order.
func (app *App) LocalResources() []*Resource {
	return slices.Clone(app.local)
}

// Resources returns the inherited resources followed by the local ones.
func (app *App) Resources() []*Resource {
	return slices.Clone(app.resources)
}

// PostConstructOrder returns the local resource types in initialization order.
func (app *App) PostConstructOrder() []reflect.Type {
	return types(app.postConstruct)
}

// PreDestroyOrder returns the local resource types in destruction order.
func (app *App) PreDestroyOrder() []reflect.Type {
	return types(app.preDestroy)
}

// WriteDOT writes the resource graph in Graphviz DOT format. Local resources are
// filled blue, inherited ones gray.
func (app *App) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(app.graph, app.nodeStyle).WriteDOT(w)
}

// WriteText writes the resource graph grouped by dependency depth.
func (app *App) WriteText(w io.Writer) error {
	return graph.NewVisualizer(app.graph, app.nodeStyle).WriteText(w)
}

func (app *App) nodeStyle(t reflect.Type) graph.NodeStyle {
	r, ok := app.byType[t]
	if !ok {
		return graph.NodeStyle{}
	}

	s := graph.NodeStyle{
		Label:   formatType(t),
		Color:   "lightblue",
		Details: []string{"State: " + r.State().String()},
	}
	if !r.local {
		s.Color = "lightgray"
		s.Details = append(s.Details, "Inherited")
	}
	if h := r.PostConstructHook(); h != nil {
		s.Details = append(s.Details, fmt.Sprintf("PostConstruct: %s", h.Name))
	}
	if h := r.PreDestroyHook(); h != nil {
		s.Details = append(s.Details, fmt.Sprintf("PreDestroy: %s", h.Name))
	}
	return s
}

func (app *App) inheritedInstance(t reflect.Type) (reflect.Value, bool) {
	r, ok := app.byType[t]
	if !ok || r.local {
		return reflect.Value{}, false
	}
	return r.instance, true
}

func reversed(order []*Resource) []*Resource {
	out := slices.Clone(order)
	slices.Reverse(out)
	return out
}
