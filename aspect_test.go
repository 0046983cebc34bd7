package resapp_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/resapp"
	"github.com/junioryono/resapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Frontend struct {
	Greeter testutil.Greeter `inject:""`
	Greeted string
}

func (f *Frontend) PostConstruct() {
	f.Greeted = f.Greeter.Greet("world")
}

func newGreeter() testutil.Greeter {
	return &testutil.PrefixGreeter{Prefix: "hello "}
}

func tracing(tag string) func(reflect.Type, any) (any, error) {
	return func(_ reflect.Type, instance any) (any, error) {
		return &testutil.TracingGreeter{Next: instance.(testutil.Greeter), Tag: tag}, nil
	}
}

func greeterApp(opts ...resapp.Option) *resapp.Builder {
	return resapp.NewBuilder(opts...).
		ResourceTypes(resapp.TypeOf[*Frontend]()).
		Factories(newGreeter)
}

func TestAspect_Rewiring(t *testing.T) {
	app := testutil.MustBuild(t, greeterApp().
		Aspects(resapp.Around("trace", tracing("t"), resapp.TypeOf[testutil.Greeter]())))

	f := testutil.RequireResource[*Frontend](t, app)
	assert.Equal(t, "t(hello bob)", f.Greeter.Greet("bob"), "dependent holds the instrumented instance")
	assert.Equal(t, "t(hello world)", f.Greeted, "hooks see the instrumented instance")

	r, ok := app.GetResource(resapp.TypeOf[testutil.Greeter]())
	require.True(t, ok)
	assert.IsType(t, &testutil.TracingGreeter{}, r.Instance())
	assert.IsType(t, &testutil.PrefixGreeter{}, r.Target())
	assert.Same(t, r.Instance(), f.Greeter)

	frontend, ok := app.GetResource(resapp.TypeOf[*Frontend]())
	require.True(t, ok)
	assert.Same(t, frontend.Instance(), frontend.Target(), "unselected resources are untouched")
}

func TestAspect_Composition(t *testing.T) {
	app := testutil.MustBuild(t, greeterApp().
		Aspects(
			resapp.Around("inner", tracing("1"), resapp.TypeOf[testutil.Greeter]()),
			resapp.Around("outer", tracing("2"), resapp.TypeOf[testutil.Greeter]()),
			resapp.Around("unrelated", tracing("x"), resapp.TypeOf[*Sibling]()),
		))

	f := testutil.RequireResource[*Frontend](t, app)
	assert.Equal(t, "2(1(hello bob))", f.Greeter.Greet("bob"))
}

func TestFuncAspect(t *testing.T) {
	var a resapp.FuncAspect
	assert.False(t, a.Selects(resapp.TypeOf[*Sibling]()))
	assert.Equal(t, "FuncAspect", a.String())

	a = resapp.Around("named", tracing("n"), resapp.TypeOf[testutil.Greeter]())
	assert.True(t, a.Selects(resapp.TypeOf[testutil.Greeter]()))
	assert.False(t, a.Selects(resapp.TypeOf[*testutil.PrefixGreeter]()))
	assert.Equal(t, "named", a.String())

	out, err := a.Instrument(resapp.TypeOf[testutil.Greeter](), newGreeter())
	require.NoError(t, err)
	assert.Equal(t, "n(hello x)", out.(testutil.Greeter).Greet("x"))

	_, err = resapp.Around("no wrap", nil).Instrument(resapp.TypeOf[testutil.Greeter](), newGreeter())
	assert.ErrorIs(t, err, resapp.ErrNilInstrumentation)
}

type TracingAspect struct {
	Applied int
}

func (a *TracingAspect) Selects(t reflect.Type) bool {
	return t == resapp.TypeOf[testutil.Greeter]() || t == resapp.TypeOf[*TracingAspect]()
}

func (a *TracingAspect) Instrument(_ reflect.Type, instance any) (any, error) {
	a.Applied++
	return &testutil.TracingGreeter{Next: instance.(testutil.Greeter), Tag: "res"}, nil
}

type AspectUser struct {
	Aspect  *TracingAspect   `inject:""`
	Greeter testutil.Greeter `inject:""`
}

func TestAspect_ResourceHandlers(t *testing.T) {
	app := testutil.MustBuild(t, resapp.NewBuilder().
		ResourceTypes(resapp.TypeOf[*AspectUser]()).
		Factories(newGreeter).
		Aspects(resapp.Around("registered", tracing("reg"), resapp.TypeOf[testutil.Greeter]())))

	u := testutil.RequireResource[*AspectUser](t, app)
	assert.Equal(t, "res(reg(hello bob))", u.Greeter.Greet("bob"), "registered aspects apply before resource aspects")
	assert.Equal(t, 1, u.Aspect.Applied, "aspect resources are not instrumented")
}

func TestAspect_Inherited(t *testing.T) {
	parent := testutil.MustBuild(t, resapp.NewBuilder().
		ResourceTypes(resapp.TypeOf[testutil.Greeter]()).
		Factories(newGreeter))

	child := testutil.MustBuild(t, resapp.NewBuilder().
		ParentApps(parent).
		ResourceTypes(resapp.TypeOf[*Frontend]()).
		Aspects(resapp.Around("trace", tracing("t"), resapp.TypeOf[testutil.Greeter]())))

	f := testutil.RequireResource[*Frontend](t, child)
	assert.Equal(t, "hello bob", f.Greeter.Greet("bob"), "inherited resources are never instrumented")
}

func TestAspect_Errors(t *testing.T) {
	t.Run("instrument error", func(t *testing.T) {
		failing := resapp.Around("failing", func(reflect.Type, any) (any, error) {
			return nil, testutil.ErrIntentional
		}, resapp.TypeOf[testutil.Greeter]())

		_, err := greeterApp().Aspects(failing).Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, testutil.ErrIntentional)

		var ae resapp.AspectError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "failing", ae.Aspect)
		assert.Equal(t, resapp.TypeOf[testutil.Greeter](), ae.Type)
	})

	t.Run("nil wrap", func(t *testing.T) {
		_, err := greeterApp().Aspects(resapp.Around("no wrap", nil, resapp.TypeOf[testutil.Greeter]())).Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, resapp.ErrNilInstrumentation)
	})

	t.Run("instrument panic", func(t *testing.T) {
		exploding := resapp.Around("exploding", func(reflect.Type, any) (any, error) {
			panic("aspect boom")
		}, resapp.TypeOf[testutil.Greeter]())

		var err error
		require.NotPanics(t, func() {
			_, err = greeterApp().Aspects(exploding).Build()
		})
		require.Error(t, err)

		var ae resapp.AspectError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "exploding", ae.Aspect)

		var pe resapp.HookPanicError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "Instrument", pe.Hook)
		assert.Equal(t, "aspect boom", pe.Panic)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("selects panic", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = greeterApp().Aspects(panickySelector{}).Build()
		})

		var pe resapp.HookPanicError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "Selects", pe.Hook)
	})

	t.Run("nil replacement", func(t *testing.T) {
		nilAspect := resapp.Around("nil", func(reflect.Type, any) (any, error) {
			return nil, nil
		}, resapp.TypeOf[testutil.Greeter]())

		_, err := greeterApp().Aspects(nilAspect).Build()
		assert.ErrorIs(t, err, resapp.ErrNilInstrumentation)
	})

	t.Run("replacement not assignable", func(t *testing.T) {
		wrong := resapp.Around("wrong", func(reflect.Type, any) (any, error) {
			return &testutil.PrefixGreeter{}, nil
		}, resapp.TypeOf[*Frontend]())

		_, err := greeterApp().Aspects(wrong).Build()
		require.Error(t, err)

		var ae resapp.AspectError
		require.True(t, errors.As(err, &ae))

		var mismatch resapp.TypeMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, resapp.TypeOf[*Frontend](), mismatch.Expected)
	})
}

type panickySelector struct{}

func (panickySelector) Selects(reflect.Type) bool { panic("selector boom") }

func (panickySelector) Instrument(_ reflect.Type, instance any) (any, error) { return instance, nil }

type Hooked struct {
	J    *testutil.Journal
	Name string
}

func (h *Hooked) PostConstruct() { h.J.Record("init " + h.Name) }
func (h *Hooked) PreDestroy()    { h.J.Record("destroy " + h.Name) }

// LifecycleService is an interface resource whose hooks are part of its
// method set.
type LifecycleService interface {
	PostConstruct()
	PreDestroy()
	Serve() string
}

type plainService struct {
	J *testutil.Journal
}

func (s *plainService) PostConstruct() { s.J.Record("init service") }
func (s *plainService) PreDestroy()    { s.J.Record("destroy service") }
func (s *plainService) Serve() string  { return "served" }

type recordingService struct {
	Next LifecycleService
	J    *testutil.Journal
}

func (s *recordingService) PostConstruct() {
	s.J.Record("intercepted init")
	s.Next.PostConstruct()
}

func (s *recordingService) PreDestroy() {
	s.J.Record("intercepted destroy")
	s.Next.PreDestroy()
}

func (s *recordingService) Serve() string { return "recorded " + s.Next.Serve() }

func TestAspect_HooksRunOnInstrumentedInstance(t *testing.T) {
	t.Run("replacement of the same type", func(t *testing.T) {
		j := testutil.NewJournal()
		app := testutil.MustBuild(t, resapp.NewBuilder().
			ResourceTypes(resapp.TypeOf[*Hooked]()).
			Factories(func() *Hooked { return &Hooked{J: j, Name: "target"} }).
			Aspects(resapp.Around("copy", func(_ reflect.Type, instance any) (any, error) {
				return &Hooked{J: instance.(*Hooked).J, Name: "instrumented"}, nil
			}, resapp.TypeOf[*Hooked]())))

		assert.Equal(t, "instrumented", testutil.RequireResource[*Hooked](t, app).Name)
		require.NoError(t, app.Shutdown())
		assert.Equal(t, []string{"init instrumented", "destroy instrumented"}, j.Events())
	})

	t.Run("interface resource wrapped by a recorder", func(t *testing.T) {
		j := testutil.NewJournal()
		app := testutil.MustBuild(t, resapp.NewBuilder().
			ResourceTypes(resapp.TypeOf[LifecycleService]()).
			Factories(func() LifecycleService { return &plainService{J: j} }).
			Aspects(resapp.Around("record", func(_ reflect.Type, instance any) (any, error) {
				return &recordingService{Next: instance.(LifecycleService), J: j}, nil
			}, resapp.TypeOf[LifecycleService]())))

		svc := testutil.RequireResource[LifecycleService](t, app)
		assert.Equal(t, "recorded served", svc.Serve())

		require.NoError(t, app.Shutdown())
		assert.Equal(t, []string{
			"intercepted init", "init service",
			"intercepted destroy", "destroy service",
		}, j.Events())
	})
}
