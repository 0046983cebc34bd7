package resapp_test

import (
	"io"
	"testing"

	"github.com/junioryono/resapp"
	"github.com/junioryono/resapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Named interface {
	Name() string
}

type FirstNamed struct{}

func (*FirstNamed) Name() string { return "first" }

type SecondNamed struct{}

func (*SecondNamed) Name() string { return "second" }

func TestGetResource(t *testing.T) {
	app := testutil.MustBuild(t, resapp.NewBuilder().
		ResourceTypes(resapp.TypeOf[*FirstNamed](), resapp.TypeOf[*SecondNamed]()))

	t.Run("exact match", func(t *testing.T) {
		r, ok := app.GetResource(resapp.TypeOf[*SecondNamed]())
		require.True(t, ok)
		assert.Equal(t, resapp.TypeOf[*SecondNamed](), r.Type())
	})

	t.Run("first assignable in discovery order", func(t *testing.T) {
		for range 5 {
			r, ok := app.GetResource(resapp.TypeOf[Named]())
			require.True(t, ok)
			assert.Equal(t, resapp.TypeOf[*FirstNamed](), r.Type())
		}

		named, ok := resapp.Get[Named](app)
		require.True(t, ok)
		assert.Equal(t, "first", named.Name())
	})

	t.Run("miss", func(t *testing.T) {
		r, ok := app.GetResource(resapp.TypeOf[io.Reader]())
		assert.False(t, ok)
		assert.Nil(t, r)

		_, ok = resapp.Get[*ServiceA](app)
		assert.False(t, ok)

		_, ok = app.GetResource(nil)
		assert.False(t, ok)
	})

	t.Run("shut down app serves no lookups", func(t *testing.T) {
		gone := testutil.MustBuild(t, resapp.NewBuilder().ResourceTypes(resapp.TypeOf[*FirstNamed]()))
		_, ok := gone.GetResource(resapp.TypeOf[*FirstNamed]())
		require.True(t, ok)

		require.NoError(t, gone.Shutdown())

		r, ok := gone.GetResource(resapp.TypeOf[*FirstNamed]())
		assert.False(t, ok)
		assert.Nil(t, r)

		_, ok = resapp.Get[Named](gone)
		assert.False(t, ok)
	})

	t.Run("inherited resources come first", func(t *testing.T) {
		parent := testutil.MustBuild(t, resapp.NewBuilder().ResourceTypes(resapp.TypeOf[*SecondNamed]()))
		child := testutil.MustBuild(t, resapp.NewBuilder().
			ParentApps(parent).
			ResourceTypes(resapp.TypeOf[*FirstNamed]()))

		named, ok := resapp.Get[Named](child)
		require.True(t, ok)
		assert.Equal(t, "second", named.Name())

		assert.Equal(t,
			[]any{resapp.TypeOf[*SecondNamed](), resapp.TypeOf[*FirstNamed]()},
			[]any{child.Resources()[0].Type(), child.Resources()[1].Type()})
	})
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "resapp_test.Named", resapp.TypeOf[Named]().String())
	assert.Equal(t, "*resapp_test.FirstNamed", resapp.TypeOf[*FirstNamed]().String())
	assert.NotEqual(t, resapp.TypeOf[*Repo[User]](), resapp.TypeOf[*Repo[Order]]())
}
