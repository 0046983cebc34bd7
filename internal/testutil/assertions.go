package testutil

import (
	"reflect"
	"slices"
	"testing"

	"github.com/junioryono/resapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireResource looks up T and fails the test when it is missing.
func RequireResource[T any](t *testing.T, app *resapp.App) T {
	t.Helper()
	v, ok := resapp.Get[T](app)
	require.True(t, ok, "resource %v not found", resapp.TypeOf[T]())
	return v
}

// AssertBefore checks that first appears before second in order.
func AssertBefore(t *testing.T, order []reflect.Type, first, second reflect.Type) {
	t.Helper()
	i := slices.Index(order, first)
	j := slices.Index(order, second)
	require.NotEqual(t, -1, i, "%v missing from order", first)
	require.NotEqual(t, -1, j, "%v missing from order", second)
	assert.Less(t, i, j, "%v must come before %v", first, second)
}

// AssertTopological checks that every local dependency of every local resource
// precedes it in the post-construct order.
func AssertTopological(t *testing.T, app *resapp.App) {
	t.Helper()
	order := app.PostConstructOrder()
	for _, r := range app.LocalResources() {
		for _, dep := range r.DependsOn() {
			d, ok := app.GetResource(dep)
			if !ok || !d.IsLocal() || dep == r.Type() {
				continue
			}
			AssertBefore(t, order, dep, r.Type())
		}
	}
}

// TypesOf returns the types of resources.
func TypesOf(resources []*resapp.Resource) []reflect.Type {
	result := make([]reflect.Type, len(resources))
	for i, r := range resources {
		result[i] = r.Type()
	}
	return result
}
