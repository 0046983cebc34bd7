package resapp_test

import (
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/junioryono/resapp"
	"github.com/junioryono/resapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookCall struct {
	phase resapp.Phase
	typ   reflect.Type
	err   error
}

func TestHookObserver(t *testing.T) {
	var mu sync.Mutex
	var calls []hookCall
	observer := func(phase resapp.Phase, rt reflect.Type, d time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		calls = append(calls, hookCall{phase, rt, err})
	}

	app := testutil.MustBuild(t, chain(testutil.NewJournal(), &Middle{FailStop: true}, &Leaf{},
		resapp.WithHookObserver(observer)).
		ResourceTypes(resapp.TypeOf[*Sibling]()))
	_ = app.Shutdown()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, calls, 5, "hookless resources are not observed")
	assert.Equal(t, hookCall{resapp.PhasePostConstruct, resapp.TypeOf[*Leaf](), nil}, calls[0])
	assert.Equal(t, hookCall{resapp.PhasePostConstruct, resapp.TypeOf[*Middle](), nil}, calls[1])
	assert.Equal(t, hookCall{resapp.PhasePostConstruct, resapp.TypeOf[*Top](), nil}, calls[2])
	assert.Equal(t, hookCall{resapp.PhasePreDestroy, resapp.TypeOf[*Top](), nil}, calls[3])
	assert.Equal(t, resapp.PhasePreDestroy, calls[4].phase)
	assert.ErrorIs(t, calls[4].err, testutil.ErrStop)
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()

	observer, err := resapp.NewPrometheusObserver(reg)
	require.NoError(t, err)

	t.Run("registering twice reuses collectors", func(t *testing.T) {
		again, err := resapp.NewPrometheusObserver(reg)
		require.NoError(t, err)
		require.NotNil(t, again)
	})

	_, err = chain(testutil.NewJournal(), &Middle{FailInit: true}, &Leaf{},
		resapp.WithHookObserver(observer)).
		Build()
	require.Error(t, err)

	expected := `
# HELP resapp_hook_failures_total Number of resource lifecycle hooks that returned an error or panicked.
# TYPE resapp_hook_failures_total counter
resapp_hook_failures_total{phase="post_construct"} 1
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "resapp_hook_failures_total"))

	count, err := promtest.GatherAndCount(reg, "resapp_hook_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
