package resapp

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errTestService struct{}

type errTestGeneric[T any] struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrNilType, "type cannot be nil"},
		{ErrUnresolvedType, "no resource is assignable to type"},
		{ErrNoFabricationStrategy, "no fabrication strategy for type"},
		{ErrNilInstance, "fabricated instance is nil"},
		{ErrUnexportedField, "resource field must be exported"},
		{ErrInvalidHook, "invalid lifecycle hook signature"},
		{ErrNilInstrumentation, "aspect returned a nil instance"},
		{ErrAppShutDown, "app has been shut down"},
		{ErrParentShutDown, "parent app has been shut down"},
		{ErrNilParent, "parent app cannot be nil"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestGraphResolutionError(t *testing.T) {
	tests := []struct {
		name     string
		err      GraphResolutionError
		expected string
	}{
		{
			name:     "root type",
			err:      GraphResolutionError{Type: reflect.TypeOf(0), Cause: ErrNoFabricationStrategy},
			expected: "graph resolution failed for int: no fabrication strategy for type",
		},
		{
			name: "field",
			err: GraphResolutionError{
				Type:       reflect.TypeOf(&errTestService{}),
				Field:      "Reader",
				Dependency: reflect.TypeOf((*fmt.Stringer)(nil)).Elem(),
				Cause:      ErrUnresolvedType,
			},
			expected: "graph resolution failed for *errTestService.Reader (Stringer): no resource is assignable to type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Cause)
			assert.True(t, IsGraphResolution(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, IsCycle(tt.err))
		})
	}
}

func TestCycleError(t *testing.T) {
	a := reflect.TypeOf(&errTestService{})
	b := reflect.TypeOf(&errTestGeneric[int]{})

	err := CycleError{Members: []reflect.Type{a, b}, Path: []reflect.Type{a, b, a}}
	msg := err.Error()

	assert.Contains(t, msg, "dependency cycle")
	assert.Contains(t, msg, "*errTestService")
	assert.Contains(t, msg, "*errTestGeneric[int]")
	assert.True(t, IsCycle(fmt.Errorf("wrapped: %w", err)))

	t.Run("members only", func(t *testing.T) {
		err := CycleError{Members: []reflect.Type{a, b}}
		assert.Contains(t, err.Error(), "*errTestGeneric[int]")
	})
}

func TestFailureErrors(t *testing.T) {
	r := &Resource{entry: newEntry(reflect.TypeOf(&errTestService{}), &Metadata{}, reflect.Value{}), local: true}
	cause := errors.New("boom")

	initFailure := InitializationFailure{Resource: r, Cause: cause, Initialized: []*Resource{r}}
	assert.Equal(t, "post-construct of *errTestService failed (1 initialized, 0 never reached): boom", initFailure.Error())
	assert.ErrorIs(t, initFailure, cause)

	destroy := DestructionFailure{Resource: r, Cause: cause, Undestroyed: []*Resource{r, r}}
	assert.Equal(t, "pre-destroy of *errTestService failed (0 destroyed, 2 left): boom", destroy.Error())
	assert.ErrorIs(t, destroy, cause)
}

func TestAspectAndMismatchErrors(t *testing.T) {
	typ := reflect.TypeOf(&errTestService{})

	mismatch := TypeMismatchError{Expected: typ, Actual: reflect.TypeOf(""), Context: "instrumented instance"}
	assert.Equal(t, "instrumented instance: expected *errTestService, got string", mismatch.Error())

	err := AspectError{Type: typ, Aspect: "trace", Cause: mismatch}
	assert.Equal(t, "aspect trace failed for *errTestService: instrumented instance: expected *errTestService, got string", err.Error())

	var target TypeMismatchError
	require.True(t, errors.As(err, &target))
}

func TestHookPanicError(t *testing.T) {
	err := HookPanicError{Type: reflect.TypeOf(&errTestService{}), Hook: "PostConstruct", Panic: "oops", Stack: []byte("goroutine 1")}
	msg := err.Error()
	assert.Contains(t, msg, "hook *errTestService.PostConstruct panicked: oops")
	assert.Contains(t, msg, "Stack trace:")
	assert.Contains(t, msg, "goroutine 1")
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		typ      reflect.Type
		expected string
	}{
		{nil, "<nil>"},
		{reflect.TypeOf(0), "int"},
		{reflect.TypeOf(&errTestService{}), "*errTestService"},
		{reflect.TypeOf([]errTestService{}), "[]errTestService"},
		{reflect.TypeOf((*fmt.Stringer)(nil)).Elem(), "Stringer"},
		{reflect.TypeOf(func() {}), "func()"},
		{reflect.TypeOf(map[string]int{}), "map[string]int"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatType(tt.typ))
		})
	}
}
