package resapp

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/resapp/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.

var (
	// Graph resolution errors.
	ErrNilType               = reflection.ErrNilType
	ErrUnresolvedType        = errors.New("no resource is assignable to type")
	ErrNoFabricationStrategy = errors.New("no fabrication strategy for type")
	ErrNilInstance           = errors.New("fabricated instance is nil")
	ErrInvalidFactory        = errors.New("factory must be a function returning a value and an optional error")

	// Metadata errors.
	ErrUnexportedField = reflection.ErrUnexportedField
	ErrInvalidHook     = reflection.ErrInvalidHook

	// Instrumentation errors.
	ErrNilInstrumentation = errors.New("aspect returned a nil instance")

	// Lifecycle errors.
	ErrAppShutDown    = errors.New("app has been shut down")
	ErrParentShutDown = errors.New("parent app has been shut down")
	ErrNilParent      = errors.New("parent app cannot be nil")
)

var (
	_ error = GraphResolutionError{}
	_ error = CycleError{}
	_ error = AspectError{}
	_ error = TypeMismatchError{}
	_ error = HookPanicError{}
	_ error = InitializationFailure{}
	_ error = DestructionFailure{}
	_ error = ModuleError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// GraphResolutionError reports a resource type, and optionally one of its fields,
// that could not be resolved or fabricated. Field is empty for root types.
type GraphResolutionError struct {
	Type       reflect.Type
	Field      string
	Dependency reflect.Type
	Cause      error
}

func (e GraphResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("graph resolution failed for ")
	b.WriteString(formatType(e.Type))
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	if e.Dependency != nil {
		b.WriteString(fmt.Sprintf(" (%s)", formatType(e.Dependency)))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e GraphResolutionError) Unwrap() error {
	return e.Cause
}

// CycleError reports a dependency cycle in which two or more resources declare
// lifecycle hooks. Path walks the cycle and ends where it started.
type CycleError struct {
	Members []reflect.Type
	Path    []reflect.Type
}

func (e CycleError) Error() string {
	var b strings.Builder
	b.WriteString("dependency cycle between resources with lifecycle hooks:\n\n")

	path := e.Path
	if len(path) == 0 {
		path = e.Members
	}
	for i, t := range path {
		b.WriteString(fmt.Sprintf("    %s\n", formatType(t)))
		if i < len(path)-1 {
			b.WriteString("      ↓\n")
		}
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Move the hook off one of the members\n")
	b.WriteString("  • Depend on an interface resolved outside the cycle\n")

	return b.String()
}

// AspectError reports an aspect that failed to instrument a resource or returned
// a replacement its dependents cannot hold.
type AspectError struct {
	Type   reflect.Type
	Aspect string
	Cause  error
}

func (e AspectError) Error() string {
	return fmt.Sprintf("aspect %s failed for %s: %v", e.Aspect, formatType(e.Type), e.Cause)
}

func (e AspectError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a value is not assignable where it is needed.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "field Repo.DB", "hook parameter", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// HookPanicError indicates a lifecycle hook panicked.
// It captures the panic value and stack trace for debugging.
type HookPanicError struct {
	Type  reflect.Type
	Hook  string
	Panic any
	Stack []byte
}

func (e HookPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("hook %s.%s panicked: %v\n", formatType(e.Type), e.Hook, e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// InitializationFailure is returned by Build when a post-construct hook fails.
// Initialized resources are not rolled back; cleaning them up is the caller's
// responsibility.
type InitializationFailure struct {
	// Resource is the resource whose hook failed.
	Resource *Resource
	Cause    error
	// Initialized lists the resources initialized before the failure, in order.
	Initialized []*Resource
	// Uninitialized lists the resources scheduled after the failed one.
	Uninitialized []*Resource
}

func (e InitializationFailure) Error() string {
	return fmt.Sprintf("post-construct of %s failed (%d initialized, %d never reached): %v",
		formatType(e.Resource.Type()), len(e.Initialized), len(e.Uninitialized), e.Cause)
}

func (e InitializationFailure) Unwrap() error {
	return e.Cause
}

// DestructionFailure is returned by Shutdown when a pre-destroy hook fails.
type DestructionFailure struct {
	Resource *Resource
	Cause    error
	// Destroyed lists the resources destroyed before the failure, in order.
	Destroyed []*Resource
	// Undestroyed lists the resources scheduled after the failed one.
	Undestroyed []*Resource
}

func (e DestructionFailure) Error() string {
	return fmt.Sprintf("pre-destroy of %s failed (%d destroyed, %d left): %v",
		formatType(e.Resource.Type()), len(e.Destroyed), len(e.Undestroyed), e.Cause)
}

func (e DestructionFailure) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// IsCycle reports whether err is or wraps a CycleError.
func IsCycle(err error) bool {
	var ce CycleError
	return errors.As(err, &ce)
}

// IsGraphResolution reports whether err is or wraps a GraphResolutionError.
func IsGraphResolution(err error) bool {
	var ge GraphResolutionError
	return errors.As(err, &ge)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		// *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
