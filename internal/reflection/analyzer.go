package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	ErrUnexportedField = errors.New("resource field must be exported")
	ErrInvalidHook     = errors.New("invalid lifecycle hook signature")
	ErrNilType         = errors.New("type cannot be nil")
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Markers select which struct tags mark resource fields and which method names
// are lifecycle hooks.
type Markers struct {
	ResourceTags  []string
	PostConstruct []string
	PreDestroy    []string
}

func (m Markers) cacheKey() string {
	return strings.Join(m.ResourceTags, ",") + "|" +
		strings.Join(m.PostConstruct, ",") + "|" +
		strings.Join(m.PreDestroy, ",")
}

// Field describes a resource-reference field.
type Field struct {
	Name  string       // dotted path through embedded structs, e.g. "Base.Logger"
	Index []int        // index sequence for reflect.Value.FieldByIndex
	Type  reflect.Type // declared type
	Tag   string       // tag key that marked the field
}

// Hook describes a lifecycle method. Its parameters are resources passed at
// call time.
type Hook struct {
	Name         string
	Params       []reflect.Type
	ReturnsError bool
}

// Metadata is the flattened resource view of a type.
type Metadata struct {
	Type          reflect.Type
	Fields        []Field
	PostConstruct *Hook
	PreDestroy    *Hook
	DependsOn     []reflect.Type
}

// AnalysisError reports a member of a type that could not be analyzed.
type AnalysisError struct {
	Type   reflect.Type
	Member string
	Cause  error
}

func (e AnalysisError) Error() string {
	return fmt.Sprintf("%v.%s: %v", e.Type, e.Member, e.Cause)
}

func (e AnalysisError) Unwrap() error {
	return e.Cause
}

// Analyzer discovers resource fields and lifecycle hooks through reflection.
// It caches analysis results per type and marker set.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[cacheKey]*Metadata
}

type cacheKey struct {
	typ     reflect.Type
	markers string
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[cacheKey]*Metadata),
	}
}

// Describe returns the metadata of t under the given markers.
func (a *Analyzer) Describe(t reflect.Type, markers Markers) (*Metadata, error) {
	if t == nil {
		return nil, ErrNilType
	}

	key := cacheKey{typ: t, markers: markers.cacheKey()}

	a.mu.RLock()
	if cached, ok := a.cache[key]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	md := &Metadata{Type: t}

	if st := structOf(t); st != nil {
		fields, err := collectFields(t, st, nil, "", markers.ResourceTags)
		if err != nil {
			return nil, err
		}
		md.Fields = fields
	}

	var err error
	if md.PostConstruct, err = findHook(t, markers.PostConstruct); err != nil {
		return nil, err
	}
	if md.PreDestroy, err = findHook(t, markers.PreDestroy); err != nil {
		return nil, err
	}

	md.DependsOn = hookDependencies(md.PostConstruct, md.PreDestroy)

	a.mu.Lock()
	a.cache[key] = md
	a.mu.Unlock()

	return md, nil
}

// structOf returns the struct type behind a pointer-to-struct, or nil. Fields of
// struct values are not addressable once stored, so only pointers carry fields.
func structOf(t reflect.Type) reflect.Type {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil
	}
	return t.Elem()
}

// collectFields walks st, descending into untagged embedded structs, and returns
// every field carrying one of the resource tags.
func collectFields(owner, st reflect.Type, prefix []int, path string, tags []string) ([]Field, error) {
	var fields []Field

	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)

		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		name := f.Name
		if path != "" {
			name = path + "." + f.Name
		}

		tag, tagged, ignored := lookupTag(f.Tag, tags)
		if ignored {
			continue
		}

		if !tagged {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				nested, err := collectFields(owner, f.Type, index, name, tags)
				if err != nil {
					return nil, err
				}
				fields = append(fields, nested...)
			}
			continue
		}

		if !f.IsExported() {
			return nil, AnalysisError{Type: owner, Member: name, Cause: ErrUnexportedField}
		}

		fields = append(fields, Field{
			Name:  name,
			Index: index,
			Type:  f.Type,
			Tag:   tag,
		})
	}

	return fields, nil
}

// lookupTag reports which of keys is present on tag. A value of "-" ignores
// the field.
func lookupTag(tag reflect.StructTag, keys []string) (key string, tagged, ignored bool) {
	for _, k := range keys {
		if v, ok := tag.Lookup(k); ok {
			if v == "-" {
				return k, false, true
			}
			return k, true, false
		}
	}
	return "", false, false
}

// findHook returns the first method of t named by names. Interface types are
// supported; their methods carry no receiver parameter.
func findHook(t reflect.Type, names []string) (*Hook, error) {
	for _, name := range names {
		m, ok := t.MethodByName(name)
		if !ok {
			continue
		}

		mt := m.Type
		offset := 1
		if t.Kind() == reflect.Interface {
			offset = 0
		}

		if mt.IsVariadic() {
			return nil, AnalysisError{Type: t, Member: name, Cause: fmt.Errorf("%w: variadic", ErrInvalidHook)}
		}

		hook := &Hook{Name: name}
		for i := offset; i < mt.NumIn(); i++ {
			hook.Params = append(hook.Params, mt.In(i))
		}

		switch {
		case mt.NumOut() == 0:
		case mt.NumOut() == 1 && mt.Out(0) == errType:
			hook.ReturnsError = true
		default:
			return nil, AnalysisError{
				Type:   t,
				Member: name,
				Cause:  fmt.Errorf("%w: must return nothing or error, got %v", ErrInvalidHook, mt),
			}
		}

		return hook, nil
	}

	return nil, nil
}

func hookDependencies(hooks ...*Hook) []reflect.Type {
	var deps []reflect.Type
	seen := make(map[reflect.Type]bool)
	for _, h := range hooks {
		if h == nil {
			continue
		}
		for _, p := range h.Params {
			if !seen[p] {
				seen[p] = true
				deps = append(deps, p)
			}
		}
	}
	return deps
}
