package resapp

import (
	"reflect"

	"github.com/junioryono/resapp/internal/reflection"
)

// Metadata is the flattened view of a resource type: its resource-reference
// fields, lifecycle hooks and extra dependencies.
type Metadata = reflection.Metadata

// Field describes a resource-reference field.
type Field = reflection.Field

// Hook describes a lifecycle method.
type Hook = reflection.Hook

// Markers select the struct tags and method names a MetadataProvider looks for.
type Markers = reflection.Markers

// MetadataProvider maps a type to its resource fields, hooks and extra
// dependencies. The default provider reads struct tags and method names.
type MetadataProvider interface {
	Describe(t reflect.Type, markers Markers) (*Metadata, error)
}

// Default markers used when the builder is given none.
var (
	DefaultResourceTags      = []string{"inject", "resource"}
	DefaultPostConstructName = "PostConstruct"
	DefaultPreDestroyName    = "PreDestroy"
)

var _ MetadataProvider = (*reflection.Analyzer)(nil)

func defaultMarkers() Markers {
	return Markers{
		ResourceTags:  DefaultResourceTags,
		PostConstruct: []string{DefaultPostConstructName},
		PreDestroy:    []string{DefaultPreDestroyName},
	}
}

// dependencyTypes returns the declared types md depends on, in field order, then
// hook parameters, then extra dependencies. Duplicates are dropped.
func dependencyTypes(md *Metadata) []dependency {
	var deps []dependency
	seen := make(map[reflect.Type]bool)
	add := func(t reflect.Type, name string) {
		if seen[t] {
			return
		}
		seen[t] = true
		deps = append(deps, dependency{typ: t, field: name})
	}

	for _, f := range md.Fields {
		add(f.Type, f.Name)
	}
	for _, h := range []*Hook{md.PostConstruct, md.PreDestroy} {
		if h == nil {
			continue
		}
		for _, p := range h.Params {
			add(p, h.Name)
		}
	}
	for _, t := range md.DependsOn {
		add(t, "")
	}
	return deps
}

// dependency is a declared type together with the member that declared it.
type dependency struct {
	typ   reflect.Type
	field string
}
