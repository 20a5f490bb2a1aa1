package gormstore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Registry maps child type names, as they appear as keys of incoming payloads,
// to model types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry returns a registry holding the given models.
func NewRegistry(models ...any) *Registry {
	r := &Registry{types: make(map[string]reflect.Type)}
	r.Register(models...)
	return r
}

// TypeName returns the short Go type name of a model ("FamilyMember" for *models.FamilyMember).
func TypeName(model any) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Register adds models under their short type name. Registering a name twice
// keeps the last model.
func (r *Registry) Register(models ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		t := reflect.TypeOf(m)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		r.types[t.Name()] = t
	}
}

// Lookup resolves a type name. Exact matches win over case-insensitive ones.
func (r *Registry) Lookup(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	for registered, t := range r.types {
		if strings.EqualFold(registered, name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// New returns a pointer to a zero value of the named type.
func (r *Registry) New(name string) (any, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return reflect.New(t).Interface(), nil
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns a zero value pointer of every registered type, sorted by name.
// The result can be passed to AutoMigrate.
func (r *Registry) Models() []any {
	names := r.Names()
	models := make([]any, 0, len(names))
	for _, name := range names {
		m, _ := r.New(name)
		models = append(models, m)
	}
	return models
}
