package label

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithConverter registers c for values of exactly type t.
func WithConverter(t reflect.Type, c Converter) Option {
	return func(r *Registry) {
		r.Register(t, c)
	}
}

// snapshot is an immutable view of the registered converters.
type snapshot struct {
	byType     map[reflect.Type]Converter
	interfaces []reflect.Type // registered interface types, registration order
}

// Registry maps runtime types to label converters.
//
// Lookups read an immutable snapshot and never lock, so a Registry may be
// shared by concurrent callers. Register copies the snapshot and is meant
// to run while the registry is being set up.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// NewRegistry creates an empty registry with configuration options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{byType: map[reflect.Type]Converter{}})

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds c to type t. Registering an interface type makes c a
// candidate for every value implementing it when the hierarchy walk is on.
func (r *Registry) Register(t reflect.Type, c Converter) {
	if t == nil || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	next := &snapshot{
		byType:     make(map[reflect.Type]Converter, len(old.byType)+1),
		interfaces: old.interfaces,
	}
	for k, v := range old.byType {
		next.byType[k] = v
	}
	if _, exists := next.byType[t]; !exists && t.Kind() == reflect.Interface && t != anyType {
		next.interfaces = append(append([]reflect.Type(nil), old.interfaces...), t)
	}
	next.byType[t] = c
	r.snap.Store(next)
}

// RegisterFor binds c to the static type T.
func RegisterFor[T any](r *Registry, c Converter) {
	r.Register(reflect.TypeOf((*T)(nil)).Elem(), c)
}

// Lookup returns the converter registered for exactly t.
func (r *Registry) Lookup(t reflect.Type) (Converter, bool) {
	if r == nil || t == nil {
		return nil, false
	}
	c, ok := r.snap.Load().byType[t]
	return c, ok
}

// Len reports the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.snap.Load().byType)
}

// Resolve picks the converter for v. An explicit converter always wins.
// Otherwise the registry is consulted: only v's exact dynamic type when
// hierarchy is false, or every type in Hierarchy(v) when it is true. Default
// is returned when nothing matches.
func (r *Registry) Resolve(v any, explicit Converter, hierarchy bool) Converter {
	if explicit != nil {
		return explicit
	}
	if r == nil || v == nil {
		return Default
	}
	snap := r.snap.Load()
	if !hierarchy {
		if c, ok := snap.byType[reflect.TypeOf(v)]; ok {
			return c
		}
		return Default
	}
	for _, t := range snap.hierarchy(reflect.TypeOf(v)) {
		if c, ok := snap.byType[t]; ok {
			return c
		}
	}
	return Default
}

// Convert resolves a converter for v and applies it.
func (r *Registry) Convert(v any, explicit Converter, hierarchy bool) string {
	return r.Resolve(v, explicit, hierarchy).Convert(v)
}

// Hierarchy lists the types searched for v, most specific first: the
// dynamic type, the element types behind any pointers, the registered
// interface types it implements in registration order, then any.
func (r *Registry) Hierarchy(v any) []reflect.Type {
	if v == nil {
		return []reflect.Type{anyType}
	}
	var snap *snapshot
	if r != nil {
		snap = r.snap.Load()
	} else {
		snap = &snapshot{}
	}
	return snap.hierarchy(reflect.TypeOf(v))
}

func (s *snapshot) hierarchy(t reflect.Type) []reflect.Type {
	types := []reflect.Type{t}
	for elem := t; elem.Kind() == reflect.Pointer; {
		elem = elem.Elem()
		types = append(types, elem)
	}
	for _, iface := range s.interfaces {
		if t.Implements(iface) {
			types = append(types, iface)
		}
	}
	return append(types, anyType)
}
