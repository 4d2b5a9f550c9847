package ganalytics

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/okian/ganalytics/pkg/ganalytics/naming"
)

// tagKey is the struct tag read by Describe.
const tagKey = "analytics"

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// DescribeOption attaches metadata while describing a struct.
type DescribeOption func(*describer)

type describer struct {
	iface   []MetaOption
	methods map[string][]MetaOption
	params  map[string]map[int][]MetaOption
}

// ForInterface attaches interface-level metadata.
func ForInterface(opts ...MetaOption) DescribeOption {
	return func(d *describer) { d.iface = append(d.iface, opts...) }
}

// ForMethod attaches metadata to the method backed by field name.
func ForMethod(name string, opts ...MetaOption) DescribeOption {
	return func(d *describer) { d.methods[name] = append(d.methods[name], opts...) }
}

// ForParam attaches metadata to parameter index (zero-based, not counting a
// leading context.Context) of method name.
func ForParam(name string, index int, opts ...MetaOption) DescribeOption {
	return func(d *describer) {
		if d.params[name] == nil {
			d.params[name] = map[int][]MetaOption{}
		}
		d.params[name][index] = append(d.params[name][index], opts...)
	}
}

// Describe derives an interface descriptor from struct type T. The struct
// name is the interface name and every exported func-typed field is a
// method named after the field. Func fields may take a leading
// context.Context and may return nothing or a single error.
//
// Metadata comes from `analytics` struct tags, a blank `_` field carrying
// interface-level tags, and opts. Supported tag keys: category, action,
// convention (a registered naming convention), prefix, splitter, noprefix.
// A field tagged `analytics:"-"` is skipped.
func Describe[T any](opts ...DescribeOption) (InterfaceDescriptor, error) {
	return describe(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

func describe(t reflect.Type, opts ...DescribeOption) (InterfaceDescriptor, error) {
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return InterfaceDescriptor{}, fmt.Errorf("%s is not a named struct: %w", t, ErrInvalidDescriptor)
	}
	cfg := &describer{
		methods: map[string][]MetaOption{},
		params:  map[string]map[int][]MetaOption{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	d := InterfaceDescriptor{Name: t.Name()}
	known := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup(tagKey)
		if f.Name == "_" {
			if tagged {
				metaOpts, err := parseTag(tag)
				if err != nil {
					return InterfaceDescriptor{}, fmt.Errorf("%s: %w", d.Name, err)
				}
				d.Meta.apply(metaOpts)
			}
			continue
		}
		if !f.IsExported() || f.Type.Kind() != reflect.Func || tag == "-" {
			continue
		}

		m, err := describeMethod(f, tag)
		if err != nil {
			return InterfaceDescriptor{}, fmt.Errorf("%s: %w", d.Name, err)
		}
		m.Meta.apply(cfg.methods[m.Name])
		for idx, popts := range cfg.params[m.Name] {
			if idx < 0 || idx >= len(m.Params) {
				return InterfaceDescriptor{}, fmt.Errorf("%s.%s: no parameter #%d: %w", d.Name, m.Name, idx, ErrInvalidDescriptor)
			}
			m.Params[idx].Meta.apply(popts)
		}
		known[m.Name] = true
		d.Methods = append(d.Methods, m)
	}
	d.Meta.apply(cfg.iface)

	for name := range cfg.methods {
		if !known[name] {
			return InterfaceDescriptor{}, fmt.Errorf("%s: option for unknown method %s: %w", d.Name, name, ErrInvalidDescriptor)
		}
	}
	for name := range cfg.params {
		if !known[name] {
			return InterfaceDescriptor{}, fmt.Errorf("%s: option for unknown method %s: %w", d.Name, name, ErrInvalidDescriptor)
		}
	}
	return d, d.Validate()
}

func describeMethod(f reflect.StructField, tag string) (MethodDescriptor, error) {
	ft := f.Type
	if ft.IsVariadic() {
		return MethodDescriptor{}, fmt.Errorf("method %s is variadic: %w", f.Name, ErrInvalidDescriptor)
	}
	if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != errorType) {
		return MethodDescriptor{}, fmt.Errorf("method %s must return nothing or error: %w", f.Name, ErrInvalidDescriptor)
	}

	m := MethodDescriptor{Name: f.Name}
	for i := leadingContext(ft); i < ft.NumIn(); i++ {
		m.Params = append(m.Params, ParamDescriptor{
			Name: fmt.Sprintf("param%d", len(m.Params)+1),
			Type: ft.In(i),
		})
	}

	metaOpts, err := parseTag(tag)
	if err != nil {
		return MethodDescriptor{}, fmt.Errorf("method %s: %w", f.Name, err)
	}
	m.Meta.apply(metaOpts)
	return m, nil
}

// leadingContext returns 1 when the first parameter is a context.Context.
func leadingContext(ft reflect.Type) int {
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		return 1
	}
	return 0
}

func parseTag(tag string) ([]MetaOption, error) {
	var (
		opts      []MetaOption
		hasPrefix bool
		prefix    string
		splitter  string
	)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "category":
			opts = append(opts, WithCategory(value))
		case "action":
			opts = append(opts, WithAction(value))
		case "convention":
			c, err := naming.Lookup(value)
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w: %w", part, ErrInvalidDescriptor, err)
			}
			opts = append(opts, WithConvention(c))
		case "prefix":
			hasPrefix, prefix = true, value
		case "splitter":
			hasPrefix, splitter = true, value
		case "noprefix":
			opts = append(opts, WithNoPrefix())
		default:
			return nil, fmt.Errorf("unknown tag key %q: %w", key, ErrInvalidDescriptor)
		}
	}
	if hasPrefix {
		opts = append(opts, WithPrefix(prefix, splitter))
	}
	return opts, nil
}
