package ganalytics

import (
	"github.com/okian/ganalytics/pkg/ganalytics/label"
	"github.com/okian/ganalytics/pkg/ganalytics/naming"
)

// Category overrides the category derived from the interface name.
type Category struct{ Name string }

// Action overrides the action derived from the method name.
type Action struct{ Name string }

// UseConvention overrides the default naming convention.
type UseConvention struct{ Value naming.Convention }

// HasPrefix prepends Name and Splitter to the action. An empty Name means
// the resolved category; an empty Splitter means Settings.PrefixSplitter.
type HasPrefix struct {
	Name     string
	Splitter string
}

// NoPrefix disables HasPrefix for the element it is attached to.
type NoPrefix struct{}

// Label marks a parameter as the label argument. Converter, when set,
// replaces the registry lookup for that parameter.
type Label struct{ Converter label.Converter }

// Metadata is the declarative configuration attached to an interface, a
// method or a parameter. Nil fields are absent.
type Metadata struct {
	Category   *Category
	Action     *Action
	Convention *UseConvention
	HasPrefix  *HasPrefix
	NoPrefix   *NoPrefix
	Label      *Label
}

// MetaOption sets one metadata field.
type MetaOption func(*Metadata)

// WithCategory attaches Category{name}.
func WithCategory(name string) MetaOption {
	return func(m *Metadata) { m.Category = &Category{Name: name} }
}

// WithAction attaches Action{name}.
func WithAction(name string) MetaOption {
	return func(m *Metadata) { m.Action = &Action{Name: name} }
}

// WithConvention attaches UseConvention{c}.
func WithConvention(c naming.Convention) MetaOption {
	return func(m *Metadata) {
		if c != nil {
			m.Convention = &UseConvention{Value: c}
		}
	}
}

// WithPrefix attaches HasPrefix{name, splitter}.
func WithPrefix(name, splitter string) MetaOption {
	return func(m *Metadata) { m.HasPrefix = &HasPrefix{Name: name, Splitter: splitter} }
}

// WithNoPrefix attaches NoPrefix.
func WithNoPrefix() MetaOption {
	return func(m *Metadata) { m.NoPrefix = &NoPrefix{} }
}

// WithLabel attaches Label{c}; c may be nil to only force the label role.
func WithLabel(c label.Converter) MetaOption {
	return func(m *Metadata) { m.Label = &Label{Converter: c} }
}

// NewMetadata builds a Metadata from options.
func NewMetadata(opts ...MetaOption) Metadata {
	var m Metadata
	m.apply(opts)
	return m
}

func (m *Metadata) apply(opts []MetaOption) {
	for _, opt := range opts {
		opt(m)
	}
}

// find returns the first non-nil field picked from elements. Elements are
// ordered most specific first: parameter, method, interface, defaults.
func find[K any](pick func(*Metadata) *K, elements ...*Metadata) *K {
	for _, el := range elements {
		if el == nil {
			continue
		}
		if v := pick(el); v != nil {
			return v
		}
	}
	return nil
}

func pickCategory(m *Metadata) *Category        { return m.Category }
func pickAction(m *Metadata) *Action            { return m.Action }
func pickConvention(m *Metadata) *UseConvention { return m.Convention }
func pickHasPrefix(m *Metadata) *HasPrefix      { return m.HasPrefix }
func pickNoPrefix(m *Metadata) *NoPrefix        { return m.NoPrefix }
func pickLabel(m *Metadata) *Label              { return m.Label }
