package ganalytics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/ganalytics/pkg/ganalytics/naming"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"
)

// Option applies a configuration option to the Wrapper.
type Option func(*Wrapper)

// WithSettings replaces DefaultSettings. Zero convention and registry
// fields fall back to their defaults.
func WithSettings(s Settings) Option {
	return func(w *Wrapper) {
		w.settings = s
	}
}

// WithDefaultMetadata sets the lowest-precedence metadata source.
func WithDefaultMetadata(opts ...MetaOption) Option {
	return func(w *Wrapper) {
		w.defaults.apply(opts)
	}
}

// WithLogger sets a custom logger for the wrapper.
func WithLogger(l logger.Logger) Option {
	return func(w *Wrapper) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics records activations, emitted events and failures on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *Wrapper) {
		w.metrics = m
	}
}

// Wrapper activates interface descriptors against one sink.
type Wrapper struct {
	sink     Sink
	settings Settings
	defaults Metadata

	classifier classifier

	logger  logger.Logger
	metrics *metrics.Manager
}

// NewWrapper creates a wrapper delivering to sink.
func NewWrapper(sink Sink, opts ...Option) *Wrapper {
	w := &Wrapper{
		sink:     sink,
		settings: DefaultSettings(),
		logger:   logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	w.settings = w.settings.normalized()
	w.classifier = classifier{
		converters: w.settings.Converters,
		hierarchy:  w.settings.UseTypeConvertersForSubType,
	}
	w.logger = w.logger.Named("ganalytics")
	return w
}

// Settings returns the effective settings.
func (w *Wrapper) Settings() Settings { return w.settings }

// route is the precomputed dispatch entry of one method.
type route struct {
	method   MethodDescriptor
	category string
	action   string
}

// Instance is an activated interface. It is immutable and safe for
// concurrent use.
type Instance struct {
	name   string
	routes map[string]*route
	w      *Wrapper
}

// Activate validates d and builds its dispatch table. Category and action
// of every method are resolved here, once.
func (w *Wrapper) Activate(ctx context.Context, d InterfaceDescriptor) (*Instance, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if w.sink == nil {
		return nil, fmt.Errorf("%s: wrapper has no sink: %w", d.Name, ErrInvalidDescriptor)
	}

	in := &Instance{
		name:   d.Name,
		routes: make(map[string]*route, len(d.Methods)),
		w:      w,
	}
	for i := range d.Methods {
		r := w.route(&d, &d.Methods[i])
		in.routes[r.method.Name] = r
	}

	w.metrics.RecordActivation(d.Name)
	w.logger.Debug(ctx, "interface activated",
		logger.String("interface", d.Name),
		logger.Int("methods", len(d.Methods)),
	)
	return in, nil
}

func (w *Wrapper) route(d *InterfaceDescriptor, m *MethodDescriptor) *route {
	iface, meth, defs := &d.Meta, &m.Meta, &w.defaults

	convention := w.settings.DefaultConvention
	if c := find(pickConvention, meth, iface, defs); c != nil && c.Value != nil {
		convention = c.Value
	}

	category := naming.Apply(convention, w.settings.interfaceName(d.Name))
	if c := find(pickCategory, meth, iface, defs); c != nil && c.Name != "" {
		category = c.Name
	}

	action := naming.Apply(convention, m.Name)
	if a := find(pickAction, meth); a != nil && a.Name != "" {
		action = a.Name
	}
	if find(pickNoPrefix, meth, iface, defs) == nil {
		if p := find(pickHasPrefix, meth, iface, defs); p != nil {
			action = w.prefixed(action, category, p)
		}
	}

	method := *m
	method.Params = append([]ParamDescriptor(nil), m.Params...)
	return &route{
		method:   method,
		category: category,
		action:   action,
	}
}

func (w *Wrapper) prefixed(action, category string, p *HasPrefix) string {
	prefix := p.Name
	if prefix == "" {
		prefix = category
	}
	splitter := p.Splitter
	if splitter == "" {
		splitter = w.settings.PrefixSplitter
	}
	return prefix + splitter + action
}

// Name returns the interface name.
func (in *Instance) Name() string { return in.name }

// Methods lists the method names in lexical order.
func (in *Instance) Methods() []string {
	names := make([]string, 0, len(in.routes))
	for name := range in.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the event for a call without delivering it.
func (in *Instance) Resolve(method string, args ...any) (Event, error) {
	r, ok := in.routes[method]
	if !ok {
		return Event{}, fmt.Errorf("%s.%s: %w", in.name, method, ErrUnknownMethod)
	}
	lbl, value, err := in.w.classifier.classify(method, r.method.Params, args)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", in.name, err)
	}
	return Event{
		Category: r.category,
		Action:   r.action,
		Label:    lbl,
		Value:    value,
	}, nil
}

// Invoke builds the event for a call and hands it to the sink. On error no
// event is delivered.
func (in *Instance) Invoke(ctx context.Context, method string, args ...any) error {
	e, err := in.Resolve(method, args...)
	if err != nil {
		in.w.metrics.RecordInvocationError(errorReason(err))
		in.w.logger.Warn(ctx, "event not emitted",
			logger.String("interface", in.name),
			logger.String("method", method),
			logger.Error(err),
		)
		return err
	}

	in.w.sink.Provide(e)

	in.w.metrics.RecordEventEmitted(e.Category, e.Action, e.Value)
	in.w.logger.Debug(ctx, "event emitted",
		logger.String("category", e.Category),
		logger.String("action", e.Action),
		logger.String("label", e.Label),
		logger.Int64("value", e.Value),
	)
	return nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return "unknown_method"
	case errors.Is(err, ErrArgumentCount):
		return "argument_count"
	case errors.Is(err, ErrInvalidArgumentShape):
		return "invalid_argument_shape"
	default:
		return "other"
	}
}
