// Package ganalytics turns calls on a declared set of user actions into
// analytics events.
//
// An interface is described once (by hand with Interface or from a struct of
// func fields with Describe). Activate precomputes the category and action of
// every method; each call then only classifies its arguments into a label and
// a value before handing an Event to the Sink.
package ganalytics

// Event is one analytics hit. It is built once per call and handed to the
// sink by value.
type Event struct {
	Category string
	Action   string
	Label    string
	Value    int64
}

// Sink receives events. Implementations decide whether delivery is
// synchronous; failures inside the sink are not observed by the wrapper.
type Sink interface {
	Provide(e Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(e Event)

// Provide implements Sink.
func (f SinkFunc) Provide(e Event) { f(e) }
