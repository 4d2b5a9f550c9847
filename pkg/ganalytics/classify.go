package ganalytics

import (
	"fmt"

	"github.com/okian/ganalytics/pkg/ganalytics/label"
)

// maxParams is the largest parameter count a method may declare.
const maxParams = 2

// classifier splits call arguments into a label and a value.
type classifier struct {
	converters *label.Registry
	hierarchy  bool
}

// classify returns the label and value for args passed to a method with
// the given parameters.
//
// With two arguments the second is tried as the value first, then the
// first. A value candidate must be numeric and carry no Label metadata.
func (c classifier) classify(method string, params []ParamDescriptor, args []any) (string, int64, error) {
	if len(params) > maxParams {
		return "", 0, fmt.Errorf("method %s has %d parameters, at most %d are supported: %w",
			method, len(params), maxParams, ErrInvalidArgumentShape)
	}
	if len(args) != len(params) {
		return "", 0, fmt.Errorf("method %s takes %d arguments, got %d: %w",
			method, len(params), len(args), ErrArgumentCount)
	}

	switch len(args) {
	case 0:
		return "", 0, nil
	case 1:
		return c.convert(args[0], labelOf(params[0])), 0, nil
	default:
		l1, l2 := labelOf(params[0]), labelOf(params[1])
		if lbl, val, ok := c.asValue(args[1], l2, args[0], l1); ok {
			return lbl, val, nil
		}
		if lbl, val, ok := c.asValue(args[0], l1, args[1], l2); ok {
			return lbl, val, nil
		}
		return "", 0, fmt.Errorf("method %s: one of two parameters must be a number without label metadata: %w",
			method, ErrInvalidArgumentShape)
	}
}

func (c classifier) asValue(v any, vLabel *Label, l any, lLabel *Label) (string, int64, bool) {
	if vLabel != nil || !IsNumeric(v) {
		return "", 0, false
	}
	return c.convert(l, lLabel), ToValue(v), true
}

func (c classifier) convert(v any, meta *Label) string {
	var explicit label.Converter
	if meta != nil {
		explicit = meta.Converter
	}
	return c.converters.Convert(v, explicit, c.hierarchy)
}

func labelOf(p ParamDescriptor) *Label {
	return find(pickLabel, &p.Meta)
}
