// Package label renders call arguments as analytics event labels.
//
// A Converter turns one argument into a string. Converters are picked in
// this order: the converter attached to the parameter, the converter
// registered for the argument's type in a Registry, and finally Default.
package label

import (
	"fmt"
	"strconv"
	"strings"
)

// Converter renders a value as an event label.
type Converter interface {
	Convert(v any) string
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(v any) string

// Convert implements Converter.
func (f ConverterFunc) Convert(v any) string { return f(v) }

// Built-in converters.
var (
	// Default uses the value's natural string form (fmt verb %v, which
	// honors fmt.Stringer). A nil value renders as "".
	Default Converter = ConverterFunc(func(v any) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})

	// Quoted wraps the default form in double quotes.
	Quoted Converter = ConverterFunc(func(v any) string { return strconv.Quote(Default.Convert(v)) })

	// Lower lower-cases the default form.
	Lower Converter = ConverterFunc(func(v any) string { return strings.ToLower(Default.Convert(v)) })
)
