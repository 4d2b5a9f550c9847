// Package naming converts method and interface identifiers into the case
// style used for analytics categories and actions.
package naming

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Convention converts an identifier into a target case style.
type Convention interface {
	Convert(name string) string
}

// ConventionFunc adapts a plain function to Convention.
type ConventionFunc func(name string) string

// Convert implements Convention.
func (f ConventionFunc) Convert(name string) string { return f(name) }

// Built-in conventions.
var (
	// Lower folds the whole identifier to lower case: tapButton -> tapbutton.
	Lower Convention = ConventionFunc(func(s string) string { return cases.Lower(language.Und).String(s) })
	// Upper folds the whole identifier to upper case: tapButton -> TAPBUTTON.
	Upper Convention = ConventionFunc(func(s string) string { return cases.Upper(language.Und).String(s) })

	LowerSnake Convention = ConventionFunc(strcase.ToSnake)
	UpperSnake Convention = ConventionFunc(strcase.ToScreamingSnake)
	LowerKebab Convention = ConventionFunc(strcase.ToKebab)
	UpperKebab Convention = ConventionFunc(strcase.ToScreamingKebab)
	LowerCamel Convention = ConventionFunc(strcase.ToLowerCamel)
	UpperCamel Convention = ConventionFunc(strcase.ToCamel)

	// None leaves the normalized identifier untouched.
	None Convention = ConventionFunc(func(s string) string { return s })
)

// Apply lower-cases the first rune of raw and then converts the result
// with c. The first step always runs, whatever the convention. A nil
// convention behaves like Lower.
func Apply(c Convention, raw string) string {
	if c == nil {
		c = Lower
	}
	return c.Convert(Decapitalize(raw))
}

// Decapitalize lower-cases the first rune of s.
func Decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Convention{ //nolint:gochecknoglobals // named style registry
		"lower":       Lower,
		"upper":       Upper,
		"lower_snake": LowerSnake,
		"upper_snake": UpperSnake,
		"lower_kebab": LowerKebab,
		"upper_kebab": UpperKebab,
		"lower_camel": LowerCamel,
		"upper_camel": UpperCamel,
		"none":        None,
	}
)

// Register adds a named convention. Names are case-insensitive. Registering
// an existing name replaces it.
func Register(name string, c Convention) error {
	key := normalizeName(name)
	if key == "" || c == nil {
		return fmt.Errorf("register convention %q: %w", name, ErrInvalidConvention)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = c
	return nil
}

// Lookup returns the convention registered under name.
func Lookup(name string) (Convention, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("convention %q: %w", name, ErrUnknownConvention)
	}
	return c, nil
}

// Names lists the registered convention names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}
