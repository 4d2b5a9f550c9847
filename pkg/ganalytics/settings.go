package ganalytics

import (
	"strings"

	"github.com/okian/ganalytics/pkg/ganalytics/label"
	"github.com/okian/ganalytics/pkg/ganalytics/naming"
)

// Default settings.
const (
	// DefaultPrefixSplitter joins a HasPrefix name and the action.
	DefaultPrefixSplitter = "_"

	// cutOffToken is stripped from interface names when CutOffPrefix is set.
	cutOffToken = "analytics"
)

// Settings is the global configuration of a Wrapper. It is copied at
// construction and never mutated afterwards.
type Settings struct {
	// DefaultConvention applies when no UseConvention metadata is found.
	DefaultConvention naming.Convention

	// CutOffPrefix strips a leading "analytics" (any case) from interface
	// names before deriving the category.
	CutOffPrefix bool

	// PrefixSplitter is used when HasPrefix has an empty Splitter.
	PrefixSplitter string

	// UseTypeConvertersForSubType makes converter lookup walk the
	// argument's type hierarchy instead of matching its exact type only.
	UseTypeConvertersForSubType bool

	// Converters holds type-based label converters.
	Converters *label.Registry
}

// DefaultSettings returns lower-case naming, no prefix cut, "_" splitter,
// exact-type converter lookup and an empty registry.
func DefaultSettings() Settings {
	return Settings{
		DefaultConvention: naming.Lower,
		PrefixSplitter:    DefaultPrefixSplitter,
		Converters:        label.NewRegistry(),
	}
}

// normalized fills zero fields with defaults.
func (s Settings) normalized() Settings {
	if s.DefaultConvention == nil {
		s.DefaultConvention = naming.Lower
	}
	if s.Converters == nil {
		s.Converters = label.NewRegistry()
	}
	return s
}

// interfaceName returns the name used to derive the default category.
func (s Settings) interfaceName(name string) string {
	if !s.CutOffPrefix {
		return name
	}
	if len(name) > len(cutOffToken) && strings.EqualFold(name[:len(cutOffToken)], cutOffToken) {
		return naming.Capitalize(name[len(cutOffToken):])
	}
	return name
}
