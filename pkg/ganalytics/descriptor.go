package ganalytics

import (
	"fmt"
	"reflect"
)

// InterfaceDescriptor declares a set of user actions.
type InterfaceDescriptor struct {
	Name    string
	Meta    Metadata
	Methods []MethodDescriptor
}

// MethodDescriptor declares one action.
type MethodDescriptor struct {
	Name   string
	Meta   Metadata
	Params []ParamDescriptor
}

// ParamDescriptor declares one method parameter. Type is informational and
// may be nil; classification looks at the runtime argument.
type ParamDescriptor struct {
	Name string
	Type reflect.Type
	Meta Metadata
}

// Interface starts a descriptor named name with interface-level metadata.
func Interface(name string, opts ...MetaOption) InterfaceDescriptor {
	return InterfaceDescriptor{Name: name, Meta: NewMetadata(opts...)}
}

// Method returns a copy of d with one more method.
func (d InterfaceDescriptor) Method(name string, params []ParamDescriptor, opts ...MetaOption) InterfaceDescriptor {
	methods := make([]MethodDescriptor, len(d.Methods), len(d.Methods)+1)
	copy(methods, d.Methods)
	d.Methods = append(methods, MethodDescriptor{Name: name, Meta: NewMetadata(opts...), Params: params})
	return d
}

// Params collects parameter descriptors for Method.
func Params(params ...ParamDescriptor) []ParamDescriptor { return params }

// Param declares a parameter with parameter-level metadata.
func Param(name string, opts ...MetaOption) ParamDescriptor {
	return ParamDescriptor{Name: name, Meta: NewMetadata(opts...)}
}

// Validate checks that names are present and method names are unique.
func (d InterfaceDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("interface name is empty: %w", ErrInvalidDescriptor)
	}
	seen := make(map[string]struct{}, len(d.Methods))
	for i, m := range d.Methods {
		if m.Name == "" {
			return fmt.Errorf("%s: method #%d has no name: %w", d.Name, i, ErrInvalidDescriptor)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%s: duplicate method %s: %w", d.Name, m.Name, ErrInvalidDescriptor)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
