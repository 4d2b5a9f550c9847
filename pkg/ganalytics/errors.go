package ganalytics

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidArgumentShape is returned when a call's arguments cannot be
	// split into a label and a value: more than two parameters, or two
	// parameters of which not exactly one ordering yields a numeric value
	// without label metadata.
	ErrInvalidArgumentShape = errors.New("invalid argument shape")

	// ErrArgumentCount is returned when the number of arguments differs from
	// the declared parameter count. It wraps ErrInvalidArgumentShape.
	ErrArgumentCount = fmt.Errorf("argument count mismatch: %w", ErrInvalidArgumentShape)

	ErrUnknownMethod     = errors.New("unknown method")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)
