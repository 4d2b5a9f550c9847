package naming

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownConvention = errors.New("unknown naming convention")
	ErrInvalidConvention = errors.New("invalid naming convention")
)
