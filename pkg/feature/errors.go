package feature

import "errors"

var (
	// ErrInvalidValue reports a feature value that is neither a boolean,
	// an integer, nor a nested mapping.
	ErrInvalidValue = errors.New("invalid feature value")
)
