// Package common holds sentinel errors shared across the blotter packages.
package common

import "errors"

// ErrNilArguments is a common error response to highlight that nils were passed in
// when they should not have been
var ErrNilArguments = errors.New("received nil argument(s)")
