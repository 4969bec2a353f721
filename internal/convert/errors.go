// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding reports a source document that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("source is not valid UTF-8")

// IOError is the only failure kind of a conversion: the source could not be
// read or decoded, or the destination could not be written. Markup problems
// never produce an error.
type IOError struct {
	// Op is "read", "decode", or "write".
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOFailure reports whether err, or any error it wraps, is an IOError.
func IsIOFailure(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
