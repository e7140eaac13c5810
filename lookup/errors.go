package lookup

import (
	"errors"
	"fmt"
)

// ErrLookupNotFound is returned when no axis entry matches a query.
var ErrLookupNotFound = errors.New("lookup: no matching entry")

// ParseError reports malformed tabular input with its location.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lookup: %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
