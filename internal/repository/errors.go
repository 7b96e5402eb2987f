package repository

import (
	"errors"
	"fmt"
)

// Error kinds shared by every repository. Match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrDatabase   = errors.New("database error")
	ErrRowMapping = errors.New("row mapping error")
)

// Error carries the failing operation, its kind and the cause. Detail strings
// are for logs only and are not stable.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(op string) error {
	return &Error{Op: op, Kind: ErrNotFound}
}

func dbErr(op string, err error) error {
	return &Error{Op: op, Kind: ErrDatabase, Err: err}
}

func mappingErr(op string, err error) error {
	return &Error{Op: op, Kind: ErrRowMapping, Err: err}
}

// outcome labels a result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRowMapping):
		return "row_mapping"
	default:
		return "error"
	}
}
