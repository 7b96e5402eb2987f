package database

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials means the object store key id or secret was not configured.
	ErrMissingCredentials = errors.New("missing object store credentials")
	// ErrConnectionInit means a startup step against the engine failed.
	ErrConnectionInit = errors.New("connection initialization failed")
)

// InitError records which startup step failed. It matches ErrConnectionInit
// and the underlying cause with errors.Is.
type InitError struct {
	Step string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrConnectionInit, e.Step, e.Err)
}

func (e *InitError) Unwrap() []error {
	return []error{ErrConnectionInit, e.Err}
}

func initErr(step string, err error) error {
	return &InitError{Step: step, Err: err}
}
