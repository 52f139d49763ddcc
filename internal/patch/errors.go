package patch

import (
	"errors"
	"fmt"
)

// ErrUnresolvedConflict is returned when a conflict is pushed before it is resolved.
var ErrUnresolvedConflict = errors.New("conflict must be resolved before it can be pushed")

// IOError annotates a local filesystem failure with the path it concerns.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioErr(path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Path: path, Err: err}
}
