package source

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen is matched by every *OpenError.
	ErrOpen = errors.New("open document")
	// ErrUnsupported is returned for file extensions no reader handles.
	ErrUnsupported = errors.New("unsupported file extension")
)

// OpenError reports a document that could not be opened or parsed at all.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOpen) true for any OpenError.
func (e *OpenError) Is(target error) bool { return target == ErrOpen }
