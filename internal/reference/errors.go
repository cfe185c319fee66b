package reference

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed reference data")

// MalformedError reports a reference file that could not be read or holds a
// structurally short row. Line is 1-based and zero when the whole file failed.
type MalformedError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s line %d: %s", ErrMalformed, e.File, e.Line, msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformed, e.File, msg)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }
