package merge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSnapshots is returned when Merge is called without any version
	ErrNoSnapshots = errors.New("no version snapshots to merge")

	// ErrDuplicateVersion is returned when two snapshots share a version id
	ErrDuplicateVersion = errors.New("duplicate version id")

	// ErrMalformedInput is wrapped by every InputError
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownMessage is returned when a field mapping names a message no version declares
	ErrUnknownMessage = errors.New("unknown message")
)

// InputError describes malformed input and where it was found
type InputError struct {
	Version string
	Message string
	Field   string
	Reason  string
	// Err is an optional more specific sentinel, e.g. ErrUnknownMessage
	Err error
}

func (e *InputError) Error() string {
	var loc []string
	if e.Version != "" {
		loc = append(loc, "version "+e.Version)
	}
	if e.Message != "" {
		loc = append(loc, "message "+e.Message)
	}
	if e.Field != "" {
		loc = append(loc, "field "+e.Field)
	}
	if len(loc) == 0 {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed input (%s): %s", strings.Join(loc, ", "), e.Reason)
}

// Is reports ErrMalformedInput and the optional specific sentinel
func (e *InputError) Is(target error) bool {
	return target == ErrMalformedInput || (e.Err != nil && errors.Is(e.Err, target))
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErrorf(version, message, field, format string, args ...interface{}) *InputError {
	return &InputError{
		Version: version,
		Message: message,
		Field:   field,
		Reason:  fmt.Sprintf(format, args...),
	}
}
