package keyarc

import (
	"fmt"
)

// InvalidInputError reports malformed archive bytes: a bad tag, a short
// read, a wrong version or an out-of-range table index. Nothing is adopted
// from an archive that fails to parse.
type InvalidInputError struct {
	Off int
	Msg string
	Err error
}

func invalidInputf(off int, err error, format string, args ...any) error {
	return &InvalidInputError{off, fmt.Sprintf(format, args...), err}
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid archive at offset %d: %s: %v", e.Off, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid archive at offset %d: %s", e.Off, e.Msg)
}

// MissingValueError is returned by required decode accessors when the key
// is absent from the current value's fields.
type MissingValueError struct {
	Key string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for key %q", e.Key)
}

// TypeMismatchError is returned when the archived primitive under a key
// does not match the shape or type the caller asked for.
type TypeMismatchError struct {
	Key  string
	Want string
	Got  string
}

func typeMismatchf(key string, want, gotFormat string, args ...any) error {
	return &TypeMismatchError{key, want, fmt.Sprintf(gotFormat, args...)}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("key %q: wanted %s, archive holds %s", e.Key, e.Want, e.Got)
}

// UnknownTypeError is returned when an archive names a type that is not
// registered in this process. Unlike the encode-side panic for unregistered
// types, this is a recoverable condition: the archive may be foreign or
// corrupted, and siblings decoded so far remain valid.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("archive references unregistered type %q", e.Name)
}
