package rle

import (
	"errors"
	"fmt"
)

// Kind sentinels, matched with errors.Is against the typed errors below.
var (
	ErrFormat         = errors.New("rle: malformed run")
	ErrEmptyInput     = errors.New("rle: empty input")
	ErrLengthMismatch = errors.New("rle: length mismatch")
	ErrOutOfRange     = errors.New("rle: palette index out of range")
)

// FormatError reports a run that is not a well formed count*value pair.
type FormatError struct {
	Run    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid RLE run %q: %s", e.Run, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// EmptyInputError is returned when the string is blank but pixels were expected.
type EmptyInputError struct {
	Expected int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("RLE string is empty but expected length is %d", e.Expected)
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// LengthMismatchError is returned when the decoded runs do not add up to the
// grid size.
type LengthMismatchError struct {
	Expected int
	Got      int64
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("RLE length mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// RangeError reports a decoded index outside the palette.
type RangeError struct {
	Index int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("palette index %d out of range [0, %d]", e.Index, e.Max)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }
