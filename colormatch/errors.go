package colormatch

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every FormatError.
	ErrFormat = errors.New("colormatch: malformed input")

	// ErrEmptyTable is returned when matching against a table with no entries.
	ErrEmptyTable = errors.New("colormatch: reference table is empty")
)

// FormatError reports malformed hex input or a malformed reference table line.
type FormatError struct {
	Input  string
	Line   int // 1-based; zero when not parsing a table
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid reference table line %d %q: %s", e.Line, e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid hex color %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
