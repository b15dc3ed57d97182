package patterns

import (
	"errors"
	"fmt"

	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/rle"
)

// CodeChecker reports whether a bead colour code exists in the reference table.
type CodeChecker interface {
	IsValidColorCode(code string) bool
}

// UnknownColorCodeError is a palette slot naming a code the reference table
// does not contain.
type UnknownColorCodeError struct {
	Index int
	Code  string
}

func (e *UnknownColorCodeError) Error() string {
	return fmt.Sprintf("palette slot %d: unknown color code %q", e.Index, e.Code)
}

// InvalidDataError is pixel data that does not decode to the pattern's grid
// or references a palette slot that does not exist.
type InvalidDataError struct {
	Reason string
}

func (e *InvalidDataError) Error() string {
	return "invalid pattern data: " + e.Reason
}

// IsInvalid reports whether err is a client error: a malformed request, an
// unknown colour code or bad pixel data.
func IsInvalid(err error) bool {
	var unknown *UnknownColorCodeError
	var data *InvalidDataError
	return models.IsValidationError(err) || errors.As(err, &unknown) || errors.As(err, &data)
}

// ValidatePalette checks every palette slot against the reference table.
// Slot 0 is the "unpainted" slot and may be empty; every other slot must
// hold a known code.
func ValidatePalette(p models.Palette, codes CodeChecker) error {
	for i, code := range p {
		if i == 0 && code == "" {
			continue
		}
		if !codes.IsValidColorCode(code) {
			return &UnknownColorCodeError{Index: i, Code: code}
		}
	}
	return nil
}

// ValidateData checks that data decodes to exactly width*height pixels, each
// a valid index into a palette of paletteLen slots.
func ValidateData(data string, width, height, paletteLen int) error {
	res := rle.Validate(data, width*height, paletteLen-1)
	if !res.Valid {
		return &InvalidDataError{Reason: res.Error}
	}
	return nil
}
