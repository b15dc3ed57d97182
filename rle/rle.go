// Package rle encodes palette-indexed pixel grids as comma separated
// count*value runs, e.g. "3*0,2*1,1*0" for [0 0 0 1 1 0].
package rle

import (
	"math"
	"strconv"
	"strings"
)

// Encode compresses a flat row-major slice of palette indices.
func Encode(pixels []int) string {
	if len(pixels) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(pixels); {
		val := pixels[i]
		count := 1
		for i+count < len(pixels) && pixels[i+count] == val {
			count++
		}

		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(count))
		sb.WriteByte('*')
		sb.WriteString(strconv.Itoa(val))

		i += count
	}

	return sb.String()
}

type run struct {
	count int
	value int
}

// Decode expands an RLE string into exactly expectedLength palette indices.
//
// Every run is parsed before the total is compared with expectedLength, so a
// malformed run anywhere in the string is reported ahead of a length mismatch.
func Decode(s string, expectedLength int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		if expectedLength == 0 {
			return []int{}, nil
		}
		return nil, &EmptyInputError{Expected: expectedLength}
	}

	parts := strings.Split(s, ",")
	runs := make([]run, 0, len(parts))
	var total int64

	for _, part := range parts {
		r, err := parseRun(part)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)

		// Saturate instead of overflowing; anything this large can never
		// match a real grid.
		if total > math.MaxInt64-int64(r.count) {
			total = math.MaxInt64
		} else {
			total += int64(r.count)
		}
	}

	if total != int64(expectedLength) {
		return nil, &LengthMismatchError{Expected: expectedLength, Got: total}
	}

	pixels := make([]int, 0, expectedLength)
	for _, r := range runs {
		for i := 0; i < r.count; i++ {
			pixels = append(pixels, r.value)
		}
	}

	return pixels, nil
}

func parseRun(raw string) (run, error) {
	trimmed := strings.TrimSpace(raw)

	fields := strings.Split(trimmed, "*")
	if len(fields) != 2 {
		return run{}, &FormatError{Run: trimmed, Reason: "expected count*value"}
	}

	count, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return run{}, &FormatError{Run: trimmed, Reason: "count is not an integer"}
	}
	value, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return run{}, &FormatError{Run: trimmed, Reason: "value is not an integer"}
	}

	if count <= 0 {
		return run{}, &FormatError{Run: trimmed, Reason: "count must be positive"}
	}
	if value < 0 {
		return run{}, &FormatError{Run: trimmed, Reason: "value must not be negative"}
	}

	return run{count: count, value: value}, nil
}

// Result is the outcome of Validate.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate decodes s and checks every index lies in [0, maxPaletteIndex].
// It never returns an error value; failures are reported in the Result.
func Validate(s string, expectedLength, maxPaletteIndex int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Valid: false, Error: "invalid RLE data"}
		}
	}()

	if expectedLength < 0 {
		return Result{Valid: false, Error: "expected length must not be negative"}
	}

	pixels, err := Decode(s, expectedLength)
	if err != nil {
		return Result{Valid: false, Error: err.Error()}
	}

	for _, index := range pixels {
		if index < 0 || index > maxPaletteIndex {
			return Result{
				Valid: false,
				Error: (&RangeError{Index: index, Max: maxPaletteIndex}).Error(),
			}
		}
	}

	return Result{Valid: true}
}
