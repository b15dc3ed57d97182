package colormatch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Entry is one reference bead colour. Hex is always "#rrggbb" lowercase.
type Entry struct {
	Code  string `json:"code"`
	Hex   string `json:"hex"`
	Group string `json:"group"`
}

// RGB returns the entry colour. Entries built by ParseTable always carry a
// valid hex value.
func (e Entry) RGB() RGB {
	rgb, _ := ParseHex(e.Hex)
	return rgb
}

// ParseTable reads "code<TAB>hex" lines. Blank lines are skipped; there is
// no header row. Hex values are normalised to "#rrggbb" in lowercase.
func ParseTable(r io.Reader) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		code, hex, ok := strings.Cut(line, "\t")
		code = strings.TrimSpace(code)
		hex = strings.TrimSpace(hex)
		if !ok || code == "" || hex == "" {
			return nil, &FormatError{Input: line, Line: lineNo, Reason: "expected code<TAB>hex"}
		}

		clean, err := normalizeHex(hex)
		if err != nil {
			return nil, &FormatError{Input: line, Line: lineNo, Reason: "hex must be 3 or 6 hex digits"}
		}

		if first, dup := seen[code]; dup {
			return nil, &FormatError{Input: line, Line: lineNo, Reason: fmt.Sprintf("duplicate code %s (first on line %d)", code, first)}
		}
		seen[code] = lineNo

		entries = append(entries, Entry{
			Code:  code,
			Hex:   "#" + clean,
			Group: groupOf(code),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}

	return entries, nil
}

// groupOf returns the first character of a code.
func groupOf(code string) string {
	_, size := utf8.DecodeRuneInString(code)
	return code[:size]
}

// Table is an immutable set of reference colours with O(1) lookup by code.
type Table struct {
	entries []Entry
	labs    []Lab
	byCode  map[string]int
}

// NewTable builds a table from parsed entries, keeping their order.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		labs:    make([]Lab, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if _, dup := t.byCode[e.Code]; dup {
			return nil, fmt.Errorf("duplicate reference color code %q", e.Code)
		}

		rgb, err := ParseHex(e.Hex)
		if err != nil {
			return nil, fmt.Errorf("reference color %s: %w", e.Code, err)
		}

		group := e.Group
		if group == "" {
			group = groupOf(e.Code)
		}

		t.byCode[e.Code] = len(t.entries)
		t.entries = append(t.entries, Entry{Code: e.Code, Hex: rgb.Hex(), Group: group})
		t.labs = append(t.labs, RGBToLab(rgb))
	}

	return t, nil
}

// ParseTableBytes parses and builds a table in one step.
func ParseTableBytes(b []byte) (*Table, error) {
	entries, err := ParseTable(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return NewTable(entries)
}

// LoadFile reads a reference table from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path) // #nosec G304 - configured table path
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	entries, err := ParseTable(f)
	if err != nil {
		return nil, err
	}
	return NewTable(entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the entry for code.
func (t *Table) Lookup(code string) (Entry, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of all entries in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
