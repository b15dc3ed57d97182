package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Palette maps palette indices to bead colour codes. Slot 0 is reserved for
// "unpainted"; an empty string is an unset slot and travels as JSON null.
type Palette []string

// MaxIndex is the largest pixel value the palette can serve.
func (p Palette) MaxIndex() int {
	return len(p) - 1
}

// Code returns the code at index, or "" when the slot is unset or out of range.
func (p Palette) Code(index int) string {
	if index < 0 || index >= len(p) {
		return ""
	}
	return p[index]
}

func (p Palette) MarshalJSON() ([]byte, error) {
	out := make([]*string, len(p))
	for i := range p {
		if p[i] != "" {
			code := p[i]
			out[i] = &code
		}
	}
	return json.Marshal(out)
}

func (p *Palette) UnmarshalJSON(data []byte) error {
	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}

	out := make(Palette, len(raw))
	for i, code := range raw {
		if code != nil {
			out[i] = *code
		}
	}
	*p = out
	return nil
}

// Value stores the palette as a JSON text column.
func (p Palette) Value() (driver.Value, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a palette stored by Value.
func (p *Palette) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalJSON([]byte(v))
	case []byte:
		return p.UnmarshalJSON(v)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Palette", src)
	}
}
