// Package colormatch finds the nearest physical bead colours for an arbitrary
// sRGB colour using CIE Lab and the CIEDE2000 colour difference.
package colormatch

import (
	"fmt"
	"math"
	"strings"
)

// RGB is an 8-bit sRGB colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the colour as "#rrggbb".
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Lab is a colour in CIE L*a*b* (D65).
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// normalizeHex strips one leading '#', lowercases and expands 3-digit
// shorthand. It returns the 6 hex digits without '#'.
func normalizeHex(hex string) (string, error) {
	clean := strings.ToLower(strings.TrimPrefix(hex, "#"))

	switch len(clean) {
	case 3:
		clean = string([]byte{clean[0], clean[0], clean[1], clean[1], clean[2], clean[2]})
	case 6:
	default:
		return "", &FormatError{Input: hex, Reason: "must be 3 or 6 hex digits"}
	}

	for i := 0; i < len(clean); i++ {
		if !isHexDigit(clean[i]) {
			return "", &FormatError{Input: hex, Reason: "contains a non-hex character"}
		}
	}

	return clean, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func hexNibble(c byte) uint8 {
	if c >= 'a' {
		return c - 'a' + 10
	}
	return c - '0'
}

// ParseHex parses "#rrggbb", "rrggbb", "#rgb" or "rgb".
func ParseHex(hex string) (RGB, error) {
	clean, err := normalizeHex(hex)
	if err != nil {
		return RGB{}, err
	}

	return RGB{
		R: hexNibble(clean[0])<<4 | hexNibble(clean[1]),
		G: hexNibble(clean[2])<<4 | hexNibble(clean[3]),
		B: hexNibble(clean[4])<<4 | hexNibble(clean[5]),
	}, nil
}

// D65 reference white.
const (
	whiteX = 0.95047
	whiteY = 1.00000
	whiteZ = 1.08883
)

func linearize(c uint8) float64 {
	v := float64(c) / 255
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

// RGBToLab converts sRGB to CIE Lab via linear RGB and XYZ.
func RGBToLab(rgb RGB) Lab {
	r := linearize(rgb.R)
	g := linearize(rgb.G)
	b := linearize(rgb.B)

	x := (r*0.4124564 + g*0.3575761 + b*0.1804375) / whiteX
	y := (r*0.2126729 + g*0.7151522 + b*0.0721750) / whiteY
	z := (r*0.0193339 + g*0.1191920 + b*0.9503041) / whiteZ

	fx := labF(x)
	fy := labF(y)
	fz := labF(z)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}
