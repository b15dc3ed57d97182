// Package assets embeds the default bead reference table.
package assets

import _ "embed"

//go:embed colors.txt
var colors []byte

// Colors returns the embedded code<TAB>hex reference table.
func Colors() []byte {
	out := make([]byte, len(colors))
	copy(out, colors)
	return out
}
