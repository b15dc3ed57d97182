package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/rle"
)

const (
	DefaultScale = 8
	MaxScale     = 32
)

// ColorLookup resolves a bead code to its reference colour.
type ColorLookup interface {
	ColorByCode(code string) (colormatch.Entry, bool)
}

// Render draws one cell per pixel, scaled up by an integer factor. Unpainted
// cells and codes missing from the reference table are transparent.
func Render(p models.Pattern, colors ColorLookup, scale int) (*image.NRGBA, error) {
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("scale must be between 1 and %d", MaxScale)
	}

	pixels, err := rle.Decode(p.Data, p.Width*p.Height)
	if err != nil {
		return nil, err
	}

	// resolve each palette slot once
	slots := make([]color.NRGBA, len(p.Palette))
	for i, code := range p.Palette {
		if i == 0 || code == "" {
			continue
		}
		if entry, ok := colors.ColorByCode(code); ok {
			rgb := entry.RGB()
			slots[i] = color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff}
		}
	}

	base := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range pixels {
		if v < 0 || v >= len(slots) {
			return nil, fmt.Errorf("palette index %d out of range [0, %d]", v, len(slots)-1)
		}
		base.SetNRGBA(i%p.Width, i/p.Width, slots[v])
	}

	if scale == 1 {
		return base, nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, p.Width*scale, p.Height*scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), base, base.Bounds(), draw.Src, nil)
	return out, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
