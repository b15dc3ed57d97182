package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/rle"
)

const (
	DefaultMaxColors = 16
	MaxColors        = 64

	// pixels less opaque than this stay unpainted
	alphaThreshold = 0x80
)

// ConvertOptions controls image to pattern conversion.
type ConvertOptions struct {
	Width     int
	Height    int
	MaxColors int
}

func (o *ConvertOptions) normalize() error {
	if o.MaxColors == 0 {
		o.MaxColors = DefaultMaxColors
	}
	if o.Width < 1 || o.Width > models.MaxGridSide || o.Height < 1 || o.Height > models.MaxGridSide {
		return fmt.Errorf("width and height must be between 1 and %d", models.MaxGridSide)
	}
	if o.MaxColors < 1 || o.MaxColors > MaxColors {
		return fmt.Errorf("colors must be between 1 and %d", MaxColors)
	}
	return nil
}

// Nearester finds the closest reference bead to a colour.
type Nearester interface {
	Nearest(rgb colormatch.RGB) (colormatch.Entry, float64, error)
}

// Convert resamples img to the requested grid, reduces it to at most
// MaxColors colours and maps each colour to its nearest bead. Palette slot 0
// is left empty for unpainted cells.
func Convert(img image.Image, opts ConvertOptions, beads Nearester) (models.PatternDraft, error) {
	if err := opts.normalize(); err != nil {
		return models.PatternDraft{}, err
	}

	grid := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(grid, grid.Bounds(), img, img.Bounds(), draw.Src, nil)

	q := quantize.MedianCutQuantizer{}
	reduced := q.Quantize(make(color.Palette, 0, opts.MaxColors), grid)
	if len(reduced) == 0 {
		return models.PatternDraft{}, fmt.Errorf("image has no colors")
	}

	// quantised colour index -> bead code, "" for fully transparent colours
	codes := make([]string, len(reduced))
	for i, c := range reduced {
		cf, ok := colorful.MakeColor(c)
		if !ok {
			continue
		}
		r, g, b := cf.Clamped().RGB255()
		entry, _, err := beads.Nearest(colormatch.RGB{R: r, G: g, B: b})
		if err != nil {
			return models.PatternDraft{}, err
		}
		codes[i] = entry.Code
	}

	palette := models.Palette{""}
	slotOf := make(map[string]int)
	pixels := make([]int, 0, opts.Width*opts.Height)

	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			px := grid.NRGBAAt(x, y)
			if px.A < alphaThreshold {
				pixels = append(pixels, 0)
				continue
			}

			code := codes[reduced.Index(px)]
			if code == "" {
				pixels = append(pixels, 0)
				continue
			}

			slot, ok := slotOf[code]
			if !ok {
				slot = len(palette)
				slotOf[code] = slot
				palette = append(palette, code)
			}
			pixels = append(pixels, slot)
		}
	}

	return models.PatternDraft{
		Width:   opts.Width,
		Height:  opts.Height,
		Palette: palette,
		Data:    rle.Encode(pixels),
	}, nil
}

// FitGrid scales w x h down to fit within the maximum grid side, keeping the
// aspect ratio.
func FitGrid(w, h int) (int, int) {
	max := models.MaxGridSide
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
