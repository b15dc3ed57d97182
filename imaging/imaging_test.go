package imaging

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixel-beads/api/assets"
	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/rle"
)

func newMatcher(t *testing.T) *colormatch.Matcher {
	t.Helper()
	table, err := colormatch.ParseTableBytes(assets.Colors())
	require.NoError(t, err)
	return colormatch.NewMatcher(table)
}

func TestRender(t *testing.T) {
	m := newMatcher(t)
	a1, ok := m.ColorByCode("A1")
	require.True(t, ok)

	p := models.Pattern{
		Width:   2,
		Height:  1,
		Palette: models.Palette{"", "A1", "GONE"},
		Data:    "1*0,1*1",
	}

	img, err := Render(p, m, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 3), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(2, 2).A)

	rgb := a1.RGB()
	assert.Equal(t, color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff}, img.NRGBAAt(3, 0))
	assert.Equal(t, color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff}, img.NRGBAAt(5, 2))

	// unknown codes are not painted
	p.Data = "1*2,1*1"
	img, err = Render(p, m, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)

	_, err = Render(p, m, 0)
	assert.Error(t, err)
	_, err = Render(p, m, MaxScale+1)
	assert.Error(t, err)

	p.Data = "3*1"
	_, err = Render(p, m, 1)
	assert.ErrorIs(t, err, rle.ErrLengthMismatch)
}

func TestWritePNGDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))

	decoded, format, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	r, g, b, a := decoded.At(1, 1).RGBA()
	assert.Equal(t, []uint32{10, 20, 30, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})

	_, _, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dot.png")

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
	_, err = LoadImage(dir)
	assert.Error(t, err)
	_, err = LoadImage("")
	assert.Error(t, err)
}

// twoTone is red on the left half and blue on the right.
func twoTone(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestConvertTwoTone(t *testing.T) {
	m := newMatcher(t)

	red, _, err := m.Nearest(colormatch.RGB{R: 255})
	require.NoError(t, err)
	blue, _, err := m.Nearest(colormatch.RGB{B: 255})
	require.NoError(t, err)
	require.NotEqual(t, red.Code, blue.Code)

	draft, err := Convert(twoTone(4, 2), ConvertOptions{Width: 4, Height: 2, MaxColors: 2}, m)
	require.NoError(t, err)

	assert.Equal(t, 4, draft.Width)
	assert.Equal(t, 2, draft.Height)
	assert.Equal(t, models.Palette{"", red.Code, blue.Code}, draft.Palette)
	assert.Equal(t, "2*1,2*2,2*1,2*2", draft.Data)
}

func TestConvertTransparency(t *testing.T) {
	m := newMatcher(t)

	img := twoTone(4, 4)
	for x := 0; x < 4; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{})
	}

	draft, err := Convert(img, ConvertOptions{Width: 4, Height: 4, MaxColors: 4}, m)
	require.NoError(t, err)
	assert.Equal(t, "", draft.Palette[0])

	pixels, err := rle.Decode(draft.Data, 16)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, pixels[:4])
	for _, v := range pixels[4:] {
		assert.NotZero(t, v)
	}

	for _, code := range draft.Palette[1:] {
		assert.True(t, m.IsValidColorCode(code), code)
	}
	assert.True(t, rle.Validate(draft.Data, 16, len(draft.Palette)-1).Valid)
}

func TestConvertResizes(t *testing.T) {
	m := newMatcher(t)

	draft, err := Convert(twoTone(64, 32), ConvertOptions{Width: 16, Height: 8}, m)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(draft.Palette)-1, DefaultMaxColors)
	assert.True(t, rle.Validate(draft.Data, 16*8, len(draft.Palette)-1).Valid)
}

func TestConvertOptions(t *testing.T) {
	m := newMatcher(t)
	img := twoTone(4, 4)

	for _, opts := range []ConvertOptions{
		{Width: 0, Height: 4},
		{Width: 4, Height: 129},
		{Width: 4, Height: 4, MaxColors: MaxColors + 1},
		{Width: 4, Height: 4, MaxColors: -1},
	} {
		_, err := Convert(img, opts, m)
		assert.Error(t, err, "%+v", opts)
	}

	_, err := Convert(img, ConvertOptions{Width: 4, Height: 4}, colormatch.NewMatcher(nil))
	assert.ErrorIs(t, err, colormatch.ErrEmptyTable)
}

func TestFitGrid(t *testing.T) {
	w, h := FitGrid(64, 32)
	assert.Equal(t, []int{64, 32}, []int{w, h})
	w, h = FitGrid(512, 256)
	assert.Equal(t, []int{128, 64}, []int{w, h})
	w, h = FitGrid(100, 1000)
	assert.Equal(t, []int{12, 128}, []int{w, h})
	w, h = FitGrid(10000, 1)
	assert.Equal(t, []int{128, 1}, []int{w, h})
}
