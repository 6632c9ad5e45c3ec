package vis

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHilbertIsAContinuousBijection(t *testing.T) {
	for _, order := range []int{1, 2, 5} {
		side := uint32(1) << order
		seen := make(map[[2]uint32]bool)
		var px, py uint32
		for s := uint32(0); s < side*side; s++ {
			x, y := HilbertXY(s, order)
			require.Less(t, x, side)
			require.Less(t, y, side)
			require.False(t, seen[[2]uint32{x, y}], "order %d s %d revisits (%d,%d)", order, s, x, y)
			seen[[2]uint32{x, y}] = true
			if s > 0 {
				dx := int(x) - int(px)
				dy := int(y) - int(py)
				require.Equal(t, 1, dx*dx+dy*dy, "order %d step %d jumps", order, s)
			}
			px, py = x, y
		}
	}
	x, y := HilbertXY(0, MaxOrder)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestThemes(t *testing.T) {
	p, err := Theme("Monokai")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x27, 0x28, 0x33, 0xff}, p.BG)
	assert.Equal(t, "#66d9ef", HexString(p.Colors[mra.InstrGeneralID]))

	_, err = Theme("gruvbox")
	assert.ErrorIs(t, err, scanerrors.ErrVUnknownTheme)
	assert.Equal(t, []string{"monokai", "solarized"}, Themes())

	_, err = Hex("123456")
	assert.Error(t, err)
	_, err = Hex("#12345g")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	p, err := Theme("solarized")
	require.NoError(t, err)

	quarter := uint32(1) << 30
	lines := []blockmap.Line{
		// first quadrant: general, fully opaque
		{Start: 0, Counts: []blockmap.Count{{Class: 0, Subclass: 0, N: 256}}},
		// a weaker block folded into the same pixel does not win
		{Start: 256, Counts: []blockmap.Count{{Class: 2, Subclass: 2, N: 20}}},
		// second quadrant: a single encoding is transparent
		{Start: quarter, Counts: []blockmap.Count{{Class: 1, Subclass: 1, N: 1}}},
		// third quadrant: float dominates sve
		{Start: 2 * quarter, Counts: []blockmap.Count{{Class: 2, Subclass: 2, N: 200}, {Class: 5, Subclass: 5, N: 56}}},
	}
	img, err := Render(lines, p, 1)
	require.NoError(t, err)
	require.Equal(t, 2, img.Bounds().Dx())

	bg := color.RGBA{p.BG.R, p.BG.G, p.BG.B, 0xff}
	x0, y0 := HilbertXY(0, 1)
	assert.Equal(t, color.RGBA{181, 137, 0, 0xff}, img.RGBAAt(int(x0), int(y0)))
	x1, y1 := HilbertXY(1, 1)
	assert.Equal(t, bg, img.RGBAAt(int(x1), int(y1)))
	x2, y2 := HilbertXY(2, 1)
	assert.NotEqual(t, bg, img.RGBAAt(int(x2), int(y2)))
	x3, y3 := HilbertXY(3, 1)
	assert.Equal(t, bg, img.RGBAAt(int(x3), int(y3)))

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	_, err = Render(lines, p, 13)
	assert.Error(t, err)
}

func TestLegendAndChart(t *testing.T) {
	p, err := Theme("solarized")
	require.NoError(t, err)
	legend := Legend(p)
	for id := uint8(0); id <= mra.InstrNumIDs; id++ {
		assert.Contains(t, legend, mra.IDToClass(id))
	}

	var totals blockmap.Totals
	totals[mra.InstrGeneralID] = 1000
	totals[mra.InstrSveID] = 24
	var buf bytes.Buffer
	require.NoError(t, Chart(&buf, totals, p))
	html := buf.String()
	assert.Contains(t, html, "Valid encodings per class")
	assert.Contains(t, html, "1024 valid of 2^32")
	assert.Contains(t, html, "sve")
}
