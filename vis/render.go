// Package vis draws a class map as an image: every block of 256 encodings is
// one pixel placed along a Hilbert curve, colored by its dominant class.
package vis

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/log"
)

const (
	// MaxOrder puts one block per pixel: 4^12 blocks of 256 cover 2^32.
	MaxOrder     = 12
	DefaultOrder = MaxOrder
)

// Render draws lines on a 2^order square. Orders below MaxOrder fold 4^(MaxOrder-order)
// consecutive blocks into each pixel. A block's alpha is its dominant class
// count minus one; when blocks share a pixel the most opaque one wins.
func Render(lines []blockmap.Line, p Palette, order int) (*image.RGBA, error) {
	if order < 1 || order > MaxOrder {
		return nil, fmt.Errorf("hilbert order %d outside 1..%d", order, MaxOrder)
	}
	side := 1 << order
	bounds := image.Rect(0, 0, side, side)
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(p.BG), image.Point{}, draw.Src)

	overlay := image.NewNRGBA(bounds)
	shift := uint(2 * (MaxOrder - order))
	drawn := 0
	for _, l := range lines {
		d := l.Dominant()
		if d.N < 2 {
			continue
		}
		c := p.Colors[d.Class]
		c.A = uint8(d.N - 1)
		x, y := HilbertXY(l.Start/blockmap.BlockSize>>shift, order)
		if overlay.NRGBAAt(int(x), int(y)).A < c.A {
			overlay.SetNRGBA(int(x), int(y), c)
			drawn++
		}
	}
	draw.Draw(img, bounds, overlay, image.Point{}, draw.Over)
	log.Debug(log.VisMonitoring, "rendered", "side", side, "lines", len(lines), "drawn", drawn, "theme", p.Name)
	return img, nil
}

func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
