package vis

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"golang.org/x/exp/slices"
)

// Palette colors each instruction class, plus the background.
type Palette struct {
	Name   string
	BG     color.NRGBA
	Colors [blockmap.NumClasses]color.NRGBA
}

// Hex parses "#rrggbb".
func Hex(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.NRGBA {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HexString renders c as "#rrggbb".
func HexString(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var solarized = Palette{
	Name: "solarized",
	BG:   color.NRGBA{0, 43, 54, 0xff},
	Colors: [blockmap.NumClasses]color.NRGBA{
		mra.InstrGeneralID:   {181, 137, 0, 0xff},
		mra.InstrSystemID:    {203, 75, 22, 0xff},
		mra.InstrFloatID:     {220, 50, 47, 0xff},
		mra.InstrFpSimdID:    {211, 54, 130, 0xff},
		mra.InstrAdvSimdID:   {108, 113, 196, 0xff},
		mra.InstrSveID:       {38, 139, 210, 0xff},
		mra.InstrSve2ID:      {42, 161, 152, 0xff},
		mra.InstrMortlachID:  {133, 153, 0, 0xff},
		mra.InstrMortlach2ID: {253, 246, 227, 0xff},
		mra.InstrNumIDs:      {131, 148, 150, 0xff},
	},
}

var monokai = Palette{
	Name: "monokai",
	BG:   mustHex("#272833"),
	Colors: [blockmap.NumClasses]color.NRGBA{
		mra.InstrGeneralID:   mustHex("#66d9ef"),
		mra.InstrSystemID:    mustHex("#e6db74"),
		mra.InstrFloatID:     mustHex("#fd971f"),
		mra.InstrFpSimdID:    mustHex("#f92672"),
		mra.InstrAdvSimdID:   mustHex("#fd5ff0"),
		mra.InstrSveID:       mustHex("#ae81ff"),
		mra.InstrSve2ID:      mustHex("#a1efe4"),
		mra.InstrMortlachID:  mustHex("#a6e22e"),
		mra.InstrMortlach2ID: mustHex("#f8f8f2"),
		mra.InstrNumIDs:      mustHex("#75715e"),
	},
}

var themes = map[string]Palette{
	solarized.Name: solarized,
	monokai.Name:   monokai,
}

// Theme returns the named palette.
func Theme(name string) (Palette, error) {
	p, ok := themes[strings.ToLower(name)]
	if !ok {
		return Palette{}, fmt.Errorf("%q (have %s): %w", name, strings.Join(Themes(), ","), scanerrors.ErrVUnknownTheme)
	}
	return p, nil
}

func Themes() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
