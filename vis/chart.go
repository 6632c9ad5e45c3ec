package vis

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Chart writes an HTML bar chart of valid encodings per class.
func Chart(w io.Writer, totals blockmap.Totals, p Palette) error {
	names := make([]string, 0, len(totals))
	items := make([]opts.BarData, 0, len(totals))
	for id, n := range totals {
		names = append(names, mra.IDToClass(uint8(id)))
		items = append(items, opts.BarData{
			Name:      mra.IDToClass(uint8(id)),
			Value:     n,
			ItemStyle: &opts.ItemStyle{Color: HexString(p.Colors[id])},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "AArch64 encodings",
			BackgroundColor: HexString(p.BG),
			Theme:           types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Valid encodings per class",
			Subtitle: fmt.Sprintf("%d valid of 2^32", totals.Sum()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(names).AddSeries("valid", items)
	return bar.Render(w)
}
