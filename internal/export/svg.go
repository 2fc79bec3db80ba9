package export

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
)

// Hex formats a table color as #rrggbb.
func Hex(c scene.Color) string {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}.Hex()
}

// TableToSVG lays the 256 slots out as a grid of square swatches, columns
// wide. Slots inside any of the highlighted rules get an outline so animated
// ranges stand out.
func TableToSVG(t *cycle.Table, columns, cell int, highlight []scene.CycleRule) string {
	if columns <= 0 {
		columns = 16
	}
	if cell <= 0 {
		cell = 16
	}
	rows := (len(t) + columns - 1) / columns
	width := columns * cell
	height := rows * cell

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, c := range t {
		x := (i % columns) * cell
		y := (i / columns) * cell
		stroke := ""
		if cycled(i, highlight) {
			stroke = ` stroke="#ffffff" stroke-width="1"`
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"%s><title>%d %s</title></rect>
`, x, y, cell, cell, Hex(c), stroke, i, Hex(c)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func cycled(slot int, rules []scene.CycleRule) bool {
	for _, r := range rules {
		if slot >= int(r.Low) && slot <= int(r.High) {
			return true
		}
	}
	return false
}
