// Package render turns a scene's index grid and a cycled color table into
// images.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
)

// ColorPalette converts a table into an image/color palette.
func ColorPalette(t *cycle.Table) color.Palette {
	pal := make(color.Palette, len(t))
	for i, c := range t {
		pal[i] = color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
	}
	return pal
}

// Paletted returns the scene as an indexed image presented through t.
// The index grid is copied so the scene stays untouched.
func Paletted(s *scene.Scene, t *cycle.Table) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, s.Width, s.Height), ColorPalette(t))
	copy(img.Pix, s.Pixels)
	return img
}

// Compose maps every pixel index through t.
func Compose(s *scene.Scene, t *cycle.Table) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for i, idx := range s.Pixels {
		c := t[idx]
		o := i * 4
		img.Pix[o] = c[0]
		img.Pix[o+1] = c[1]
		img.Pix[o+2] = c[2]
		img.Pix[o+3] = 0xff
	}
	return img
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling.
func Scale(src image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// ScalePaletted enlarges an indexed image by an integer factor, keeping the
// palette and the exact indices.
func ScalePaletted(src *image.Paletted, factor int) *image.Paletted {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor), src.Palette)
	for y := 0; y < dst.Rect.Dy(); y++ {
		srow := src.Pix[(y/factor)*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < dst.Rect.Dx(); x++ {
			drow[x] = srow[x/factor]
		}
	}
	return dst
}

// SampleIndices resamples the index grid to w x h cells. Each cell holds the
// index of the nearest source pixel.
func SampleIndices(s *scene.Scene, w, h int) []uint8 {
	if w <= 0 || h <= 0 {
		return nil
	}
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		sy := y * s.Height / h
		for x := 0; x < w; x++ {
			sx := x * s.Width / w
			out[y*w+x] = s.Pixels[sy*s.Width+sx]
		}
	}
	return out
}
