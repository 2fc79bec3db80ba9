package render

import (
	"bytes"
	"context"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/timeline"
)

func twoPixelScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Build("tiny", scene.Definition{
		Width:    2,
		Height:   1,
		Pixels:   []int{0, 1},
		Palettes: map[string]scene.PaletteDefinition{"P": {Colors: [][]int{{255, 0, 0}, {0, 255, 0}}}},
		Timeline: map[uint32]string{0: "P"},
	})
	require.NoError(t, err)
	return s
}

func waterScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Build("water", scene.Definition{
		Width:  4,
		Height: 2,
		Pixels: []int{0, 1, 2, 3, 3, 2, 1, 0},
		Palettes: map[string]scene.PaletteDefinition{
			"day": {
				Colors: [][]int{{0, 0, 10}, {0, 0, 20}, {0, 0, 30}, {0, 0, 40}},
				Cycles: []scene.RuleDefinition{{Low: 0, High: 3, Rate: 280, Reverse: 0}},
			},
			"night": {Colors: [][]int{{1, 1, 1}}},
		},
		Timeline: map[uint32]string{0: "night", 21600: "day"},
	})
	require.NoError(t, err)
	return s
}

func TestEndToEndTwoPixels(t *testing.T) {
	s := twoPixelScene(t)

	for _, secs := range []uint32{0, 1, 43200, 86399} {
		name, err := timeline.Resolve(s.Timeline, secs)
		require.NoError(t, err)
		assert.Equal(t, "P", name)
	}

	p, ok := s.Palette("P")
	require.True(t, ok)
	tbl := cycle.ComputeFrame(p, 123456)
	assert.Equal(t, scene.Color{255, 0, 0}, tbl[0])
	assert.Equal(t, scene.Color{0, 255, 0}, tbl[1])

	img := Compose(s, &tbl)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(1, 0))
}

func TestPalettedMatchesCompose(t *testing.T) {
	s := waterScene(t)
	p, _ := s.Palette("day")
	tbl := cycle.ComputeFrame(p, 1000)

	rgba := Compose(s, &tbl)
	pal := Paletted(s, &tbl)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			assert.Equal(t, rgba.At(x, y), pal.At(x, y), "pixel %d,%d", x, y)
		}
	}

	pal.Pix[0] = 99
	assert.Equal(t, uint8(0), s.Pixels[0], "paletted image aliases the scene")
}

func TestComposeFollowsTable(t *testing.T) {
	s := waterScene(t)
	p, _ := s.Palette("day")

	tbl := cycle.ComputeFrame(p, 1000)
	img := Compose(s, &tbl)

	// slot 0 now shows the old slot 1 color
	assert.Equal(t, color.RGBA{0, 0, 20, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 10, 255}, img.RGBAAt(3, 0))
}

func TestScale(t *testing.T) {
	s := twoPixelScene(t)
	p, _ := s.Palette("P")
	tbl := cycle.ComputeFrame(p, 0)

	big := Scale(Compose(s, &tbl), 3)
	assert.Equal(t, 6, big.Bounds().Dx())
	assert.Equal(t, 3, big.Bounds().Dy())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, big.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, big.RGBAAt(3, 0))

	pal := ScalePaletted(Paletted(s, &tbl), 2)
	assert.Equal(t, []uint8{0, 0, 1, 1, 0, 0, 1, 1}, pal.Pix)
}

func TestSampleIndices(t *testing.T) {
	s := waterScene(t)

	assert.Equal(t, []uint8{0, 2, 3, 1}, SampleIndices(s, 2, 2))
	assert.Equal(t, s.Pixels, SampleIndices(s, 4, 2))
	assert.Nil(t, SampleIndices(s, 0, 2))
}

func TestFramesMatchSerial(t *testing.T) {
	s := waterScene(t)
	eng := cycle.New(cycle.DefaultSpeed)
	seq := Sequence{Seconds: 30000, From: 500, Step: 250, Frames: 40}

	res, err := Frames(context.Background(), s, eng, seq)
	require.NoError(t, err)
	assert.Equal(t, "day", res.Palette)
	require.Len(t, res.Tables, 40)

	p, _ := s.Palette("day")
	for i, clock := range res.Clocks {
		assert.Equal(t, seq.From+uint64(i)*seq.Step, clock)
		assert.Equal(t, eng.Frame(p, clock), res.Tables[i], "frame %d", i)
	}
}

func TestFramesErrors(t *testing.T) {
	s := waterScene(t)

	_, err := Frames(context.Background(), s, cycle.New(0), Sequence{Frames: 0})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Frames(ctx, s, cycle.New(0), Sequence{Frames: 1000, Step: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteGIF(t *testing.T) {
	s := waterScene(t)
	res, err := Frames(context.Background(), s, cycle.New(0), Sequence{Seconds: 30000, Step: 1000, Frames: 4})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGIF(&buf, s, res, 5, 2))

	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 4)
	assert.Equal(t, 8, anim.Image[0].Bounds().Dx())
	assert.Equal(t, []int{5, 5, 5, 5}, anim.Delay)
}

func TestWritePNG(t *testing.T) {
	s := twoPixelScene(t)
	p, _ := s.Palette("P")
	tbl := cycle.ComputeFrame(p, 0)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, Compose(s, &tbl)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	r, g, _, _ := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), g)
}
