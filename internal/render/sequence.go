package render

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"runtime"
	"sync"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/timeline"
)

// Sequence describes a run of frames at a fixed time of day.
type Sequence struct {
	Seconds uint32
	From    uint64
	Step    uint64
	Frames  int
}

// Result holds the tables of a sequence in clock order.
type Result struct {
	Palette string
	Clocks  []uint64
	Tables  []cycle.Table
}

// Frames computes every table of seq. Frames are independent, so they are
// spread across one worker per CPU and stored by index.
func Frames(ctx context.Context, s *scene.Scene, eng cycle.Engine, seq Sequence) (*Result, error) {
	if seq.Frames <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", seq.Frames)
	}
	name, err := timeline.Resolve(s.Timeline, seq.Seconds)
	if err != nil {
		return nil, err
	}
	p, ok := s.Palette(name)
	if !ok {
		return nil, fmt.Errorf("%w: palette %q", scene.ErrMissingPalette, name)
	}

	res := &Result{
		Palette: name,
		Clocks:  make([]uint64, seq.Frames),
		Tables:  make([]cycle.Table, seq.Frames),
	}
	for i := range res.Clocks {
		res.Clocks[i] = seq.From + uint64(i)*seq.Step
	}

	workers := runtime.NumCPU()
	if workers > seq.Frames {
		workers = seq.Frames
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res.Tables[i] = eng.Frame(p, res.Clocks[i])
			}
		}()
	}

	var cancelled error
feed:
	for i := 0; i < seq.Frames; i++ {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return res, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// WriteGIF encodes the tables of res as a looping animation. delay is in
// hundredths of a second per frame.
func WriteGIF(w io.Writer, s *scene.Scene, res *Result, delay, factor int) error {
	anim := gif.GIF{LoopCount: 0}
	for i := range res.Tables {
		frame := ScalePaletted(Paletted(s, &res.Tables[i]), factor)
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, &anim)
}
