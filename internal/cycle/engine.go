// Package cycle computes the animated color table of a palette for an
// animation clock. Every call is a pure function of its inputs.
package cycle

import (
	"math"

	"github.com/san-kum/palcycle/internal/scene"
)

// DefaultSpeed maps raw rule rates onto seconds per rotation step.
const DefaultSpeed = 280

// Table is the full color table presented for one frame.
type Table [scene.TableSize]scene.Color

// Engine evaluates cycle rules with a fixed speed constant.
type Engine struct {
	Speed int
}

// New returns an engine for speed, falling back to DefaultSpeed when speed
// is not positive.
func New(speed int) Engine {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return Engine{Speed: speed}
}

func (e Engine) speed() int {
	if e.Speed <= 0 {
		return DefaultSpeed
	}
	return e.Speed
}

// ComputeFrame is Frame on an engine using DefaultSpeed.
func ComputeFrame(p *scene.Palette, clockMillis uint64) Table {
	return Engine{Speed: DefaultSpeed}.Frame(p, clockMillis)
}

// Frame copies the palette's base colors and applies its rules in order.
// The palette itself is never modified.
func (e Engine) Frame(p *scene.Palette, clockMillis uint64) Table {
	t := Table(p.Colors)
	for _, r := range p.Cycles {
		e.apply(&t, r, clockMillis)
	}
	return t
}

// Amount returns how many single-slot steps the rule rotates at clockMillis.
// The second result is false when the rule is inactive: a zero rate, or a
// rate that rounds to zero steps per second at this engine's speed.
func (e Engine) Amount(r scene.CycleRule, clockMillis uint64) (int, bool) {
	if r.Rate <= 0 {
		return 0, false
	}
	cycleRate := uint64(r.Rate / e.speed())
	if cycleRate == 0 {
		return 0, false
	}

	size := uint64(r.Size())
	step := (clockMillis / 1000) / cycleRate

	switch r.Mode {
	case scene.Bounce:
		a := step % (2 * size)
		if a >= size {
			// a == size folds onto size itself, a full turn, which is the identity.
			a = (2*size - a) % size
		}
		return int(a), true
	case scene.SineQuarter, scene.SineHalf:
		a := step % size
		s := math.Sin(float64(a)*2*math.Pi/float64(size)) + 1
		scale := float64(size) / 4
		if r.Mode == scene.SineHalf {
			scale = float64(size) / 2
		}
		return int(s * scale), true
	default:
		return int(step % size), true
	}
}

func (e Engine) apply(t *Table, r scene.CycleRule, clockMillis uint64) {
	amount, ok := e.Amount(r, clockMillis)
	if !ok || amount == 0 {
		return
	}

	low, high := int(r.Low), int(r.High)
	if r.Mode == scene.PingPong {
		t.mirror(low, high, amount)
	}
	t.rotate(low, high, amount)
	if r.Mode == scene.PingPong {
		t.mirror(low, high, amount)
	}
}

// rotate shifts [low, high] left one slot at a time, n times.
func (t *Table) rotate(low, high, n int) {
	for ; n > 0; n-- {
		first := t[low]
		copy(t[low:high], t[low+1:high+1])
		t[high] = first
	}
}

// mirror swaps the first n pairs from each end of [low, high].
func (t *Table) mirror(low, high, n int) {
	for i := 0; i < n && low+i <= high; i++ {
		t[low+i], t[high-i] = t[high-i], t[low+i]
	}
}
