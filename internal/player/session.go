// Package player drives the per-frame loop: resolve the palette for the time
// of day, cycle it for the animation clock, hand the table to a renderer.
package player

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/san-kum/palcycle/internal/cycle"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/timeline"
)

var ErrNoScene = errors.New("player: no scene loaded")

// Frame is everything a renderer needs for one frame. Pixels of Scene are
// unchanged between frames; only Table moves.
type Frame struct {
	Scene   *scene.Scene
	Palette string
	Seconds uint32
	Clock   uint64
	Table   cycle.Table
}

// Session holds the active scene. Swapping replaces it as a whole, so a frame
// always reads one consistent scene.
type Session struct {
	current atomic.Pointer[scene.Scene]
	engine  cycle.Engine
}

func NewSession(s *scene.Scene, engine cycle.Engine) *Session {
	sess := &Session{engine: engine}
	if s != nil {
		sess.current.Store(s)
	}
	return sess
}

// Scene returns the active scene, or nil.
func (s *Session) Scene() *scene.Scene {
	return s.current.Load()
}

// Swap installs next and returns the scene it replaced.
func (s *Session) Swap(next *scene.Scene) *scene.Scene {
	return s.current.Swap(next)
}

// Frame computes the table for a time of day and animation clock.
func (s *Session) Frame(seconds uint32, clockMillis uint64) (Frame, error) {
	sc := s.current.Load()
	if sc == nil {
		return Frame{}, ErrNoScene
	}

	name, err := timeline.Resolve(sc.Timeline, seconds)
	if err != nil {
		return Frame{}, err
	}
	p, ok := sc.Palette(name)
	if !ok {
		return Frame{}, fmt.Errorf("%w: palette %q", scene.ErrMissingPalette, name)
	}

	return Frame{
		Scene:   sc,
		Palette: name,
		Seconds: seconds % scene.SecondsPerDay,
		Clock:   clockMillis,
		Table:   s.engine.Frame(p, clockMillis),
	}, nil
}
