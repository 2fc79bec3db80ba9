// Package timeline picks the palette that is active at a time of day.
package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/palcycle/internal/scene"
)

// Resolve returns the palette of the latest breakpoint at or before seconds.
// Before the first breakpoint of the day the schedule wraps to the last one.
// Queries of a day or more are reduced modulo a day. tl must be ordered as
// scene.NewTimeline leaves it.
func Resolve(tl scene.Timeline, seconds uint32) (string, error) {
	bp, err := Active(tl, seconds)
	if err != nil {
		return "", err
	}
	return bp.Palette, nil
}

// Active is Resolve returning the whole breakpoint.
func Active(tl scene.Timeline, seconds uint32) (scene.Breakpoint, error) {
	if len(tl) == 0 {
		return scene.Breakpoint{}, &scene.ConfigError{Field: "timeline", Reason: "no breakpoints", Err: scene.ErrEmptyTimeline}
	}
	seconds %= scene.SecondsPerDay

	i := sort.Search(len(tl), func(i int) bool { return tl[i].Seconds > seconds })
	if i == 0 {
		return tl[len(tl)-1], nil
	}
	return tl[i-1], nil
}

// Next returns the first breakpoint strictly after seconds, wrapping past
// midnight to the first breakpoint of the day.
func Next(tl scene.Timeline, seconds uint32) (scene.Breakpoint, error) {
	if len(tl) == 0 {
		return scene.Breakpoint{}, &scene.ConfigError{Field: "timeline", Reason: "no breakpoints", Err: scene.ErrEmptyTimeline}
	}
	seconds %= scene.SecondsPerDay

	i := sort.Search(len(tl), func(i int) bool { return tl[i].Seconds > seconds })
	if i == len(tl) {
		return tl[0], nil
	}
	return tl[i], nil
}

// SecondsOfDay converts a wall clock reading into the resolver's query input.
func SecondsOfDay(t time.Time) uint32 {
	h, m, s := t.Clock()
	return uint32(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS", or a bare number of seconds.
func ParseTimeOfDay(v string) (uint32, error) {
	if secs, err := strconv.ParseUint(v, 10, 32); err == nil {
		if secs >= scene.SecondsPerDay {
			return 0, fmt.Errorf("time of day %q out of range", v)
		}
		return uint32(secs), nil
	}

	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM[:SS]", v)
	}
	limits := []int{24, 60, 60}
	var total uint32
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, fmt.Errorf("invalid time of day %q, want HH:MM[:SS]", v)
		}
		total = total*60 + uint32(n)
	}
	if len(parts) == 2 {
		total *= 60
	}
	return total, nil
}

// Format renders seconds past midnight as HH:MM:SS.
func Format(seconds uint32) string {
	seconds %= scene.SecondsPerDay
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
