// Package catalog finds scene files named "<Month>-<Weather>.json" and picks
// one for a month. Randomness comes from the caller's source.
package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/palcycle/internal/scene"
)

// ErrNoScene indicates no scene file matches the requested month and weather.
var ErrNoScene = errors.New("catalog: no matching scene")

// Entry is one scene file.
type Entry struct {
	Month   time.Month
	Weather string
	Path    string
}

func (e Entry) Name() string {
	return e.Month.String() + "-" + e.Weather
}

// Scan lists the scene files in dir, ordered by month then weather. Files
// that do not follow the naming scheme are skipped.
func Scan(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		base := strings.TrimSuffix(f.Name(), ".json")
		monthName, weather, ok := strings.Cut(base, "-")
		if !ok || weather == "" {
			continue
		}
		month, err := ParseMonth(monthName)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Month: month, Weather: weather, Path: filepath.Join(dir, f.Name())})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Month != entries[j].Month {
			return entries[i].Month < entries[j].Month
		}
		return entries[i].Weather < entries[j].Weather
	})
	return entries, nil
}

// ParseMonth accepts full or three letter English month names, any case,
// or a number 1..12.
func ParseMonth(v string) (time.Month, error) {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && fmt.Sprint(n) == v {
		if n >= 1 && n <= 12 {
			return time.Month(n), nil
		}
		return 0, &scene.ConfigError{Field: "month", Reason: fmt.Sprintf("%q out of range", v), Err: ErrNoScene}
	}
	lower := strings.ToLower(v)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return m, nil
		}
	}
	return 0, &scene.ConfigError{Field: "month", Reason: fmt.Sprintf("unknown month %q", v), Err: ErrNoScene}
}

// Weathers lists the weather variants available for month.
func Weathers(entries []Entry, month time.Month) []string {
	var out []string
	for _, e := range entries {
		if e.Month == month {
			out = append(out, e.Weather)
		}
	}
	return out
}

// Pick returns the entry for month and weather. An empty weather picks one
// of the month's variants using rng.
func Pick(entries []Entry, month time.Month, weather string, rng *rand.Rand) (Entry, error) {
	var candidates []Entry
	for _, e := range entries {
		if e.Month != month {
			continue
		}
		if weather == "" || strings.EqualFold(e.Weather, weather) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return Entry{}, &scene.ConfigError{
			Field:  "scene",
			Reason: fmt.Sprintf("nothing for %s %q", month, weather),
			Err:    ErrNoScene,
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return candidates[rng.Intn(len(candidates))], nil
}
