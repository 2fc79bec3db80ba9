package config

import "sort"

// Preset is a named set of player settings.
type Preset struct {
	FPS       int
	TimeScale float64
}

var Presets = map[string]*Preset{
	"realtime":  {FPS: 30, TimeScale: 1},
	"timelapse": {FPS: 30, TimeScale: 600},
	"daylapse":  {FPS: 30, TimeScale: 2880},
	"lowpower":  {FPS: 10, TimeScale: 1},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
