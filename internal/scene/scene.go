package scene

import (
	"fmt"
	"sort"
)

const (
	// TableSize is the number of slots in every palette.
	TableSize = 256

	// SecondsPerDay bounds timeline keys and time-of-day queries.
	SecondsPerDay = 86400
)

// Color is an 8-bit RGB triple.
type Color [3]uint8

// CycleRule animates the inclusive slot range [Low, High] of a palette.
type CycleRule struct {
	Low  uint8
	High uint8
	Rate int
	Mode Mode
}

// Size is the number of slots the rule covers.
func (r CycleRule) Size() int {
	return int(r.High) - int(r.Low) + 1
}

// Palette is a 256-entry color table plus the rules that animate it.
// Slots past Count are black.
type Palette struct {
	Name   string
	Colors [TableSize]Color
	Count  int
	Cycles []CycleRule
}

// Breakpoint switches the active palette at Seconds past midnight.
type Breakpoint struct {
	Seconds uint32
	Palette string
}

// Timeline is a list of breakpoints in strictly ascending order of Seconds,
// every key below SecondsPerDay. The resolver binary-searches it, so build
// it with NewTimeline; a literal that breaks the order resolves wrongly.
type Timeline []Breakpoint

// Scene is one loaded scene. It is shared read-only by every frame once built;
// callers must not modify it.
type Scene struct {
	Name     string
	Width    int
	Height   int
	Pixels   []uint8
	Palettes map[string]*Palette
	Timeline Timeline
}

// Palette returns the named palette.
func (s *Scene) Palette(name string) (*Palette, bool) {
	p, ok := s.Palettes[name]
	return p, ok
}

// PaletteNames returns the palette names sorted.
func (s *Scene) PaletteNames() []string {
	names := make([]string, 0, len(s.Palettes))
	for name := range s.Palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Warnings lists active rules that never animate at the given speed constant.
func (s *Scene) Warnings(speed int) []DegenerateRuleWarning {
	var out []DegenerateRuleWarning
	for _, name := range s.PaletteNames() {
		for i, r := range s.Palettes[name].Cycles {
			if r.Rate > 0 && speed > 0 && r.Rate/speed == 0 {
				out = append(out, DegenerateRuleWarning{Palette: name, Rule: i, Rate: r.Rate, Speed: speed})
			}
		}
	}
	return out
}

// Definition is the unvalidated form of a scene, as produced by a decoder.
type Definition struct {
	Width    int
	Height   int
	Pixels   []int
	Palettes map[string]PaletteDefinition
	Timeline map[uint32]string
}

type PaletteDefinition struct {
	Colors [][]int          `json:"colors"`
	Cycles []RuleDefinition `json:"cycles"`
}

type RuleDefinition struct {
	Low     int `json:"low"`
	High    int `json:"high"`
	Rate    int `json:"rate"`
	Reverse int `json:"reverse"`
}

// Build validates def and returns an immutable Scene. Any structural problem
// is reported as a *ConfigError.
func Build(name string, def Definition) (*Scene, error) {
	s, err := build(def)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Scene = name
		}
		return nil, err
	}
	s.Name = name
	return s, nil
}

func build(def Definition) (*Scene, error) {
	if def.Width <= 0 || def.Height <= 0 {
		return nil, configErr("base", ErrDimensions, "got %dx%d", def.Width, def.Height)
	}
	if len(def.Pixels) != def.Width*def.Height {
		return nil, configErr("base.pixels", ErrPixelCount, "want %d, got %d", def.Width*def.Height, len(def.Pixels))
	}

	pixels := make([]uint8, len(def.Pixels))
	for i, v := range def.Pixels {
		if v < 0 || v >= TableSize {
			return nil, configErr(fmt.Sprintf("base.pixels[%d]", i), ErrPixelIndex, "value %d", v)
		}
		pixels[i] = uint8(v)
	}

	palettes := make(map[string]*Palette, len(def.Palettes))
	for name, pd := range def.Palettes {
		p, err := buildPalette(name, pd)
		if err != nil {
			return nil, err
		}
		palettes[name] = p
	}

	tl, err := NewTimeline(def.Timeline)
	if err != nil {
		return nil, err
	}
	for _, bp := range tl {
		if _, ok := palettes[bp.Palette]; !ok {
			return nil, configErr(fmt.Sprintf("timeline[%d]", bp.Seconds), ErrMissingPalette, "palette %q", bp.Palette)
		}
	}

	return &Scene{
		Width:    def.Width,
		Height:   def.Height,
		Pixels:   pixels,
		Palettes: palettes,
		Timeline: tl,
	}, nil
}

func buildPalette(name string, pd PaletteDefinition) (*Palette, error) {
	field := "palettes." + name
	if len(pd.Colors) > TableSize {
		return nil, configErr(field+".colors", ErrTooManyColors, "got %d", len(pd.Colors))
	}

	p := &Palette{Name: name, Count: len(pd.Colors)}
	for i, c := range pd.Colors {
		if len(c) != 3 {
			return nil, configErr(fmt.Sprintf("%s.colors[%d]", field, i), ErrColor, "want 3 channels, got %d", len(c))
		}
		for ch, v := range c {
			if v < 0 || v > 255 {
				return nil, configErr(fmt.Sprintf("%s.colors[%d]", field, i), ErrColor, "channel %d value %d", ch, v)
			}
			p.Colors[i][ch] = uint8(v)
		}
	}

	p.Cycles = make([]CycleRule, 0, len(pd.Cycles))
	for i, rd := range pd.Cycles {
		rf := fmt.Sprintf("%s.cycles[%d]", field, i)
		if rd.Low < 0 || rd.High > TableSize-1 || rd.Low > rd.High {
			return nil, configErr(rf, ErrRuleRange, "low %d high %d", rd.Low, rd.High)
		}
		if rd.Rate < 0 {
			return nil, configErr(rf, ErrRate, "rate %d", rd.Rate)
		}
		mode, err := ParseMode(rd.Reverse)
		if err != nil {
			return nil, configErr(rf, ErrMode, "reverse %d", rd.Reverse)
		}
		p.Cycles = append(p.Cycles, CycleRule{
			Low:  uint8(rd.Low),
			High: uint8(rd.High),
			Rate: rd.Rate,
			Mode: mode,
		})
	}
	return p, nil
}

// NewTimeline sorts entries into a Timeline. It does not check palette names.
func NewTimeline(entries map[uint32]string) (Timeline, error) {
	if len(entries) == 0 {
		return nil, configErr("timeline", ErrEmptyTimeline, "no breakpoints")
	}
	tl := make(Timeline, 0, len(entries))
	for secs, name := range entries {
		if secs >= SecondsPerDay {
			return nil, configErr(fmt.Sprintf("timeline[%d]", secs), ErrTimeKey, "must be below %d", SecondsPerDay)
		}
		tl = append(tl, Breakpoint{Seconds: secs, Palette: name})
	}
	sort.Slice(tl, func(i, j int) bool { return tl[i].Seconds < tl[j].Seconds })
	return tl, nil
}
