package scene

import (
	"errors"
	"fmt"
)

// Configuration errors reported while building a scene.
var (
	// ErrConfig is matched by every ConfigError.
	ErrConfig = errors.New("scene: invalid configuration")

	// ErrEmptyTimeline indicates a timeline without breakpoints.
	ErrEmptyTimeline = errors.New("scene: timeline is empty")

	// ErrTimeKey indicates a timeline key outside 0..86399 or not a number.
	ErrTimeKey = errors.New("scene: timeline key out of range")

	// ErrMissingPalette indicates a timeline entry naming an unknown palette.
	ErrMissingPalette = errors.New("scene: timeline references missing palette")

	// ErrRuleRange indicates a cycle rule with low > high or bounds outside 0..255.
	ErrRuleRange = errors.New("scene: cycle rule range invalid")

	// ErrRate indicates a negative cycle rate.
	ErrRate = errors.New("scene: cycle rate negative")

	// ErrMode indicates a cycle mode outside 0..5.
	ErrMode = errors.New("scene: unknown cycle mode")

	// ErrTooManyColors indicates a palette with more than 256 colors.
	ErrTooManyColors = errors.New("scene: palette has more than 256 colors")

	// ErrColor indicates a malformed color triple.
	ErrColor = errors.New("scene: malformed color")

	// ErrDimensions indicates a non-positive width or height.
	ErrDimensions = errors.New("scene: dimensions must be positive")

	// ErrPixelCount indicates a pixel array not matching width*height.
	ErrPixelCount = errors.New("scene: pixel count mismatch")

	// ErrPixelIndex indicates a pixel index outside 0..255.
	ErrPixelIndex = errors.New("scene: pixel index out of range")

	// ErrMalformed indicates the scene document could not be decoded.
	ErrMalformed = errors.New("scene: malformed document")
)

// ConfigError describes structurally invalid scene data. It is raised once,
// when the scene is built, and never during frame computation.
type ConfigError struct {
	Scene  string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Field
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Scene != "" {
		return fmt.Sprintf("scene %q: %s", e.Scene, msg)
	}
	return "scene: " + msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfig}
	}
	return []error{ErrConfig, e.Err}
}

func configErr(field string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}

// DegenerateRuleWarning marks an active rule whose rate is too small for the
// speed constant. The engine treats such a rule as inactive.
type DegenerateRuleWarning struct {
	Palette string
	Rule    int
	Rate    int
	Speed   int
}

func (w DegenerateRuleWarning) String() string {
	return fmt.Sprintf("palette %q rule %d: rate %d below speed constant %d, rule never animates",
		w.Palette, w.Rule, w.Rate, w.Speed)
}
