package scene

import "fmt"

// Mode selects how a cycle rule animates its slot range. On disk it is the
// integer field "reverse".
type Mode uint8

const (
	Forward     Mode = iota // plain left rotation
	ForwardAlt              // alias of Forward
	PingPong                // rotation wrapped in a partial mirror
	Bounce                  // triangle wave across the range
	SineQuarter             // sine eased, quarter range amplitude
	SineHalf                // sine eased, half range amplitude
)

var modeNames = [...]string{"forward", "forward-alt", "ping-pong", "bounce", "sine-quarter", "sine-half"}

// ParseMode converts the on-disk integer into a Mode.
func ParseMode(v int) (Mode, error) {
	if v < 0 || v >= len(modeNames) {
		return 0, fmt.Errorf("%w: %d", ErrMode, v)
	}
	return Mode(v), nil
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}
