package thermostat

import (
	"fmt"
	"strings"
)

// State is the controller-wide lifecycle state.
type State uint8

const (
	StateOff State = iota
	StateNoMaster
	StateNoSensors
	StateDone
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "OFF"
	case StateNoMaster:
		return "NO_MASTER"
	case StateNoSensors:
		return "NO_SENSORS"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("STATE(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AllStates lists every state, in transition precedence order.
var AllStates = []State{StateOff, StateNoMaster, StateNoSensors, StateDone}

// Mode is the operating mode of the shared heating/cooling unit.
type Mode uint8

const (
	ModeHeat Mode = iota
	ModeCool
)

func (m Mode) String() string {
	switch m {
	case ModeHeat:
		return "HEAT"
	case ModeCool:
		return "COOL"
	default:
		return fmt.Sprintf("MODE(%d)", uint8(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode accepts HEAT or COOL, case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HEAT":
		return ModeHeat, nil
	case "COOL":
		return ModeCool, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Band is the comfort classification of a room.
// BandUnknown is reported until the first telemetry reading arrives.
type Band uint8

const (
	BandUnknown Band = iota
	BandHot
	BandWarm
	BandOk
	BandCool
	BandCold
)

func (b Band) String() string {
	switch b {
	case BandHot:
		return "HOT"
	case BandWarm:
		return "WARM"
	case BandOk:
		return "OK"
	case BandCool:
		return "COOL"
	case BandCold:
		return "COLD"
	default:
		return "UNKNOWN"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Command is what the controller asks the shared unit to do.
type Command struct {
	Mode    Mode    `json:"mode"`
	TargetC float64 `json:"target_c"`
}

// UnitCommander applies commands to the hardware. Implementations must not block:
// the controller calls SetUnit while holding its lock and never waits for an acknowledgment.
type UnitCommander interface {
	SetUnit(mode Mode, targetC float64)
}

// UnitCommanderFunc adapts a function to UnitCommander.
type UnitCommanderFunc func(mode Mode, targetC float64)

func (f UnitCommanderFunc) SetUnit(mode Mode, targetC float64) { f(mode, targetC) }

type nopCommander struct{}

func (nopCommander) SetUnit(Mode, float64) {}
