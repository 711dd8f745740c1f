package movegen

import "strings"

// MotionType tags a generator so the stack can classify it without type assertions.
type MotionType uint8

const (
	TypeIdle MotionType = iota
	TypeRandom
	TypeWaypoint
	TypeConfused
	TypeChase
	TypeHome
	TypeFlight
	TypePoint
	TypeFleeing
	TypeDistract
	TypeAssistance
	TypeAssistanceDistract
	TypeTimedFleeing
	TypeFollow
	TypeRotate
	TypeEffect

	// MaxMotionType is the number of motion types.
	MaxMotionType
)

var motionTypeNames = [...]string{
	TypeIdle:               "IDLE",
	TypeRandom:             "RANDOM",
	TypeWaypoint:           "WAYPOINT",
	TypeConfused:           "CONFUSED",
	TypeChase:              "CHASE",
	TypeHome:               "HOME",
	TypeFlight:             "FLIGHT",
	TypePoint:              "POINT",
	TypeFleeing:            "FLEEING",
	TypeDistract:           "DISTRACT",
	TypeAssistance:         "ASSISTANCE",
	TypeAssistanceDistract: "ASSISTANCE_DISTRACT",
	TypeTimedFleeing:       "TIMED_FLEEING",
	TypeFollow:             "FOLLOW",
	TypeRotate:             "ROTATE",
	TypeEffect:             "EFFECT",
}

func (t MotionType) String() string {
	if int(t) < len(motionTypeNames) {
		return motionTypeNames[t]
	}
	return "UNKNOWN"
}

// MotionTypeNames lists every type name in tag order.
func MotionTypeNames() []string {
	return append([]string(nil), motionTypeNames[:]...)
}

// ParseMotionType accepts the names produced by String, case-insensitively.
func ParseMotionType(s string) (MotionType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range motionTypeNames {
		if name == s {
			return MotionType(i), true
		}
	}
	return TypeIdle, false
}

// Targeted reports whether t is a chase or follow type. Targeted generators
// directly beneath an expiring top are expired together with it.
func (t MotionType) Targeted() bool {
	return t == TypeChase || t == TypeFollow
}

// Transient reports whether t is never resumed once anything else is requested.
func (t MotionType) Transient() bool {
	return t == TypeHome || t == TypeEffect || t == TypeDistract
}

type UnitKind uint8

const (
	KindCreature UnitKind = iota
	KindPlayer
)

func (k UnitKind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// UnitState is a bit set of movement related unit flags.
type UnitState uint32

const (
	// StateCannotMove freezes the motion stack; Advance is a no-op.
	StateCannotMove UnitState = 1 << iota
	// StateLostControl marks a unit controlled by someone else (charm, mind control).
	StateLostControl
	// StatePossessed marks a creature driven by a player.
	StatePossessed
	StateDistracted
	StateFleeing
	StateConfused
	StateRoaming
	StateChasing
	StateFollowing
	StateTaxiFlight
)

type ReactState uint8

const (
	ReactPassive ReactState = iota
	ReactDefensive
	ReactAggressive
)

type RotateDirection uint8

const (
	RotateLeft RotateDirection = iota
	RotateRight
)

func ParseRotateDirection(s string) RotateDirection {
	if strings.EqualFold(strings.TrimSpace(s), "right") {
		return RotateRight
	}
	return RotateLeft
}
