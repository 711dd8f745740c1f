package world

import (
	"errors"
	"fmt"

	"motionstack.dev/internal/sim/movegen"
)

// Command is one motion request addressed to a unit. Commands are queued and
// applied at the start of the next tick, in arrival order.
type Command struct {
	Unit    uint64     `json:"unit" yaml:"unit"`
	Request string     `json:"request" yaml:"request"`
	Target  uint64     `json:"target,omitempty" yaml:"target"`
	Pos     [3]float32 `json:"pos,omitempty" yaml:"pos"`
	Dist    float32    `json:"dist,omitempty" yaml:"dist"`
	Angle   float32    `json:"angle,omitempty" yaml:"angle"`
	Speed   float32    `json:"speed,omitempty" yaml:"speed"`
	Ms      uint32     `json:"ms,omitempty" yaml:"ms"`
	Path    uint32     `json:"path,omitempty" yaml:"path"`
	Node    uint32     `json:"node,omitempty" yaml:"node"`
	ID      uint32     `json:"id,omitempty" yaml:"id"`
	Dir     string     `json:"dir,omitempty" yaml:"dir"`
	Repeat  bool       `json:"repeat,omitempty" yaml:"repeat"`
	Reset   bool       `json:"reset,omitempty" yaml:"reset"`
	All     bool       `json:"all,omitempty" yaml:"all"`
}

var (
	ErrUnknownUnit    = errors.New("unknown unit")
	ErrUnknownRequest = errors.New("unknown request")
)

// Requests lists every request name Apply understands.
var Requests = []string{
	"idle", "random", "targeted_home", "confused", "chase", "follow", "point",
	"charge", "seek_assistance", "seek_assistance_distract", "fleeing",
	"taxi_flight", "distract", "rotate", "fall", "path",
	"clear", "expire", "initialize", "speed", "final_distance",
	"root", "unroot", "charm", "uncharm", "kill", "revive", "despawn",
}

// KnownRequest reports whether name is one of Requests.
func KnownRequest(name string) bool {
	for _, r := range Requests {
		if r == name {
			return true
		}
	}
	return false
}

func (w *World) apply(cmd Command) error {
	u := w.units[cmd.Unit]
	if u == nil {
		return fmt.Errorf("%w %d", ErrUnknownUnit, cmd.Unit)
	}
	m := u.motion

	// A missing target passes a nil unit; the stack ignores those requests.
	target := func() movegen.Unit {
		if t := w.units[cmd.Target]; t != nil {
			return t
		}
		return nil
	}
	x, y, z := cmd.Pos[0], cmd.Pos[1], cmd.Pos[2]

	switch cmd.Request {
	case "idle":
		m.MoveIdle()
	case "random":
		dist := cmd.Dist
		if dist <= 0 {
			dist = w.tuning.Motion.WanderDistance
		}
		m.MoveRandom(dist)
	case "targeted_home":
		m.MoveTargetedHome()
	case "confused":
		m.MoveConfused()
	case "chase":
		m.MoveChase(target(), cmd.Dist, cmd.Angle)
	case "follow":
		m.MoveFollow(target(), cmd.Dist, cmd.Angle)
	case "point":
		m.MovePoint(cmd.ID, x, y, z)
	case "charge":
		m.MoveCharge(x, y, z, cmd.Speed, cmd.ID)
	case "seek_assistance":
		m.MoveSeekAssistance(x, y, z)
	case "seek_assistance_distract":
		m.MoveSeekAssistanceDistract(cmd.Ms)
	case "fleeing":
		m.MoveFleeing(target(), cmd.Ms)
	case "taxi_flight":
		m.MoveTaxiFlight(cmd.Path, cmd.Node)
	case "distract":
		m.MoveDistract(cmd.Ms)
	case "rotate":
		m.MoveRotate(cmd.Ms, movegen.ParseRotateDirection(cmd.Dir))
	case "fall":
		m.MoveFall(cmd.ID)
	case "path":
		m.MovePath(cmd.Path, cmd.Repeat)
	case "clear":
		m.Clear(cmd.Reset, cmd.All)
		if m.Size() == 0 {
			m.Initialize()
		}
	case "expire":
		m.MovementExpired(cmd.Reset)
	case "initialize":
		m.Initialize()
	case "speed":
		u.SetSpeed(cmd.Speed)
	case "final_distance":
		m.UpdateFinalDistance(cmd.Dist)
	case "root":
		u.AddState(movegen.StateCannotMove)
		u.StopMoving()
	case "unroot":
		u.ClearState(movegen.StateCannotMove)
	case "charm":
		u.AddState(movegen.StateLostControl)
	case "uncharm":
		u.ClearState(movegen.StateLostControl)
	case "kill":
		u.alive = false
		u.StopMoving()
	case "revive":
		u.alive = true
		m.Initialize()
	case "despawn":
		w.despawn(u)
	default:
		return fmt.Errorf("%w %q", ErrUnknownRequest, cmd.Request)
	}
	return nil
}
