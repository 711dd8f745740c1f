package movegen

import "motionstack.dev/internal/sim/catalogs"

// Selector picks the default generator of a unit whose stack ran empty.
// A nil result means the unit idles.
type Selector interface {
	SelectDefault(u Unit) Generator
}

type SelectorFunc func(u Unit) Generator

func (f SelectorFunc) SelectDefault(u Unit) Generator { return f(u) }

type TemplateSource interface {
	Creature(entry uint32) (catalogs.CreatureDef, bool)
}

// TemplateSelector reads the default motion from the creature template.
type TemplateSelector struct {
	Templates TemplateSource
	Paths     PathSource
	// WanderDistance is used for random movers whose template leaves it unset.
	WanderDistance float32
}

func (s TemplateSelector) SelectDefault(u Unit) Generator {
	if s.Templates == nil || u.Kind() != KindCreature {
		return nil
	}
	def, ok := s.Templates.Creature(u.Entry())
	if !ok {
		return nil
	}
	switch def.DefaultMotion {
	case "random":
		dist := def.WanderDistance
		if dist <= 0 {
			dist = s.WanderDistance
		}
		if dist <= 0 {
			return nil
		}
		return NewRandom(dist)
	case "waypoint":
		if s.Paths == nil || def.PathID == 0 {
			return nil
		}
		nodes, ok := s.Paths.WaypointPath(def.PathID)
		if !ok || len(nodes) == 0 {
			return nil
		}
		return NewWaypoint(def.PathID, nodes, true)
	default:
		return nil
	}
}
