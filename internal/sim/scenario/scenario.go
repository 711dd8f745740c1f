package scenario

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/world"
)

// Scenario is a set of units to spawn and a script of motion requests to
// issue at fixed ticks.
type Scenario struct {
	Name  string     `yaml:"name"`
	Seed  int64      `yaml:"seed"`
	Units []UnitSpec `yaml:"units"`
	// Script is sorted by tick after Normalize; steps of one tick keep file order.
	Script []Step `yaml:"script"`
}

type UnitSpec struct {
	ID    uint64     `yaml:"id"`
	Kind  string     `yaml:"kind"`
	Entry uint32     `yaml:"entry"`
	Name  string     `yaml:"name"`
	Pos   [3]float32 `yaml:"pos"`
	Owner uint64     `yaml:"owner"`
}

type Step struct {
	AtTick        uint64 `yaml:"at_tick"`
	world.Command `yaml:",inline"`
}

func Load(path string) (Scenario, error) {
	var s Scenario
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("scenario.yaml: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("scenario.yaml: %w", err)
	}
	return s, nil
}

func (s *Scenario) Normalize() {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = "scenario"
	}
	for i := range s.Units {
		s.Units[i].Kind = strings.ToLower(strings.TrimSpace(s.Units[i].Kind))
		if s.Units[i].Kind == "" {
			s.Units[i].Kind = "creature"
		}
	}
	for i := range s.Script {
		s.Script[i].Request = strings.ToLower(strings.TrimSpace(s.Script[i].Request))
	}
	sort.SliceStable(s.Script, func(i, j int) bool { return s.Script[i].AtTick < s.Script[j].AtTick })
}

func (s Scenario) Validate() error {
	ids := map[uint64]bool{}
	for i, u := range s.Units {
		if u.ID == 0 {
			return fmt.Errorf("units[%d]: id must be > 0", i)
		}
		if ids[u.ID] {
			return fmt.Errorf("units[%d]: duplicate id %d", i, u.ID)
		}
		if _, err := parseKind(u.Kind); err != nil {
			return fmt.Errorf("units[%d]: %w", i, err)
		}
		if u.Kind == "creature" && u.Entry == 0 {
			return fmt.Errorf("units[%d]: creature needs an entry", i)
		}
		// Owners must be spawned first.
		if u.Owner != 0 && !ids[u.Owner] {
			return fmt.Errorf("units[%d]: owner %d is not declared before it", i, u.Owner)
		}
		ids[u.ID] = true
	}
	for i, st := range s.Script {
		if !world.KnownRequest(st.Request) {
			return fmt.Errorf("script[%d]: unknown request %q", i, st.Request)
		}
		if !ids[st.Unit] {
			return fmt.Errorf("script[%d]: unknown unit %d", i, st.Unit)
		}
	}
	return nil
}

func parseKind(s string) (movegen.UnitKind, error) {
	switch s {
	case "creature":
		return movegen.KindCreature, nil
	case "player":
		return movegen.KindPlayer, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

// Spawn places every unit of the scenario into w.
func (s Scenario) Spawn(w *world.World) error {
	for _, u := range s.Units {
		kind, err := parseKind(u.Kind)
		if err != nil {
			return err
		}
		if _, err := w.Spawn(world.SpawnSpec{
			ID:    u.ID,
			Kind:  kind,
			Entry: u.Entry,
			Name:  u.Name,
			Pos:   u.Pos,
			Owner: u.Owner,
		}); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

// LastTick is the tick of the final scripted step.
func (s Scenario) LastTick() uint64 {
	if len(s.Script) == 0 {
		return 0
	}
	return s.Script[len(s.Script)-1].AtTick
}

// Player replays a script against ticks as they come.
type Player struct {
	steps []Step
	next  int
}

func (s Scenario) NewPlayer() *Player {
	return &Player{steps: s.Script}
}

// Due returns the commands scheduled at or before tick that were not
// returned yet.
func (p *Player) Due(tick uint64) []world.Command {
	var out []world.Command
	for p.next < len(p.steps) && p.steps[p.next].AtTick <= tick {
		out = append(out, p.steps[p.next].Command)
		p.next++
	}
	return out
}

func (p *Player) Done() bool { return p.next >= len(p.steps) }
