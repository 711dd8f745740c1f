package main

import (
	"motionstack.dev/internal/sim/scenario"
	"motionstack.dev/internal/sim/world"
)

// scriptFeeder is a tick sink that queues the scenario steps of the next
// tick, and stops the server once the tick limit is reached.
type scriptFeeder struct {
	player *scenario.Player
	inbox  chan<- world.Command
	limit  uint64
	done   func()
}

func (f *scriptFeeder) WriteTick(entry world.TickLogEntry) error {
	next := entry.Tick + 1
	if f.limit > 0 && next >= f.limit {
		f.done()
		return nil
	}
	if f.player == nil {
		return nil
	}
	for _, cmd := range f.player.Due(next) {
		select {
		case f.inbox <- cmd:
		default:
			// Never block: this runs on the world loop.
		}
	}
	return nil
}
