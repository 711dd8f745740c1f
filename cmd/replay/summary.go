package main

import (
	"fmt"
	"io"
	"sort"

	"motionstack.dev/internal/sim/motion"
	"motionstack.dev/internal/sim/world"
)

// summary counts journal contents per motion type and lifecycle op.
type summary struct {
	ticks    uint64
	first    uint64
	last     uint64
	commands int
	assists  int
	informs  map[string]int
	byType   map[string]map[motion.Op]int
}

var summaryOps = []motion.Op{
	motion.OpPush,
	motion.OpInterrupt,
	motion.OpReset,
	motion.OpFinalize,
	motion.OpDefer,
	motion.OpDispose,
	motion.OpReject,
}

func newSummary() *summary {
	return &summary{
		informs: map[string]int{},
		byType:  map[string]map[motion.Op]int{},
	}
}

func (s *summary) add(e world.TickLogEntry) {
	if s.ticks == 0 {
		s.first = e.Tick
	}
	s.ticks++
	s.last = e.Tick
	s.commands += len(e.Commands)
	s.assists += len(e.Assists)
	for _, in := range e.Informs {
		s.informs[in.Type]++
	}
	for _, ev := range e.Events {
		m := s.byType[ev.Name]
		if m == nil {
			m = map[motion.Op]int{}
			s.byType[ev.Name] = m
		}
		m[ev.Op]++
	}
}

func (s *summary) write(out io.Writer) {
	fmt.Fprintf(out, "ticks=%d (%d..%d) commands=%d assists=%d\n", s.ticks, s.first, s.last, s.commands, s.assists)

	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(out, "%-20s", "type")
	for _, op := range summaryOps {
		fmt.Fprintf(out, " %9s", op)
	}
	fmt.Fprintln(out)
	for _, t := range types {
		fmt.Fprintf(out, "%-20s", t)
		for _, op := range summaryOps {
			fmt.Fprintf(out, " %9d", s.byType[t][op])
		}
		fmt.Fprintln(out)
	}

	if len(s.informs) > 0 {
		names := make([]string, 0, len(s.informs))
		for n := range s.informs {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(out, "inform %s=%d\n", n, s.informs[n])
		}
	}
}
