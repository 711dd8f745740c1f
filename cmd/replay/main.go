package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	persistlog "motionstack.dev/internal/persistence/log"
	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/scenario"
	"motionstack.dev/internal/sim/tuning"
	"motionstack.dev/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		worldDir     = flag.String("world_dir", "", "world data dir containing motion/motion-*.jsonl.zst")
		configDir    = flag.String("configs", "./configs", "config directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scenarioPath = flag.String("scenario", "", "path to scenario.yaml (default: <configs>/scenario.yaml)")
		verify       = flag.Bool("verify", true, "re-simulate the journal and compare state digests")
		toTick       = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		verbose      = flag.Bool("v", false, "print world log lines while re-simulating")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	var w *world.World
	if *verify {
		var err error
		w, err = buildWorld(*configDir, *tuningPath, *scenarioPath, *verbose)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
		defer w.Close()
	}

	sum := newSummary()
	var checked uint64
	err := persistlog.ReadTicks(*worldDir, func(entry world.TickLogEntry) error {
		if *toTick != 0 && entry.Tick > *toTick {
			return errStop
		}
		sum.add(entry)
		if w == nil {
			return nil
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, digest := w.StepOnce(entry.Commands)
		if digest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
		}
		checked++
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	sum.write(os.Stdout)
	if w != nil {
		fmt.Printf("replay ok: checked=%d ticks\n", checked)
	}
}

func buildWorld(configDir, tuningPath, scenarioPath string, verbose bool) (*world.World, error) {
	cats, err := catalogs.Load(configDir)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(tuningPath) == "" {
		tuningPath = filepath.Join(configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenarioPath) == "" {
		scenarioPath = filepath.Join(configDir, "scenario.yaml")
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return nil, err
	}

	out := io.Discard
	if verbose {
		out = os.Stderr
	}
	w, err := world.New(world.WorldConfig{ID: sc.Name, TickRateHz: tune.TickRateHz, Seed: sc.Seed}, world.Options{
		Tuning:   tune,
		Catalogs: cats,
		Logger:   log.New(out, "[replay] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		return nil, err
	}
	if err := sc.Spawn(w); err != nil {
		return nil, err
	}
	return w, nil
}
