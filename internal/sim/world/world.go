package world

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/motion"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64
}

// SpawnSpec places a unit into the world.
type SpawnSpec struct {
	ID    uint64
	Kind  movegen.UnitKind
	Entry uint32
	Name  string
	Pos   [3]float32
	// Owner makes the unit a pet of another, already spawned unit.
	Owner uint64
}

type Inform struct {
	Unit uint64 `json:"unit"`
	Type string `json:"type"`
	ID   uint32 `json:"id"`
}

type TickLogEntry struct {
	Tick     uint64         `json:"tick"`
	Commands []Command      `json:"commands,omitempty"`
	Events   []motion.Event `json:"events,omitempty"`
	Informs  []Inform       `json:"informs,omitempty"`
	Assists  []uint64       `json:"assists,omitempty"`
	Digest   string         `json:"digest"`
}

// TickSink receives one entry per simulated tick. Implemented in internal/persistence/*.
type TickSink interface {
	WriteTick(entry TickLogEntry) error
}

type Options struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	// Paths overrides the catalog paths, e.g. with the sqlite path store.
	Paths  movegen.PathSource
	Logger *log.Logger
}

// World is a single-threaded motion simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	tuning   tuning.Tuning
	catalogs *catalogs.Catalogs
	paths    movegen.PathSource
	selector movegen.Selector
	terrain  Terrain
	log      *log.Logger

	tick      atomic.Uint64
	unitCount atomic.Int64

	units map[uint64]*Unit
	order []uint64

	// Collected while a tick runs.
	events  []motion.Event
	informs []Inform
	assists []uint64

	sinks     []TickSink
	observers map[string]*observerClient

	inbox         chan Command
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	stop          chan struct{}
}

func New(cfg WorldConfig, opts Options) (*World, error) {
	tu := opts.Tuning
	tu.Normalize()
	if err := tu.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = tu.TickRateHz
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	paths := opts.Paths
	if paths == nil {
		paths = PathsFromCatalogs(opts.Catalogs)
	}

	w := &World{
		cfg:      cfg,
		tuning:   tu,
		catalogs: opts.Catalogs,
		paths:    paths,
		selector: movegen.TemplateSelector{
			Templates:      opts.Catalogs,
			Paths:          paths,
			WanderDistance: tu.Motion.WanderDistance,
		},
		terrain:       NewTerrain(tu.Ground),
		log:           logger,
		units:         map[uint64]*Unit{},
		observers:     map[string]*observerClient{},
		inbox:         make(chan Command, 1024),
		observerJoin:  make(chan ObserverJoinRequest, 64),
		observerSub:   make(chan ObserverSubscribeRequest, 64),
		observerLeave: make(chan string, 64),
		stop:          make(chan struct{}),
	}
	return w, nil
}

func (w *World) AddTickSink(s TickSink) { w.sinks = append(w.sinks, s) }

func (w *World) Inbox() chan<- Command                              { return w.inbox }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) UnitCount() int      { return int(w.unitCount.Load()) }
func (w *World) Terrain() Terrain    { return w.terrain }

// Unit returns a spawned unit. Only safe on the world loop goroutine or
// before Run.
func (w *World) Unit(id uint64) *Unit { return w.units[id] }

// Spawn adds a unit and initializes its motion stack. It must be called
// before Run or from the world loop goroutine.
func (w *World) Spawn(spec SpawnSpec) (*Unit, error) {
	if spec.ID == 0 {
		return nil, fmt.Errorf("spawn: unit id must be > 0")
	}
	if w.units[spec.ID] != nil {
		return nil, fmt.Errorf("spawn: duplicate unit id %d", spec.ID)
	}
	u := &Unit{
		w:     w,
		id:    spec.ID,
		entry: spec.Entry,
		kind:  spec.Kind,
		name:  spec.Name,
		alive: true,
		pos:   mgl32.Vec3(spec.Pos),
		home:  mgl32.Vec3(spec.Pos),
		speed: w.tuning.Speeds.Run,
		react: movegen.ReactAggressive,
	}
	if spec.Kind == movegen.KindCreature {
		def, ok := w.catalogs.Creature(spec.Entry)
		if !ok {
			return nil, fmt.Errorf("spawn %d: unknown creature entry %d", spec.ID, spec.Entry)
		}
		if u.name == "" {
			u.name = def.Name
		}
		if def.Speed > 0 {
			u.speed = def.Speed
		}
	}
	if spec.Owner != 0 {
		o := w.units[spec.Owner]
		if o == nil {
			return nil, fmt.Errorf("spawn %d: unknown owner %d", spec.ID, spec.Owner)
		}
		u.owner = o
		u.ownerID = o.id
	}
	u.spline = newLinearSpline(u)
	u.motion = motion.New(u, motion.Options{
		Selector: w.selector,
		Paths:    w.paths,
		Tuning:   w.tuning.Motion,
		Logger:   w.log,
		Sink:     motion.EventSinkFunc(w.noteEvent),
	})
	w.units[u.id] = u
	w.order = append(w.order, u.id)
	sort.Slice(w.order, func(i, j int) bool { return w.order[i] < w.order[j] })
	w.unitCount.Store(int64(len(w.units)))

	u.motion.Initialize()
	return u, nil
}

func (w *World) despawn(u *Unit) {
	u.motion.Close()
	// Generators of other units may still hold it as a target.
	u.alive = false
	delete(w.units, u.id)
	for i, id := range w.order {
		if id == u.id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	for _, o := range w.units {
		if o.owner == u {
			o.owner = nil
		}
	}
	w.unitCount.Store(int64(len(w.units)))
}

// Close tears down every motion stack.
func (w *World) Close() {
	for _, id := range w.order {
		w.units[id].motion.Close()
	}
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []Command

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case cmd := <-w.inbox:
			pending = append(pending, cmd)
		case <-ticker.C:
			w.step(pending)
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(cmds []Command) (tick uint64, digest string) {
	tick = w.tick.Load()
	entry := w.step(cmds)
	return tick, entry.Digest
}

func (w *World) step(cmds []Command) TickLogEntry {
	tick := w.tick.Load()
	diff := w.tickMs()

	for _, cmd := range cmds {
		if err := w.apply(cmd); err != nil {
			w.log.Printf("tick %d: %s: %v", tick, cmd.Request, err)
		}
	}
	for _, id := range w.order {
		w.units[id].update(diff)
	}

	entry := TickLogEntry{
		Tick:    tick,
		Events:  w.events,
		Informs: w.informs,
		Assists: w.assists,
		Digest:  w.stateDigest(tick),
	}
	if len(cmds) > 0 {
		entry.Commands = append([]Command(nil), cmds...)
	}
	for _, s := range w.sinks {
		if err := s.WriteTick(entry); err != nil {
			w.log.Printf("tick %d: sink: %v", tick, err)
		}
	}
	w.broadcastTick(entry)

	w.events = nil
	w.informs = nil
	w.assists = nil
	w.tick.Add(1)
	return entry
}

func (w *World) tickMs() uint32 {
	return uint32(1000 / w.cfg.TickRateHz)
}

func (w *World) noteEvent(ev motion.Event) { w.events = append(w.events, ev) }
func (w *World) noteInform(in Inform)      { w.informs = append(w.informs, in) }
func (w *World) noteAssist(id uint64)      { w.assists = append(w.assists, id) }

// stateDigest hashes every unit's position, orientation and stack. Positions
// are quantized to millimeters.
func (w *World) stateDigest(tick uint64) string {
	h := sha256.New()
	var b [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	put(tick)
	for _, id := range w.order {
		u := w.units[id]
		put(id)
		for _, c := range u.pos {
			put(uint64(int64(math.Round(float64(c) * 1000))))
		}
		put(uint64(math.Float32bits(u.orientation)))
		put(uint64(u.state))
		for _, t := range u.motion.Types() {
			put(uint64(t))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PathsFromCatalogs exposes the catalog paths to the motion stacks.
func PathsFromCatalogs(c *catalogs.Catalogs) movegen.PathSource {
	return catalogPaths{c: c}
}

type catalogPaths struct{ c *catalogs.Catalogs }

func (p catalogPaths) WaypointPath(id uint32) ([]movegen.PathNode, bool) {
	if p.c == nil {
		return nil, false
	}
	return convertNodes(p.c.Paths.Waypoints[id])
}

func (p catalogPaths) TaxiPath(id uint32) ([]movegen.PathNode, bool) {
	if p.c == nil {
		return nil, false
	}
	return convertNodes(p.c.Paths.Taxi[id])
}

func convertNodes(in []catalogs.PathNode) ([]movegen.PathNode, bool) {
	if len(in) == 0 {
		return nil, false
	}
	out := make([]movegen.PathNode, len(in))
	for i, n := range in {
		out[i] = movegen.PathNode{Pos: n.Vec(), DelayMs: n.DelayMs}
	}
	return out, true
}
