package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "motionstack.dev/internal/persistence/log"
	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/scenario"
	"motionstack.dev/internal/sim/tuning"
	"motionstack.dev/internal/sim/world"
	"motionstack.dev/internal/transport/observer"
	"motionstack.dev/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		worldID      = flag.String("world", "", "world id (default: scenario name)")
		seed         = flag.Int64("seed", 0, "world seed (default: scenario seed)")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scenarioPath = flag.String("scenario", "", "path to scenario.yaml (default: <configs>/scenario.yaml, empty world if missing)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite index (paths come straight from the catalogs)")
		maxTicks     = flag.Uint64("ticks", 0, "stop after this many ticks (0 = run until signalled)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sp := strings.TrimSpace(*scenarioPath)
	explicit := sp != ""
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.yaml")
	}
	var sc *scenario.Scenario
	if s, err := scenario.Load(sp); err == nil {
		sc = &s
	} else if explicit || !os.IsNotExist(err) {
		logger.Fatalf("load scenario: %v", err)
	}

	id := strings.TrimSpace(*worldID)
	if id == "" && sc != nil {
		id = sc.Name
	}
	if id == "" {
		id = "world_1"
	}
	worldSeed := *seed
	if worldSeed == 0 && sc != nil {
		worldSeed = sc.Seed
	}

	worldDir := filepath.Join(*dataDir, "worlds", id)
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional: read-model index (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	w, err := world.New(world.WorldConfig{
		ID:         id,
		TickRateHz: tune.TickRateHz,
		Seed:       worldSeed,
	}, world.Options{
		Tuning:   tune,
		Catalogs: cats,
		Paths:    pathSource(idx, *configDir, cats, tune, logger),
		Logger:   log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	rejectLog := persistlog.NewRejectLogger(worldDir)
	defer tickLog.Close()
	defer rejectLog.Close()
	w.AddTickSink(tickLog)
	w.AddTickSink(rejectLog)
	if idx != nil {
		w.AddTickSink(idx)
	}

	ctx, cancel := signalContext()
	defer cancel()

	feeder := &scriptFeeder{inbox: w.Inbox(), limit: *maxTicks, done: cancel}
	if sc != nil {
		if err := sc.Spawn(w); err != nil {
			logger.Fatalf("spawn: %v", err)
		}
		feeder.player = sc.NewPlayer()
		for _, cmd := range feeder.player.Due(0) {
			w.Inbox() <- cmd
		}
		logger.Printf("scenario %s: %d units, %d steps", sc.Name, len(sc.Units), len(sc.Script))
	}
	w.AddTickSink(feeder)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP motionstack_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE motionstack_world_tick gauge\n")
		fmt.Fprintf(rw, "motionstack_world_tick{world=%q} %d\n", id, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP motionstack_world_units Current number of units in the world.\n")
		fmt.Fprintf(rw, "# TYPE motionstack_world_units gauge\n")
		fmt.Fprintf(rw, "motionstack_world_units{world=%q} %d\n", id, w.UnitCount())

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP motionstack_index_queue_depth Index writer backlog depth.\n")
			fmt.Fprintf(rw, "# TYPE motionstack_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "motionstack_index_queue_depth{world=%q} %d\n", id, st.QueueDepth)

			fmt.Fprintf(rw, "# HELP motionstack_index_dropped_ticks_total Ticks dropped because the index writer fell behind.\n")
			fmt.Fprintf(rw, "# TYPE motionstack_index_dropped_ticks_total counter\n")
			fmt.Fprintf(rw, "motionstack_index_dropped_ticks_total{world=%q} %d\n", id, st.DropTickTotal)
		}
	})

	enableAdminHTTP := envBool("MS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("MS_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := map[string]any{
				"world_id": id,
				"tick":     w.CurrentTick(),
				"units":    w.UnitCount(),
			}
			if idx != nil {
				resp["index"] = idx.Stats()
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		if idx != nil {
			mux.HandleFunc("/admin/v1/transitions", func(rw http.ResponseWriter, r *http.Request) {
				if !isLoopbackRemote(r.RemoteAddr) {
					http.Error(rw, "forbidden", http.StatusForbidden)
					return
				}
				ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
				defer cancel2()
				counts, err := idx.TransitionCounts(ctx2)
				if err != nil {
					http.Error(rw, err.Error(), http.StatusServiceUnavailable)
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(rw).Encode(counts)
			})
		}

		obsSrv := observer.NewServer(w, logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (MS_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (MS_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-runDone
	w.Close()
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
