package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
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

	"antfarm.ai/internal/persistence/indexdb"
	persistlog "antfarm.ai/internal/persistence/log"
	"antfarm.ai/internal/sim/tuning"
	"antfarm.ai/internal/sim/world"
	"antfarm.ai/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		seed        = flag.Int64("seed", 0, "world seed (overrides tuning.yaml when non-zero)")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite stats index")
		allowRemote = flag.Bool("allow_remote_observer", false, "serve observer endpoints to non-loopback clients")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

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
	if *seed != 0 {
		tune.Seed = *seed
	}
	if tune.Seed == 0 {
		tune.Seed = time.Now().UnixNano()
	}

	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}
	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("world %s %dx%d colonies=%d agents=%d seed=%d", cfg.ID, cfg.Width, cfg.Height, len(w.Colonies()), len(w.Agents()), tune.Seed)

	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(*dataDir)
	defer tickLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
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
		var st indexdb.Stats
		if idx != nil {
			st = idx.Stats()
		}
		writeMetrics(rw, cfg.ID, w.CurrentTick(), w.Metrics(), st)
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !*allowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string        `json:"world_id"`
			Tick    uint64        `json:"tick"`
			Metrics world.Metrics `json:"metrics"`
		}{
			WorldID: cfg.ID,
			Tick:    w.CurrentTick(),
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})

	obsSrv := observer.NewServer(w, logger)
	obsSrv.AllowRemote = *allowRemote
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	if envBool("ANT_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (ANT_ENABLE_PPROF_HTTP=false)")
	}

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
	<-worldDone
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(rw io.Writer, worldID string, tick uint64, m world.Metrics, idx indexdb.Stats) {
	if m.Tick != 0 {
		tick = m.Tick
	}

	fmt.Fprintf(rw, "# HELP antfarm_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_tick gauge\n")
	fmt.Fprintf(rw, "antfarm_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(rw, "# HELP antfarm_world_agents Current number of agents in the world.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_agents gauge\n")
	fmt.Fprintf(rw, "antfarm_world_agents{world=%q} %d\n", worldID, m.Agents)

	fmt.Fprintf(rw, "# HELP antfarm_world_observers Current number of observer sessions.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_observers gauge\n")
	fmt.Fprintf(rw, "antfarm_world_observers{world=%q} %d\n", worldID, m.Observers)

	fmt.Fprintf(rw, "# HELP antfarm_colony_agents Live agents per colony.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_colony_agents gauge\n")
	for _, c := range m.Colonies {
		fmt.Fprintf(rw, "antfarm_colony_agents{world=%q,colony=\"%d\"} %d\n", worldID, c.ID, c.Agents)
	}

	fmt.Fprintf(rw, "# HELP antfarm_colony_stored_food Food stored on nest cells at the last stats tick.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_colony_stored_food gauge\n")
	for _, c := range m.Colonies {
		fmt.Fprintf(rw, "antfarm_colony_stored_food{world=%q,colony=\"%d\"} %.3f\n", worldID, c.ID, c.StoredFood)
	}

	fmt.Fprintf(rw, "# HELP antfarm_world_events_total Agent and edit events since start.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_events_total counter\n")
	fmt.Fprintf(rw, "antfarm_world_events_total{world=%q,kind=%q} %d\n", worldID, "spawn", m.SpawnTotal)
	fmt.Fprintf(rw, "antfarm_world_events_total{world=%q,kind=%q} %d\n", worldID, "death", m.DeathTotal)
	fmt.Fprintf(rw, "antfarm_world_events_total{world=%q,kind=%q} %d\n", worldID, "fault", m.FaultTotal)
	fmt.Fprintf(rw, "antfarm_world_events_total{world=%q,kind=%q} %d\n", worldID, "edit", m.EditTotal)

	fmt.Fprintf(rw, "# HELP antfarm_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "antfarm_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "edits", m.QueueDepths.Edits)
	fmt.Fprintf(rw, "antfarm_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_join", m.QueueDepths.ObserverJoin)
	fmt.Fprintf(rw, "antfarm_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_leave", m.QueueDepths.ObserverLeave)
	fmt.Fprintf(rw, "antfarm_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "index", idx.QueueDepth)

	fmt.Fprintf(rw, "# HELP antfarm_index_dropped_total Tick entries dropped by the stats index.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_index_dropped_total counter\n")
	fmt.Fprintf(rw, "antfarm_index_dropped_total{world=%q} %d\n", worldID, idx.DropTickTotal)

	fmt.Fprintf(rw, "# HELP antfarm_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE antfarm_world_step_ms gauge\n")
	fmt.Fprintf(rw, "antfarm_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)
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

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}
