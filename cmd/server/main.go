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

	persistlog "emberhall/internal/persistence/log"
	"emberhall/internal/persistence/snapshot"
	"emberhall/internal/protocol"
	"emberhall/internal/sim/rng"
	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
	"emberhall/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8080", "http listen address")
		gameID     = flag.String("game", "emberhall_1", "game id")
		seed       = flag.Int64("seed", 0, "rng seed (0 = system randomness)")
		scenario   = flag.String("scenario", "", "start from a named scenario fixture instead of a fresh game")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		savePath   = flag.String("save", "", "path to a save archive to load (optional)")
		loadLatest = flag.Bool("load_latest_save", true, "load the newest save from the data dir if present (when -save is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	gameDir := filepath.Join(*dataDir, "games", *gameID)
	savesDir := filepath.Join(gameDir, "saves")
	_ = os.MkdirAll(savesDir, 0o755)

	idx, err := openRuntimeIndex(gameDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	sim, err := buildSim(*savePath, *loadLatest, savesDir, *scenario, *seed, tune, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	reportLog := persistlog.NewReportLogger(gameDir, *gameID)
	auditLog := persistlog.NewAuditLogger(gameDir)
	defer reportLog.Close()
	defer auditLog.Close()

	g := newGame(*gameID, sim, tune, savesDir, logger)
	g.idx = idx
	g.reports = reportLog
	g.audits = auditLog

	obsSrv := observer.NewServer(g, logger)
	g.obs = obsSrv

	// Minute ticker. Ticks are no-ops while the clock is paused.
	tickMS := tune.MinuteMsPerTick
	if tickMS <= 0 {
		tickMS = 250
	}
	go func() {
		tk := time.NewTicker(time.Duration(tickMS) * time.Millisecond)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				g.Tick()
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", obsSrv.Handler())
	mux.HandleFunc("/v1/action", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var act protocol.ActionMsg
		if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
			http.Error(rw, "bad request", http.StatusBadRequest)
			return
		}
		res := g.Apply(act)
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(res)
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		b, err := g.StateJSON()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(b)
	})
	mux.HandleFunc("/v1/report", func(rw http.ResponseWriter, r *http.Request) {
		b, err := g.LastReportJSON()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if b == nil {
			_, _ = rw.Write([]byte("null"))
			return
		}
		_, _ = rw.Write(b)
	})
	mux.HandleFunc("/v1/reports", func(rw http.ResponseWriter, r *http.Request) {
		if idx == nil {
			http.Error(rw, "index disabled", http.StatusNotImplemented)
			return
		}
		reports, err := idx.RecentReports(*gameID, 14)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(reports)
	})
	mux.HandleFunc("/v1/save", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := g.SaveNow(); err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
	})

	if envBool("EMBERHALL_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
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

	logger.Printf("listening on %s (game=%s)", *addr, *gameID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Leave a save behind on clean shutdown.
	if err := g.SaveNow(); err != nil {
		logger.Printf("shutdown save: %v", err)
	}
}

// buildSim resolves the start-up precedence: explicit save path, newest save
// in the data dir, scenario fixture, fresh game.
func buildSim(savePath string, loadLatest bool, savesDir, scenario string, seed int64, tune tuning.Tuning, logger *log.Logger) (*tavern.Sim, error) {
	toLoad := strings.TrimSpace(savePath)
	if toLoad == "" && loadLatest {
		toLoad = latestSave(savesDir)
	}

	if toLoad != "" {
		_, payload, err := snapshot.Read(toLoad)
		if err != nil {
			return nil, fmt.Errorf("read save: %w", err)
		}
		sim, info, res := tavern.LoadGame(payload, tune)
		if !res.OK {
			return nil, fmt.Errorf("load save: %s %s", res.Code, res.Err)
		}
		if len(info.Migrations) > 0 {
			logger.Printf("save migrated: %s", strings.Join(info.Migrations, ", "))
		}
		logger.Printf("resumed from save=%s day=%d", filepath.Base(toLoad), sim.State().Day)
		return sim, nil
	}

	if scenario != "" {
		sim, err := tavern.NewScenario(scenario, uint32(seed), tune)
		if err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
		logger.Printf("started scenario=%s", scenario)
		return sim, nil
	}

	ctrl := rng.New()
	if seed != 0 {
		ctrl = rng.NewSeeded(uint32(seed))
	}
	return tavern.New(tune, ctrl), nil
}

func latestSave(savesDir string) string {
	ents, err := snapshot.List(savesDir)
	if err != nil || len(ents) == 0 {
		return ""
	}
	return ents[0].Path
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

func envBool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
