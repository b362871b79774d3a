// Package main is the entry point for the Heat City simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/infra/storage"
	"github.com/MRamiBalles/heatcity/internal/network"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
)

func main() {
	log.Println("[SIM-SERVER] Initializing Heat City authoritative server...")
	if err := run(); err != nil {
		log.Fatalf("[SIM-SERVER] %v", err)
	}
	log.Println("[SIM-SERVER] Stopped.")
}

// stores is whatever persistence the runtime selected.
type stores struct {
	repo    engine.WorldRepository
	content content.Repository
	audit   *storage.SQLiteAuditRepository // nil for the file store
	journal events.Persister               // nil for the SQLite store
	db      *sql.DB
}

func run() error {
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	balance, err := config.LoadBalance(rt.BalancePath)
	if err != nil {
		return err
	}
	tuning := config.TuningFor(rt.Profile)

	appLogger := logger.NewLogger()
	appLogger.SetVerbose(rt.Verbose)
	collector := metrics.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info(fmt.Sprintf("Opening %s store...", rt.Store))
	st, err := openStores(ctx, rt, tuning, appLogger, collector)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	w, err := st.repo.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoWorld):
		appLogger.Info(fmt.Sprintf("No saved world. Generating city from seed %d.", rt.Seed))
		w = world.NewCity(rt.Seed)
	case err != nil:
		return fmt.Errorf("load world: %w", err)
	default:
		appLogger.Info(fmt.Sprintf("Restored world at tick %d, day %d.", w.Time.Tick, w.Time.Day))
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	recent := events.NewLog(tuning.RecentEventCapacity, st.journal)
	hub := network.NewHub(network.HubOptions{
		BroadcastBuffer: tuning.BroadcastChannelBuffer,
		MaxClients:      tuning.MaxClients,
		Recent:          recent,
	}, appLogger, collector)
	go hub.Run(ctx)

	sinks := engine.MultiSink{hub}
	if st.audit != nil {
		sinks = append(sinks, st.audit)
	}

	appLogger.Info("Bootstrapping orchestrator...")
	orch := engine.New(engine.Options{
		World:   w,
		Content: st.content,
		Balance: balance,
		Repo:    st.repo,
		Sink:    sinks,
		Logger:  appLogger,
		Metrics: collector,
	})

	var ticker *engine.Ticker
	if rt.AutoTick {
		ticker = engine.NewTicker(orch, rt.TickInterval, appLogger, func(r engine.TickReport) {
			appLogger.Debug(fmt.Sprintf("tick %d: %d events, %d faults, digest %s", r.Tick, len(r.Events), len(r.Faults), r.Digest[:12]))
		})
		go ticker.Start(ctx)
	}

	router := network.NewRouter(orch, rt.DevMode, appLogger)
	commands := network.NewCommandHandler(router, appLogger)
	var auditReader storage.AuditReader
	if st.audit != nil {
		auditReader = st.audit
	}
	replay := network.NewReplayHandler(auditReader, recent, appLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", network.ServeWS(ctx, hub, router, network.ClientOptions{
		SendBuffer:           tuning.ClientSendBuffer,
		MaxMessagesPerSecond: tuning.MaxMessagesPerSecond,
	}))
	mux.HandleFunc("/api/command", commands.HandleCommand)
	mux.HandleFunc("/api/status", commands.HandleStatus)
	mux.HandleFunc("/api/replay", replay.HandleReplay)
	mux.HandleFunc("/api/recap", replay.HandleRecap)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	srv := &http.Server{Addr: rt.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP API & WS Server listening on " + rt.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	go watchTuning(ctx, tuning, appLogger, collector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	appLogger.Info("Shutting down...")
	if ticker != nil {
		ticker.Stop()
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn(fmt.Sprintf("http shutdown: %v", err))
	}
	if err := st.repo.Save(shutdownCtx, orch.Snapshot()); err != nil {
		return fmt.Errorf("final checkpoint: %w", err)
	}
	appLogger.Info(fmt.Sprintf("Final checkpoint written at tick %d.", orch.Snapshot().Time.Tick))
	return nil
}

func openStores(ctx context.Context, rt config.Runtime, tuning *config.Tuning, log *logger.Logger, m *metrics.Collector) (stores, error) {
	if rt.Store == "file" {
		catalog, err := content.NewCatalog(content.DefaultSet())
		if err != nil {
			return stores{}, err
		}
		journal := storage.NewJSONLEventWriter(filepath.Join(filepath.Dir(rt.SavePath), "events.jsonl"))
		return stores{
			repo:    storage.NewFileWorldRepository(rt.SavePath),
			content: catalog,
			journal: journal,
		}, nil
	}

	db, err := storage.InitSQLite(ctx, rt.DBPath)
	if err != nil {
		return stores{}, err
	}
	storage.ConfigurePool(db, rt.DBPath, tuning.DBMaxOpenConns, tuning.DBMaxIdleConns)

	seeded, err := storage.SeedDefaultContent(ctx, db)
	if err != nil {
		db.Close()
		return stores{}, err
	}
	if seeded {
		log.Info("Content store empty. Seeded the default catalog.")
	}
	catalog, err := storage.OpenSQLiteContent(ctx, db, storage.DefaultContentCacheSize, log)
	if err != nil {
		db.Close()
		return stores{}, err
	}
	return stores{
		repo:    storage.NewSQLiteWorldRepository(db),
		content: catalog,
		audit:   storage.NewSQLiteAuditRepository(db, engine.SystemClock{}, m),
		db:      db,
	}, nil
}

// watchTuning logs profile recommendations from the live metrics once a minute.
func watchTuning(ctx context.Context, tuning *config.Tuning, log *logger.Logger, m *metrics.Collector) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rec := config.Analyze(m.Snapshot())
			for _, note := range rec.Notes {
				log.Warn("tuning: " + note)
			}
			if len(rec.Notes) > 0 {
				next := config.ApplyRecommendations(&config.Tuning{
					BroadcastChannelBuffer: tuning.BroadcastChannelBuffer,
					ClientSendBuffer:       tuning.ClientSendBuffer,
					DBMaxOpenConns:         tuning.DBMaxOpenConns,
					DBMaxIdleConns:         tuning.DBMaxIdleConns,
				}, rec)
				log.Info(fmt.Sprintf("tuning: next restart would use broadcast=%d send=%d db_open=%d",
					next.BroadcastChannelBuffer, next.ClientSendBuffer, next.DBMaxOpenConns))
			}
		}
	}
}
