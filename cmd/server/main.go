// Package main runs the vesting engine service: the agent scheduler and
// settlement engine over a shared store, with a periodic checkpoint sweep
// and an HTTP surface for health, status, and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"vesting-engine/internal/agent"
	"vesting-engine/internal/config"
	"vesting-engine/internal/observability"
	"vesting-engine/internal/settlement"
	"vesting-engine/internal/storage"
	chstore "vesting-engine/internal/storage/clickhouse"
	"vesting-engine/internal/storage/memory"
	"vesting-engine/internal/storage/migrations"
	pgstore "vesting-engine/internal/storage/postgres"
	"vesting-engine/internal/trading"
	"vesting-engine/internal/trading/stub"
)

// stores holds the storage implementations behind the engine and scheduler.
type stores struct {
	accounts storage.AccountStore
	holdings storage.HoldingStore
	claims   storage.ClaimStore
	profiles storage.BotProfileStore
	applier  storage.SettlementApplier
	mirror   storage.ClaimStore // optional ClickHouse reporting sink
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the claim mirror (overrides config)")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides config)")
	seedFile := flag.String("seed", "", "Seed file with accounts and profiles (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *useMemory {
		cfg.Database.UseMemory = true
	}
	if *postgresDSN != "" {
		cfg.Database.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Database.ClickhouseDSN = *clickhouseDSN
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatalf("Invalid timezone %q: %v", cfg.Scheduler.Timezone, err)
	}
	refreshInterval, err := time.ParseDuration(cfg.Scheduler.RefreshInterval)
	if err != nil {
		logger.Fatalf("Invalid refresh_interval %q: %v", cfg.Scheduler.RefreshInterval, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, st, logger); err != nil {
			logger.Fatalf("Failed to apply seed: %v", err)
		}
	}

	metrics := observability.NewMetrics("vesting_engine")

	engine := settlement.New(settlement.Options{
		AccountStore: st.accounts,
		Applier:      st.applier,
		AuditMirror:  st.mirror,
		Logger:       log.New(os.Stdout, "[settlement] ", log.LstdFlags|log.Lshortfile),
		Metrics:      metrics,
	})

	var submitter trading.Submitter
	if cfg.Trading.WSURL != "" {
		ws := trading.NewWSSubmitter(cfg.Trading.WSURL, nil)
		defer ws.Close()
		submitter = ws
		logger.Printf("Submitting orders to %s", cfg.Trading.WSURL)
	} else {
		submitter = stub.NewSubmitter()
		logger.Println("No trading.ws_url configured, orders go to a recording stub")
	}

	scheduler := agent.New(agent.Options{
		ProfileStore:    st.profiles,
		Engine:          engine,
		Submitter:       submitter,
		Location:        location,
		RefreshInterval: refreshInterval,
		Logger:          log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lshortfile),
		Metrics:         metrics,
	})

	crontab := cron.New(cron.WithLocation(location))
	if _, err := crontab.AddFunc(cfg.Scheduler.SweepCron, func() {
		n, err := engine.SweepCheckpoints(ctx)
		if err != nil {
			logger.Printf("Checkpoint sweep error: %v", err)
			return
		}
		logger.Printf("Checkpoint sweep persisted %d accounts", n)
	}); err != nil {
		logger.Fatalf("Invalid sweep_cron %q: %v", cfg.Scheduler.SweepCron, err)
	}
	if _, err := crontab.AddFunc(cfg.Scheduler.StatusCron, func() {
		logStatus(ctx, st, logger)
	}); err != nil {
		logger.Fatalf("Invalid status_cron %q: %v", cfg.Scheduler.StatusCron, err)
	}
	crontab.Start()
	defer crontab.Stop()

	httpServer := startHTTPServer(cfg.HTTP.Addr, st, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	logger.Println("Starting agent scheduler...")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Scheduler error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores builds the storage layer for the configured mode.
func createStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, func(), error) {
	if cfg.Database.UseMemory {
		accounts := memory.NewAccountStore()
		holdings := memory.NewHoldingStore()
		claims := memory.NewClaimStore()
		logger.Println("Using in-memory storage")
		return &stores{
			accounts: accounts,
			holdings: holdings,
			claims:   claims,
			profiles: memory.NewBotProfileStore(),
			applier:  memory.NewSettlementApplier(accounts, holdings, claims),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	st := &stores{
		accounts: pgstore.NewAccountStore(pool),
		holdings: pgstore.NewHoldingStore(pool),
		claims:   pgstore.NewClaimStore(pool),
		profiles: pgstore.NewBotProfileStore(pool),
		applier:  pgstore.NewSettlementApplier(pool),
	}
	cleanup := func() { pool.Close() }

	// The claim mirror is optional; the service runs fine without it.
	if cfg.Database.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Database.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		st.mirror = chstore.NewClaimStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return st, cleanup, nil
}

// applySeed inserts seed accounts and profiles, skipping ones that exist.
func applySeed(ctx context.Context, path string, st *stores, logger *log.Logger) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}

	nowMs := time.Now().UnixMilli()
	created := 0
	for _, a := range seed.Accounts {
		err := st.accounts.Insert(ctx, a.Account(nowMs))
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.AccountID, err)
		}
		created++
	}
	for _, p := range seed.Profiles {
		err := st.profiles.Insert(ctx, p.Profile())
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed profile %s: %w", p.ProfileID, err)
		}
		created++
	}
	logger.Printf("Seed applied from %s: %d new records", path, created)
	return nil
}

// logStatus logs a one-line summary of the agent population.
func logStatus(ctx context.Context, st *stores, logger *log.Logger) {
	profiles, err := st.profiles.ListActive(ctx)
	if err != nil {
		logger.Printf("Status check error: %v", err)
		return
	}

	var actions int
	var volume int64
	for _, p := range profiles {
		rt, err := st.profiles.GetRuntime(ctx, p.ProfileID)
		if err != nil {
			continue
		}
		actions += rt.ActionsToday
		volume += rt.VolumeToday
	}
	logger.Printf("Status: %d active agents, %d actions today, %d volume today", len(profiles), actions, volume)
}

// startHTTPServer serves health, status, and metrics endpoints.
func startHTTPServer(addr string, st *stores, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		handleStatus(w, r, st)
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Printf("Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("HTTP server error: %v", err)
		}
	}()
	return server
}

// AgentStatus is one agent's entry in the /status response.
type AgentStatus struct {
	ProfileID        string `json:"profile_id"`
	AccountID        string `json:"account_id"`
	ActionsToday     int    `json:"actions_today"`
	VolumeToday      int64  `json:"volume_today"`
	LastResetDate    string `json:"last_reset_date,omitempty"`
	NextEligibleAtMs int64  `json:"next_eligible_at_ms"`
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status string        `json:"status"`
	Agents []AgentStatus `json:"agents"`
}

func handleStatus(w http.ResponseWriter, r *http.Request, st *stores) {
	profiles, err := st.profiles.ListActive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := StatusResponse{Status: "running", Agents: []AgentStatus{}}
	for _, p := range profiles {
		entry := AgentStatus{ProfileID: p.ProfileID, AccountID: p.AccountID}
		if rt, err := st.profiles.GetRuntime(r.Context(), p.ProfileID); err == nil {
			entry.ActionsToday = rt.ActionsToday
			entry.VolumeToday = rt.VolumeToday
			entry.LastResetDate = rt.LastResetDate
			entry.NextEligibleAtMs = rt.NextEligibleAtMs
		}
		resp.Agents = append(resp.Agents, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
