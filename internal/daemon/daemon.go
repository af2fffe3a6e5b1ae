package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/api"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/battle"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/budget"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/killswitch"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/referee"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/scenario"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/tactic"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/health"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/llm"
	_ "github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/metrics" // Register Prometheus metrics
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/notify"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

// Daemon is the sandbox training runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Governor *budget.Governor
	Kill     *killswitch.Controller
	Orch     *battle.Orchestrator
	Injector *scenario.Injector
	Promoter *tactic.Service
	Server   *api.Server
	Health   *health.Checker

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dataDir := goatHome()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Completion client. Without an endpoint the daemon stays fully
	// functional on the mock client so the pipeline can be exercised
	// end to end with zero spend.
	var client llm.CompletionClient
	if cfg.LLM.Endpoint != "" {
		client = llm.NewClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, pricingFor(cfg.LLM))
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: llm.endpoint not configured, using mock completion client (canned replies, no real battles)\n")
		client = llm.NewMockClient()
	}

	gov := budget.NewGovernor(db, budget.Config{
		Env:         domain.EnvSandbox,
		DailyCapUSD: cfg.Budget.DailyCapUSD,
		ThrottleUSD: cfg.Budget.ThrottleUSD,
	})

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notify.WebhookURL)
	}
	ks := killswitch.NewController(db, notifier)

	sim := battle.NewConversationSimulator(client, map[domain.Tier]string{
		domain.TierStandard: cfg.LLM.StandardModel,
		domain.TierEconomy:  cfg.LLM.EconomyModel,
	}, cfg.Battles.MaxTurns)

	judge := referee.NewLLMJudge(client, cfg.LLM.JudgeModel)
	scorer := referee.NewScorer(judge)

	orch := battle.NewOrchestrator(db, gov, ks, sim, scorer, cfg.Battles.MaxConcurrent)
	injector := scenario.NewInjector(db, orch)
	promoter := tactic.NewService(db)

	srv := api.NewServer(orch, ks, injector, promoter, gov, cfg.Auth.CronToken, cfg.Auth.AdminToken)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Governor: gov,
		Kill:     ks,
		Orch:     orch,
		Injector: injector,
		Promoter: promoter,
		Server:   srv,
		Health:   health.NewChecker(db, dataDir),
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // training batches hold the request open
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Sandbox pipeline serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// pricingFor builds the per-model token pricing table. A single configured
// rate applies to every model; zero falls back to the client default.
func pricingFor(cfg LLMConfig) map[string]float64 {
	if cfg.PricePerKTok <= 0 {
		return nil
	}
	pricing := map[string]float64{}
	for _, m := range []string{cfg.StandardModel, cfg.EconomyModel, cfg.JudgeModel} {
		if m != "" {
			pricing[m] = cfg.PricePerKTok
		}
	}
	return pricing
}
