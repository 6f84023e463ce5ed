// Command auditord runs the iterative code-review orchestrator as an
// HTTP service: POST a thought, get back a Review, poll session state.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/ganaudit/pkg/api"
	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/cache"
	"github.com/codeready-toolchain/ganaudit/pkg/cleanup"
	"github.com/codeready-toolchain/ganaudit/pkg/config"
	"github.com/codeready-toolchain/ganaudit/pkg/contextpack"
	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"github.com/codeready-toolchain/ganaudit/pkg/judge/remote"
	"github.com/codeready-toolchain/ganaudit/pkg/masking"
	"github.com/codeready-toolchain/ganaudit/pkg/orchestrator"
	"github.com/codeready-toolchain/ganaudit/pkg/persistence/file"
	"github.com/codeready-toolchain/ganaudit/pkg/persistence/postgres"
	"github.com/codeready-toolchain/ganaudit/pkg/queue"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	setupLogging(getEnv("AUDIT_LOG_LEVEL", "info"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	applyEnvOverrides(cfg)

	sessions, persister := mustBuildSessionStore(ctx, cfg)
	if closer, ok := persister.(interface{ Close() }); ok {
		defer closer.Close()
	}

	masker := masking.NewService(cfg.Masking)
	auditCache := cache.New(cfg.Cache)
	defer auditCache.Destroy()

	packer := contextpack.NewStubPacker()
	j := mustBuildJudge()

	// Queue.New needs an AuditFn bound to the Orchestrator it will later be
	// wired into, so close over the not-yet-constructed pointer.
	var orch *orchestrator.Orchestrator
	auditQueue := queue.New(cfg.Queue, func(ctx context.Context, thought audit.Thought, sessionID string) (audit.Review, error) {
		return orch.Audit(ctx, thought, sessionID)
	}, nil)

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.EnqueueTimeout = cfg.Queue.DefaultTimeout
	orchCfg.EnableWorkflow = os.Getenv("AUDIT_ENABLE_WORKFLOW") == "true"
	orch = orchestrator.New(orchCfg, auditCache, auditQueue, sessions, j, packer, masker, cfg.Completion)

	cleanupSvc := cleanup.NewService(cfg.Cleanup, sessions)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	srv := api.NewServer(orch, sessions, j)

	addr := cfg.Server.Addr
	slog.Info("starting auditord", "addr", addr, "config_dir", *configDir, "persistence_driver", cfg.Persistence.Driver)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(addr); err != nil {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("HTTP server failed: %v", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}
}

// setupLogging constructs the process-wide slog handler from
// AUDIT_LOG_LEVEL, defaulting to info on an unrecognized value.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	if gin.Mode() == gin.DebugMode && lvl != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
}

// applyEnvOverrides layers the recognized AUDIT_* environment variables
// on top of the YAML-loaded configuration, so an operator can tune a
// single knob without editing audit.yaml.
func applyEnvOverrides(cfg *config.Config) {
	if ms := getEnvInt("AUDIT_TIMEOUT_MS", 0); ms > 0 {
		cfg.Queue.DefaultTimeout = time.Duration(ms) * time.Millisecond
	}
	if n := getEnvInt("AUDIT_CACHE_MAX_ENTRIES", 0); n > 0 {
		cfg.Cache.MaxEntries = n
	}
	if n := getEnvInt("AUDIT_CACHE_MAX_BYTES", 0); n > 0 {
		cfg.Cache.MaxMemoryUsage = int64(n)
	}
	if n := getEnvInt("AUDIT_QUEUE_CONCURRENCY", 0); n > 0 {
		cfg.Queue.MaxConcurrent = n
	}
}

func mustBuildSessionStore(ctx context.Context, cfg *config.Config) (*session.Store, session.Persister) {
	switch cfg.Persistence.Driver {
	case config.PersistenceFile:
		p, err := file.New(cfg.Persistence.FileDir)
		if err != nil {
			log.Fatalf("Failed to initialize file persister: %v", err)
		}
		return session.New(p), p
	case config.PersistencePostgres:
		p, err := postgres.New(ctx, postgres.Config{DSN: cfg.Persistence.PostgresDSN})
		if err != nil {
			log.Fatalf("Failed to initialize postgres persister: %v", err)
		}
		return session.New(p), p
	default:
		return session.New(nil), nil
	}
}

// mustBuildJudge wires a RemoteJudge when JUDGE_ADDR is set, otherwise
// falls back to the canned in-process judge so the service runs
// standalone without a scoring backend.
func mustBuildJudge() judge.Judge {
	addr := os.Getenv("JUDGE_ADDR")
	if addr == "" {
		return judge.NewFallbackJudge()
	}
	j, err := remote.New(addr)
	if err != nil {
		log.Fatalf("Failed to connect to judge service at %s: %v", addr, err)
	}
	return j
}
