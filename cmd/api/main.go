package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/config"
	"taskgate.org/internal/httpapi"
	"taskgate.org/internal/migrate"
	"taskgate.org/internal/obs"
	"taskgate.org/internal/policy"
	"taskgate.org/internal/store/pg"
	"taskgate.org/internal/stream"
	"taskgate.org/internal/workspace"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", os.Getenv("TASKGATE_CONFIG"), "path to YAML config file")
		autoMigrate = pflag.Bool("migrate", true, "apply pending migrations on startup when a database is configured")
		showVersion = pflag.BoolP("version", "v", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		log.SetFlags(0)
		log.Printf("taskgate-api %s (%s)", version, commit)
		return
	}

	loaded := config.LoadEnvFiles(".env.local", ".env")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store workspace.Store
		probe httpapi.ReadyProbe
	)
	if cfg.Database.DSN != "" {
		pgStore, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		if *autoMigrate {
			applied, err := migrate.NewManager(pgStore.DB(), nil).Up(ctx)
			if err != nil {
				log.Fatalf("migrate: %v", err)
			}
			if len(applied) > 0 {
				obs.Info("migrations applied", map[string]any{"files": applied})
			}
		}
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		store = workspace.NewMemory()
	}

	ws, err := workspace.NewService(store,
		workspace.WithPolicy(policy.New(obs.ObserveDecision)),
		workspace.WithEvents(stream.New[workspace.AuditEntry](64)),
	)
	if err != nil {
		log.Fatalf("workspace: %v", err)
	}
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	authSvc, err := auth.NewService(ws.Directory(), issuer)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	if cfg.SeedDemo {
		if _, err := workspace.Seed(ctx, store, nil); err != nil && !errors.Is(err, workspace.ErrConflict) {
			log.Fatalf("seed: %v", err)
		}
	}

	api := httpapi.New(ws, authSvc, probe, httpapi.Options{
		Version:        version,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateBurst:      cfg.RateLimit.Burst,
		RatePerSecond:  cfg.RateLimit.RequestsPerSecond,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	srv := httpapi.NewHTTPServer(api.Handler(), httpapi.ServerConfig{
		Addr:         cfg.Server.HTTPAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	obs.Info("starting taskgate-api", map[string]any{
		"version":   version,
		"http_addr": srv.Addr,
		"grpc_addr": cfg.Server.GRPCAddr,
		"store":     storeKind(cfg),
		"env_files": loaded,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		health := httpapi.NewGRPCServer(probe)
		g.Go(func() error { return health.Serve(lis) })
		g.Go(func() error {
			health.Watch(gctx, 10*time.Second)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			health.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		obs.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		obs.Error("server stopped", err, nil)
		os.Exit(1)
	}
	obs.Info("stopped", nil)
}

func storeKind(cfg *config.Config) string {
	if cfg.Database.DSN != "" {
		return "postgres"
	}
	return "memory"
}
