package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"filogate.org/internal/audit"
	"filogate.org/internal/auth"
	"filogate.org/internal/config"
	"filogate.org/internal/httpapi"
	"filogate.org/internal/obs"
	"filogate.org/internal/security"
	"filogate.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	lockout := security.NewLockout(rdb,
		security.WithMaxFailures(cfg.Lockout.MaxFailures),
		security.WithWindow(cfg.Lockout.Window),
		security.WithLockDuration(cfg.Lockout.Duration),
	)

	svc, err := auth.NewService(store,
		auth.WithTokenSecret(cfg.Auth.TokenSecret),
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(cfg.Auth.AccessTTL),
		auth.WithRefreshTTL(cfg.Auth.RefreshTTL),
		auth.WithAdminEmail(cfg.Auth.AdminEmail),
		auth.WithSecurity(lockout),
		auth.WithAudit(audit.NewRecorder()),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	// periodic bookkeeping: revoke expired refresh tokens
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Sweep.Schedule, func() {
		n, err := svc.SweepExpiredTokens(context.Background())
		if err != nil {
			log.Printf("token sweep: %v", err)
			return
		}
		obs.CountSweptTokens(n)
	}); err != nil {
		log.Fatalf("sweep schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	api := httpapi.New(svc, httpapi.Options{
		ReadyProbe:     httpapi.ReadyProbe{DB: store.DB()},
		Version:        version,
		APIKeys:        cfg.APIKeyPairs(),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Printf("Starting filogate-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
