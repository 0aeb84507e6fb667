// cmd/web/main.go
//
// HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Connect Vault when VAULT_ADDR is set so `vault:` config values resolve.
//
//  3. Load configuration, then start the daily rotating logger (tees to
//     console when running in a TTY).
//
//  4. Open the global DB, the snapshot cache backend, and the snapshot
//     store.  Warm the snapshot once so schema problems surface at boot.
//
//  5. Install a background resolver for code running outside requests.
//
//  6. Build the chi router (see routes.go) and serve with graceful
//     shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/cache"
	"github.com/yanizio/adept-locale/internal/config"
	"github.com/yanizio/adept-locale/internal/database"
	"github.com/yanizio/adept-locale/internal/logger"
	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/server"
	"github.com/yanizio/adept-locale/internal/site"
	"github.com/yanizio/adept-locale/internal/snapshot"
	"github.com/yanizio/adept-locale/internal/vault"
)

const serverEnvPath = "/usr/local/etc/adept-locale/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Vault + config ──────────────────────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx)
		if err != nil {
			log.Fatalf("vault: %v", err)
		}
		config.SetSecretGetter(vc)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logDir := cfg.Log.Dir
	if logDir == "" {
		logDir = filepath.Join(cfg.Paths.Root, "logs")
	}
	logOut, err := logger.New(logger.Options{Dir: logDir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Storage + snapshot store ────────────────────────────────────
	//
	logOut.Info("connecting to global DB …")
	db, err := database.OpenWithOptions(ctx, cfg.Database.DSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: database.DefaultOptions.ConnMaxLifetime,
		Retries:         cfg.Database.Retries,
		RetryBackoff:    cfg.Database.RetryBackoff,
	})
	if err != nil {
		logOut.Fatalw("connect global DB", "err", err)
	}
	defer db.Close()
	logOut.Info("global DB online")

	raw, err := cache.Open(cache.Options{
		Backend: cfg.Cache.Backend,
		Redis: cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
	})
	if err != nil {
		logOut.Fatalw("open snapshot cache", "backend", cfg.Cache.Backend, "err", err)
	}
	defer raw.Close()

	chains, err := cfg.Localization.FallbackChains()
	if err != nil {
		logOut.Fatalw("fallback chains", "err", err)
	}
	repo := site.NewRepository(db)
	store := snapshot.NewStore(raw, repo,
		snapshot.WithTTL(cfg.Cache.TTL),
		snapshot.WithFallbackPolicy(snapshot.ChainPolicy(chains)))

	snap, err := store.Get(ctx)
	if err != nil {
		logOut.Fatalw("build localization snapshot", "err", err)
	}
	logOut.Infow("localization snapshot ready",
		"domains", len(snap.Domains()),
		"locales", len(snap.AvailableLocales()),
		"default", snap.DefaultLocale(),
		"warnings", len(snap.Warnings()))

	resolver.SetDefault(resolver.NewBackground(store))

	//
	// ── 3.  HTTP ─────────────────────────────────────────────────────────
	//
	h := newRouter(routerDeps{
		Store:      store,
		Repo:       repo,
		Hasher:     site.Hasher{Cost: cfg.Security.BcryptCost},
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
		AdminToken: cfg.HTTP.AdminToken,
		Log:        zap.L(),
	})
	srv := server.New(cfg.HTTP.ListenAddr, h, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logOut.Warnw("http shutdown", "err", err)
		}
	}()

	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logOut.Fatalw("http server", "err", err)
	}
	logOut.Info("http server stopped")
}
