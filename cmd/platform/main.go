// Command platform runs the domain resolution and verification engine:
// the operator-facing domain management API and the public storefront
// resolution endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hauntworks/platform/internal/config"
	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/internal/httpapi"
	"github.com/hauntworks/platform/internal/resolver"
	"github.com/hauntworks/platform/internal/storage/postgres"
	"github.com/hauntworks/platform/internal/storage/postgres/migrations"
	"github.com/hauntworks/platform/pkg/cache"
	"github.com/hauntworks/platform/pkg/db"
	"github.com/hauntworks/platform/pkg/dnsverify"
	"github.com/hauntworks/platform/pkg/logger"
	"github.com/hauntworks/platform/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Sentry, cfg.App.LogLevel, logger.RequestID)

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.Database.MigrationsTable, log); err != nil {
		return err
	}

	store := postgres.New(pool)

	storefrontCache, err := newStorefrontCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = storefrontCache.Close() }()

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}

	domainSvc := domains.NewService(store, verifier, cfg.Domains, log)
	resolverSvc := resolver.New(store, store, storefrontCache, cfg.Resolver, log)

	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           httpapi.New(domainSvc, resolverSvc, store, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			slog.String("addr", cfg.App.HTTPAddr),
			slog.String("environment", cfg.App.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStorefrontCache picks the resolver cache backend: Redis when
// configured so replicas share warm entries, process-local memory
// otherwise.
func newStorefrontCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache[resolver.Storefront], error) {
	if cfg.Redis.URL == "" {
		log.Info("redis not configured, using in-memory storefront cache")
		return cache.NewMemory[resolver.Storefront](cfg.Resolver.CacheTTL, time.Minute), nil
	}

	client, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	return cache.NewRedis[resolver.Storefront](client, "storefront", cfg.Resolver.CacheTTL), nil
}

// newVerifier selects the DNS verifier. The always-pass bypass is only
// honored outside production; a production process with the flag set
// refuses to start rather than silently verifying nothing.
func newVerifier(cfg *config.Config, log *slog.Logger) (domains.Verifier, error) {
	if cfg.DNS.SkipVerification {
		if cfg.App.Environment == "production" {
			return nil, fmt.Errorf("DNS_SKIP_VERIFICATION is not allowed in the %s environment", cfg.App.Environment)
		}
		log.Warn("dns verification disabled, every domain will verify")
		return dnsverify.Static{}, nil
	}

	return dnsverify.New(dnsverify.NewClient(cfg.DNS.Resolvers...), cfg.Domains.CNAMETarget), nil
}
