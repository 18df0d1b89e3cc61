package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robodex/robodex-backend/auth"
	"github.com/robodex/robodex-backend/auth/cache"
	"github.com/robodex/robodex-backend/codehost"
	"github.com/robodex/robodex-backend/gateway"
	"github.com/robodex/robodex-backend/internal/config"
	"github.com/robodex/robodex-backend/internal/logging"
	"github.com/robodex/robodex-backend/members"
	"github.com/robodex/robodex-backend/server"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running server: %s\n", err)
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logger := logging.New(cfg.Env.Env, cfg.Env.LogLevel, os.Stdout)
	displayAppname(cfg.Env.AppName)

	handler, closeBackends, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackends()

	httpServer := &http.Server{
		Addr:              cfg.Env.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// buildServer wires configuration into the backends and the HTTP server. The
// returned func releases backend connections.
func buildServer(cfg *config.Config, logger zerolog.Logger) (*server.Server, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	closeBackends := func() {}

	gw, err := gateway.New(cfg.Gateway.URL, cfg.Gateway.ServiceKey,
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRegisterer(registry),
	)
	if err != nil {
		return nil, closeBackends, fmt.Errorf("gateway.New: %w", err)
	}

	codeHostOpts := []codehost.Option{
		codehost.WithTimeout(cfg.CodeHost.Timeout),
		codehost.WithRegisterer(registry),
	}
	if cfg.CodeHost.Token != "" {
		codeHostOpts = append(codeHostOpts, codehost.WithToken(cfg.CodeHost.Token))
	}
	ch, err := codehost.New(cfg.CodeHost.BaseURL, codeHostOpts...)
	if err != nil {
		return nil, closeBackends, fmt.Errorf("codehost.New: %w", err)
	}

	repo := members.NewGatewayRepo(gw)
	svc, err := members.NewService(repo,
		members.WithHashedPasswords(cfg.Security.HashPasswords),
		members.WithMinPasswordLength(cfg.Security.MinPasswordLength),
	)
	if err != nil {
		return nil, closeBackends, fmt.Errorf("members.NewService: %w", err)
	}

	authOpts := []auth.AuthorizerOption{auth.WithTokenTTL(cfg.Security.TokenTTL)}
	if cfg.Cache.Enabled() {
		clearanceCache, closeCache, err := newClearanceCache(cfg.Cache, registry)
		if err != nil {
			return nil, closeBackends, err
		}
		closeBackends = closeCache
		authOpts = append(authOpts, auth.WithClearanceCache(clearanceCache))
		logger.Info().Str("kind", cfg.Cache.Kind).Dur("ttl", cfg.Cache.TTL).Msg("clearance cache enabled")
	}
	authorizer, err := auth.NewAuthorizer(cfg.Security.Secret(), repo, authOpts...)
	if err != nil {
		return nil, closeBackends, fmt.Errorf("auth.NewAuthorizer: %w", err)
	}

	srv, err := server.New(cfg, server.Backends{
		Gateway:    gw,
		Members:    svc,
		Authorizer: authorizer,
		CodeHost:   ch,
	}, server.WithLogger(logger), server.WithRegistry(registry))
	if err != nil {
		return nil, closeBackends, fmt.Errorf("server.New: %w", err)
	}
	return srv, closeBackends, nil
}

func newClearanceCache(c config.Cache, reg prometheus.Registerer) (auth.ClearanceCache, func(), error) {
	switch c.Kind {
	case config.CacheMemory:
		return cache.NewMemory(c.TTL, cache.WithRegisterer(reg)), func() {}, nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(context.Background(), c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("cache.NewRedisClient: %w", err)
		}
		return cache.NewRedis(client, c.TTL, cache.WithRegisterer(reg)), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported clearance cache %q", c.Kind)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
