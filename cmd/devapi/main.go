package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/devapi"
	"github.com/iudanet/scholardesk/internal/logging"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := devapi.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	srv := devapi.New(log, cfg.Options())
	defer srv.Close()

	if cfg.Auth.Secret == "" {
		log.Warn("DEVAPI_JWT_SECRET is empty, using a random secret: tokens will not survive a restart")
	}
	if cfg.Seed.AdminEmail != "" {
		if _, err := srv.SeedAdmin(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			return err
		}
		log.Info("super admin seeded", zap.String("email", cfg.Seed.AdminEmail))
	}
	if cfg.Seed.Scholarships {
		log.Info("scholarships seeded", zap.Int("count", len(srv.SeedScholarships())))
	}

	addr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Info("dev API listening",
		zap.String("addr", addr),
		zap.String("base_url", "http://"+ln.Addr().String()+devapi.BasePath),
		zap.String("version", Version),
	)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown requested")
	case err := <-serveErrCh:
		if err != nil {
			return fmt.Errorf("http serve failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
		return nil
	}
	log.Info("dev API stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Scholardesk dev API\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
