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
	"path/filepath"
	"syscall"
	"time"

	"auditserve/config"
	"auditserve/fingerprint"
	"auditserve/metrics"
	"auditserve/server"
	"auditserve/timer"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	fingerprintObserveFrequency = 30 * time.Second
	shutdownTimeout             = 5 * time.Second

	logPrefix = "auditserve"
)

func banner(port int) {
	fmt.Printf("🚀 Server running at http://localhost:%d\n", port)
	fmt.Println("📊 Cache headers are properly set for performance audits")
	fmt.Println("🎯 Ready for Lighthouse testing!")
	fmt.Println("Press Ctrl+C to stop the server")
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.ReadServerConfig()
	if err != nil {
		log.Fatal("Unable to read the configuration", "err", err)
	}

	port := flag.Int("port", cfg.Port, "listening port of the file server")
	root := flag.String("root", cfg.Root, "directory to serve")
	metricsPort := flag.Int("metrics-port", cfg.MetricsPort, "listening port of the metrics endpoint, 0 turns it off")
	noETags := flag.Bool("no-etags", !cfg.ETags, "turn off fingerprint ETags")
	verbose := flag.Bool("v", cfg.Verbose, "log every request")
	flag.Parse()

	cfg.Port = *port
	cfg.Root = *root
	cfg.MetricsPort = *metricsPort
	cfg.ETags = !*noETags
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          logPrefix,
	})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	timer.LoggerConfig(logPrefix, cfg.Verbose)

	metrics.Init()

	var store *fingerprint.Store
	if cfg.ETags {
		store, err = fingerprint.Open(filepath.Join(cfg.DataDir, fingerprint.DbName), cfg.Root, logger)
		if err != nil {
			logger.Fatal("Fingerprint database error", "err", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Closing the fingerprint database", "err", err)
			}
		}()

		if n, err := store.Count(); err == nil {
			metrics.SetFingerprints(n)
		}

		cleanerTicker := time.NewTicker(fingerprintObserveFrequency)
		defer cleanerTicker.Stop()
		cleaner := fingerprint.NewCleaner(store, cleanerTicker)
		go cleaner.Observe()
		logger.Info("Fingerprint cleaner has been started!")
	}

	srv := server.New(server.NewConfig(cfg.Port, cfg.Root), store, logger)

	fileServer := &http.Server{
		Handler: srv.Handler(),
	}

	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler: mux,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		logger.Fatal("There's a problem with listening", "err", err)
	}

	banner(cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := fileServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if metricsServer != nil {
		logger.Info("Metrics are served", "addr", metricsServer.Addr)
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return fileServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server error", "err", err)
	}

	fmt.Println("\n👋 Server stopped")
}
