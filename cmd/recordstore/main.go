// Command recordstore serves a record store over gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"recordstore/internal/config"
	"recordstore/internal/log"
	"recordstore/internal/server"
	"recordstore/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "recordstore: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides holds command-line settings. Empty strings and a negative
// quota mean the flag was not given.
type flagOverrides struct {
	configPath  string
	backend     string
	dataDir     string
	listen      string
	metricsAddr string
	logLevel    string
	quota       int64
}

func parseFlags(args []string) (flagOverrides, error) {
	var o flagOverrides
	fs := flag.NewFlagSet("recordstore", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&o.backend, "backend", "", "storage backend (localStorage or sessionStorage)")
	fs.StringVar(&o.dataDir, "data-dir", "", "directory for durable namespaces")
	fs.StringVar(&o.listen, "listen", "", "gRPC listen address")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address")
	fs.Int64Var(&o.quota, "quota", -1, "namespace quota in bytes (0 disables)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return flagOverrides{}, err
	}
	return o, nil
}

// apply layers the given flags over cfg, which already holds defaults, the
// config file and the environment.
func (o flagOverrides) apply(cfg *config.Config) {
	overrideString(&cfg.Backend, o.backend)
	overrideString(&cfg.DataDir, o.dataDir)
	overrideString(&cfg.ListenAddr, o.listen)
	overrideString(&cfg.MetricsAddr, o.metricsAddr)
	overrideString(&cfg.LogLevel, o.logLevel)
	if o.quota >= 0 {
		cfg.QuotaBytes = o.quota
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("main")

	host := storage.NewHost(cfg.StorageOptions())
	defer func() {
		if err := host.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close storage")
		}
	}()

	sel, err := config.NewSelector(host).SelectBackend(cfg.Backend)
	if err != nil {
		return err
	}
	a, err := sel.Build()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node := server.NewNode(cfg.ListenAddr, a)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(node.Start)
	g.Go(func() error {
		<-gctx.Done()
		node.Stop()
		return nil
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	logger.Info().
		Str("backend", a.Backend()).
		Str("listen", cfg.ListenAddr).
		Int64("quota_bytes", cfg.QuotaBytes).
		Msg("recordstore started")

	return g.Wait()
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
