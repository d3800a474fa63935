// Command triangulator serves fan triangulations of point sets held by the
// PointSetManager (or a local SQLite store).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/triangulator/internal/api"
	"github.com/banshee-data/triangulator/internal/config"
	"github.com/banshee-data/triangulator/internal/health"
	"github.com/banshee-data/triangulator/internal/httputil"
	"github.com/banshee-data/triangulator/internal/monitoring"
	"github.com/banshee-data/triangulator/internal/pointset"
	"github.com/banshee-data/triangulator/internal/store"
	"github.com/banshee-data/triangulator/internal/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, nil); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("triangulator: %v", err)
	}
}

// run parses args, starts the servers and blocks until ctx is cancelled. When
// ready is non-nil it receives the bound HTTP address once listening.
func run(ctx context.Context, args []string, stdout io.Writer, ready chan<- net.Addr) error {
	fs := flag.NewFlagSet("triangulator", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version.String("triangulator"))
		return nil
	}

	cfg, err := flags.Load()
	if err != nil {
		return err
	}

	if err := monitoring.Init(cfg.GetLogLevel(), cfg.GetLogFile()); err != nil {
		return err
	}
	defer monitoring.Sync()
	logger := monitoring.L()
	logger.Info("starting triangulator",
		zap.String("version", version.Version),
		zap.String("gitSha", version.GitSHA),
		zap.String("listen", cfg.GetListen()),
		zap.String("source", cfg.GetSource()),
		zap.Duration("requestTimeout", cfg.GetRequestTimeout()))

	source, closeSource, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	var healthSrv *health.Server
	if addr := cfg.GetGRPCHealthListen(); addr != "" {
		healthSrv = health.NewServer(addr)
		if err := healthSrv.Start(); err != nil {
			return fmt.Errorf("grpc health: %w", err)
		}
		defer healthSrv.Stop()
	}

	lis, err := net.Listen("tcp", cfg.GetListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GetListen(), err)
	}
	server := &http.Server{
		Handler:           api.NewServer(cfg, source).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
		if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	if ready != nil {
		ready <- lis.Addr()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")
	if healthSrv != nil {
		healthSrv.SetServing(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", zap.Error(err))
		if err := server.Close(); err != nil {
			logger.Warn("http server force close error", zap.Error(err))
		}
	}
	wg.Wait()

	logger.Info("graceful shutdown complete")
	return nil
}

// newSource builds the configured point set source. The returned func
// releases it.
func newSource(cfg *config.ServiceConfig) (pointset.Source, func(), error) {
	switch cfg.GetSource() {
	case config.SourceSQLite:
		st, err := store.Open(cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open point set store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		client := httputil.NewStandardClient(&http.Client{})
		return pointset.NewHTTPSource(cfg, client), func() {}, nil
	}
}
