package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsbridge/backend/internal/bridge"
	"github.com/fsbridge/backend/internal/fs"
	"github.com/fsbridge/backend/internal/fs/local"
	"github.com/fsbridge/backend/internal/fs/memory"
	"github.com/fsbridge/backend/internal/infrastructure/config"
	"github.com/fsbridge/backend/internal/infrastructure/logging"
	"github.com/fsbridge/backend/internal/infrastructure/monitoring"
	"github.com/fsbridge/backend/internal/rpc"
	"github.com/fsbridge/backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadOrDefault()

	transport := flag.String("transport", cfg.Transport.Mode, "Protocol transport: stdio or ws")
	port := flag.String("port", cfg.Server.Port, "Server port (ws transport)")
	host := flag.String("host", cfg.Server.Host, "Server host (ws transport)")
	flag.Parse()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	registry := fs.NewRegistry()
	registry.Register(local.New(logger.Logger))
	registry.Register(memory.New())

	metrics := monitoring.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *transport {
	case "stdio":
		runStdio(ctx, cfg, registry, logger.Logger, metrics)
	case "ws":
		runWS(ctx, cfg, registry, logger.Logger, metrics, net.JoinHostPort(*host, *port))
	default:
		logger.Fatal("unknown transport", zap.String("transport", *transport))
	}
}

// runStdio serves a single client on stdin/stdout. An ordinary interruption
// or EOF exits cleanly; an unrecoverable listener failure exits non-zero
// after logging the cause.
func runStdio(ctx context.Context, cfg *config.Config, registry *fs.Registry, logger *zap.Logger, metrics *monitoring.Metrics) {
	transport := rpc.NewStdioTransport(os.Stdin, os.Stdout, os.Stdin, cfg.Transport.MaxMessageBytes)
	conn := rpc.NewConn(transport, logger, metrics)

	// a signal cancels ctx but the scanner stays parked on idle stdin;
	// closing the transport unblocks it so Serve can return
	go func() {
		<-ctx.Done()
		transport.Close()
	}()

	br := bridge.New(ctx, registry, nil, logger, metrics)
	br.Register(conn)

	logger.Info("listening on stdio", zap.Strings("schemes", registry.Schemes()))
	if err := conn.Serve(ctx); err != nil {
		logger.Error("listener failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func runWS(ctx context.Context, cfg *config.Config, registry *fs.Registry, logger *zap.Logger, metrics *monitoring.Metrics, addr string) {
	srv := server.NewServer(cfg, registry, logger, metrics)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(addr)
	}()

	logger.Info("listening", zap.String("addr", addr), zap.Strings("schemes", registry.Schemes()))

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Close(shutdownCtx); err != nil {
			logger.Warn("error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
	}
}
