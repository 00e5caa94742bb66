package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mysql-mcp-go: %v\n", err)
		os.Exit(1)
	}
}

// run wires the process together. Protocol traffic uses stdin and stdout;
// everything else goes to stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := NewMetrics()

	connect := func(ctx context.Context, connString string) (*store, error) {
		return openStore(ctx, connString, cfg.AcquireTimeout, logger)
	}
	session := NewSession(connect, metrics, logger)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	if cfg.ConnectOnStart {
		if err := session.Connect(ctx, cfg.ConnectionString()); err != nil {
			logger.Error("startup connection failed, waiting for initialize", "error", err)
		}
	}

	server := NewServer(cfg, session, metrics, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return server.Serve(gctx, stdin, stdout)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, metrics, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
